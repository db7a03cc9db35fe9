// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package auth

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned by repositories when a uniqueness constraint rejects a write.
var ErrDuplicate = errors.New("duplicate")

// Error codes surfaced to callers. Adapters map them to transport statuses.
const (
	CodeDuplicateAccount      = "AUTH_DUPLICATE_ACCOUNT"
	CodeInvalidCredentials    = "AUTH_INVALID_CREDENTIALS"
	CodeUnauthenticated       = "AUTH_UNAUTHENTICATED"
	CodeInvalidOrExpiredToken = "AUTH_INVALID_OR_EXPIRED_TOKEN"
	CodeNotFound              = "AUTH_NOT_FOUND"
	CodeEmptyPassword         = "AUTH_EMPTY_PASSWORD"
	CodeInvalidHash           = "AUTH_INVALID_HASH"
	CodeInvalidUser           = "AUTH_INVALID_USER"
)

// ErrorCode returns the oops code carried by err, or "" when there is none.
func ErrorCode(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code := oopsErr.Code()
	if code == nil {
		return ""
	}
	return fmt.Sprint(code)
}

// HasCode reports whether err carries the given oops code.
func HasCode(err error, code string) bool {
	return ErrorCode(err) == code
}
