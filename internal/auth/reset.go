// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package auth

import (
	"context"
	"net/url"
	"time"

	"github.com/samber/oops"
)

// ResetNotice carries what a user needs to complete a password reset.
type ResetNotice struct {
	Email     string
	Link      string
	ExpiresAt time.Time
}

// Notifier delivers password reset notices.
type Notifier interface {
	SendPasswordReset(ctx context.Context, notice ResetNotice) error
}

// ResetLinkBuilder embeds reset tokens into a frontend URL.
type ResetLinkBuilder struct {
	base *url.URL
}

// NewResetLinkBuilder parses base, which must be an absolute URL.
func NewResetLinkBuilder(base string) (*ResetLinkBuilder, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, oops.Code("RESET_LINK_INVALID").With("base", base).Wrap(err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, oops.Code("RESET_LINK_INVALID").With("base", base).Errorf("reset link base must be an absolute URL")
	}
	return &ResetLinkBuilder{base: u}, nil
}

// Build returns the base URL with token set as the "token" query parameter.
// Other query parameters on the base are preserved.
func (b *ResetLinkBuilder) Build(token string) string {
	u := *b.base
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
