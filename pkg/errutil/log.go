// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

// Package errutil logs and asserts samber/oops errors.
package errutil

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err at error level. For oops errors the code and context
// are logged as separate attributes; attrs are appended as given.
func LogError(ctx context.Context, logger *slog.Logger, msg string, err error, attrs ...any) {
	out := make([]any, 0, len(attrs)+6)
	if oopsErr, ok := oops.AsOops(err); ok {
		out = append(out, "error", oopsErr.Error())
		if code := oopsErr.Code(); code != nil && code != "" {
			out = append(out, "code", code)
		}
		if errCtx := oopsErr.Context(); len(errCtx) > 0 {
			out = append(out, "context", errCtx)
		}
	} else {
		out = append(out, "error", err)
	}
	logger.ErrorContext(ctx, msg, append(out, attrs...)...)
}
