// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package mail

import (
	"context"
	"log/slog"
)

// LogSender writes messages to a logger instead of delivering them. It is
// used when no SMTP credentials are configured.
type LogSender struct {
	logger *slog.Logger
}

var _ Sender = (*LogSender)(nil)

// NewLogSender returns a LogSender. A nil logger uses slog.Default().
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send logs msg at info level. It never fails.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "email not delivered, mail transport disabled",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body)
	return nil
}
