// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

// Package jobs moves password-reset email delivery onto an asynq queue so a
// slow or failing SMTP relay never holds up a request.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/samber/oops"

	"github.com/mtgvault/mtgvault/internal/auth"
	"github.com/mtgvault/mtgvault/internal/mail"
)

const (
	// QueueDefault is the queue reset emails are enqueued on.
	QueueDefault = "default"
	// TaskTypePasswordReset delivers one password-reset email.
	TaskTypePasswordReset = "mail:password_reset"
)

// PasswordResetPayload is the task body for TaskTypePasswordReset.
type PasswordResetPayload struct {
	Email     string    `json:"email"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewPasswordResetTask builds a task for notice. The task stops retrying
// once the link has expired.
func NewPasswordResetTask(notice auth.ResetNotice) (*asynq.Task, error) {
	data, err := json.Marshal(PasswordResetPayload(notice))
	if err != nil {
		return nil, oops.Code("JOB_ENCODE_FAILED").
			With("task", TaskTypePasswordReset).
			Wrap(err)
	}
	opts := []asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(5)}
	if !notice.ExpiresAt.IsZero() {
		opts = append(opts, asynq.Deadline(notice.ExpiresAt))
	}
	return asynq.NewTask(TaskTypePasswordReset, data, opts...), nil
}

// PasswordResetHandler sends queued reset emails.
type PasswordResetHandler struct {
	sender mail.Sender
	logger *slog.Logger
	now    func() time.Time
}

// NewPasswordResetHandler returns a handler delivering through sender.
func NewPasswordResetHandler(sender mail.Sender, logger *slog.Logger) *PasswordResetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PasswordResetHandler{sender: sender, logger: logger, now: time.Now}
}

// ProcessTask implements asynq.Handler. Undecodable and expired payloads are
// dropped without retry.
func (h *PasswordResetHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload PasswordResetPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.ErrorContext(ctx, "dropping undecodable password reset task", "error", err)
		return oops.Code("JOB_DECODE_FAILED").
			With("task", t.Type()).
			Wrap(fmt.Errorf("%w: %w", err, asynq.SkipRetry))
	}
	if !payload.ExpiresAt.IsZero() && !h.now().Before(payload.ExpiresAt) {
		h.logger.WarnContext(ctx, "dropping expired password reset task", "email", payload.Email)
		return nil
	}

	notice := auth.ResetNotice(payload)
	if err := h.sender.Send(ctx, mail.ResetMessage(notice, auth.ResetTokenTTL)); err != nil {
		return oops.Code("JOB_DELIVERY_FAILED").
			With("task", t.Type()).
			With("email", payload.Email).
			Wrap(err)
	}
	h.logger.InfoContext(ctx, "password reset email delivered", "email", payload.Email)
	return nil
}

