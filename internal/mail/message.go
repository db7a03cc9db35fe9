// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/mtgvault/mtgvault/internal/auth"
)

// ResetSubject is the subject line of the password-reset email.
const ResetSubject = "MTG App Password Reset"

// Message is a plain-text email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ResetMessage renders the password-reset email for notice. validFor is how
// long the link stays usable, rounded to whole minutes in the body.
func ResetMessage(notice auth.ResetNotice, validFor time.Duration) Message {
	minutes := int(validFor.Round(time.Minute) / time.Minute)
	return Message{
		To:      notice.Email,
		Subject: ResetSubject,
		Body: fmt.Sprintf(
			"Click the link below to reset your password:\n\n%s\n\nThis link expires in %d minutes.",
			notice.Link, minutes),
	}
}

// ResetNotifier sends reset notices through a Sender.
type ResetNotifier struct {
	sender Sender
}

var _ auth.Notifier = (*ResetNotifier)(nil)

// NewResetNotifier wraps sender.
func NewResetNotifier(sender Sender) *ResetNotifier {
	return &ResetNotifier{sender: sender}
}

// SendPasswordReset renders and sends the reset email.
func (n *ResetNotifier) SendPasswordReset(ctx context.Context, notice auth.ResetNotice) error {
	return n.sender.Send(ctx, ResetMessage(notice, auth.ResetTokenTTL))
}
