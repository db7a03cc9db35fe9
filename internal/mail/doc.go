// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

// Package mail renders and delivers the password-reset email.
//
// A Sender moves a Message somewhere: SMTPSender talks to an SMTP relay with
// implicit TLS, LogSender writes it to the log for local development.
// ResetNotifier adapts any Sender to auth.Notifier.
package mail
