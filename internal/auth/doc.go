// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

// Package auth provides the authentication core for MTGVault.
//
// # Primitives
//
// The package is built from three leaf components:
//   - PasswordHasher - salted, adaptive password hashing with multi-scheme verification
//   - TokenService - signed, expiring bearer tokens scoped by Purpose
//   - SessionResolver - maps a bearer token to a stored User
//
// # Flows
//
// Service composes the primitives into the account flows: Register, Login, Me,
// ForgotPassword and ResetPassword. Storage and email delivery are reached
// through the UserRepository and Notifier ports; adapters live in the
// memory, postgres and mongo subpackages and in internal/mail.
//
// Tokens are stateless. A password reset does not invalidate tokens issued
// before it; they stay valid until their own expiry.
//
// ForgotPassword reports NotFound for unknown emails while Login merges
// unknown email and wrong password into InvalidCredentials. The asymmetry is
// kept on purpose for compatibility with existing clients and should be
// reviewed with that in mind.
package auth
