// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// SessionResolver maps a session bearer token to the user it names.
type SessionResolver struct {
	tokens *TokenService
	users  UserRepository
}

// NewSessionResolver creates a SessionResolver.
func NewSessionResolver(tokens *TokenService, users UserRepository) (*SessionResolver, error) {
	if tokens == nil {
		return nil, oops.Errorf("token service is required")
	}
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	return &SessionResolver{tokens: tokens, users: users}, nil
}

// Resolve returns the user for a session token.
//
// Missing, malformed, expired and wrong-purpose tokens, and tokens whose
// subject no longer exists, all fail with CodeUnauthenticated. Storage
// failures are reported separately and never treated as authenticated.
func (r *SessionResolver) Resolve(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, oops.Code(CodeUnauthenticated).With("reason", "missing").Errorf("invalid credentials")
	}

	v := r.tokens.Verify(token, PurposeSession)
	if !v.Valid() {
		return nil, oops.Code(CodeUnauthenticated).With("reason", v.Reason).Errorf("invalid credentials")
	}

	user, err := r.users.GetByEmail(ctx, v.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeUnauthenticated).With("reason", "unknown subject").Errorf("invalid credentials")
		}
		return nil, oops.Code("AUTH_RESOLVE_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return user, nil
}
