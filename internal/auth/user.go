// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package auth

import (
	"context"
	"time"

	"github.com/samber/oops"
)

// User is an account identified by its email address.
// The email is compared exactly as stored.
type User struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser creates a User with validated fields and fresh timestamps.
func NewUser(email, passwordHash string) (*User, error) {
	if email == "" {
		return nil, oops.Code(CodeInvalidUser).Errorf("email cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code(CodeInvalidUser).Errorf("password hash cannot be empty")
	}
	now := time.Now().UTC()
	return &User{
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Identity is the public view of a user.
type Identity struct {
	Email string `json:"email"`
}

// Identity returns the public identity of u.
func (u *User) Identity() Identity {
	return Identity{Email: u.Email}
}

// UserRepository stores users keyed by email.
//
// Implementations must enforce email uniqueness themselves and return an
// error wrapping ErrDuplicate when Create conflicts with an existing user.
// Lookups and updates of a missing user return an error wrapping ErrNotFound.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}
