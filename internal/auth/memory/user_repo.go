// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

// Package memory provides an in-process auth.UserRepository for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/mtgvault/mtgvault/internal/auth"
)

// UserRepository is a mutex-guarded map of users keyed by exact email.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]auth.User
}

var _ auth.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]auth.User)}
}

// GetByEmail returns a copy of the stored user.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[email]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("email", email).Wrap(auth.ErrNotFound)
	}
	return &user, nil
}

// Create stores user unless the email is taken.
func (r *UserRepository) Create(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.Email]; exists {
		return oops.Code("USER_EXISTS").With("email", user.Email).Wrap(auth.ErrDuplicate)
	}
	r.users[user.Email] = *user
	return nil
}

// UpdatePassword replaces the stored hash.
func (r *UserRepository) UpdatePassword(_ context.Context, email, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[email]
	if !ok {
		return oops.Code("USER_NOT_FOUND").With("email", email).Wrap(auth.ErrNotFound)
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now().UTC()
	r.users[email] = user
	return nil
}

// Len returns the number of stored users.
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
