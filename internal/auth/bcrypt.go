// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// bcryptMaxPassword is the most input bcrypt reads.
const bcryptMaxPassword = 72

// BcryptHasher implements PasswordHasher using bcrypt.
// It reads the $2a$, $2b$ and $2y$ variants.
//
// Passwords longer than bcrypt's 72 byte input are reduced to a base64
// SHA-256 digest first, so distinct long passwords never share a hash.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher. A cost outside bcrypt's range uses bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash produces a bcrypt hash of the password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	out, err := bcrypt.GenerateFromPassword(bcryptInput(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").With("scheme", string(SchemeBcrypt)).Wrap(err)
	}
	return string(out), nil
}

// Verify checks if the password matches the bcrypt hash.
func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	if !isBcrypt(hash) {
		return false, oops.Code(CodeInvalidHash).Errorf("not a bcrypt hash")
	}
	ok, err := compareBcrypt(hash, bcryptInput(password))
	if ok || err != nil || len(password) <= bcryptMaxPassword {
		return ok, err
	}
	// Hashes written by implementations that truncate long input.
	return compareBcrypt(hash, []byte(password[:bcryptMaxPassword]))
}

func compareBcrypt(hash string, input []byte) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), input)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, oops.Code(CodeInvalidHash).Wrap(err)
	}
}

func bcryptInput(password string) []byte {
	if len(password) <= bcryptMaxPassword {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

// NeedsUpgrade returns true if the hash is not bcrypt or uses a lower cost.
func (h *BcryptHasher) NeedsUpgrade(hash string) bool {
	if !isBcrypt(hash) {
		return true
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost < h.cost
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}
