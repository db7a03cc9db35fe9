// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package auth

import (
	"strings"

	"github.com/samber/oops"
)

// Scheme names a password hash format.
type Scheme string

// Supported hash schemes.
const (
	SchemeArgon2id Scheme = "argon2id"
	SchemeBcrypt   Scheme = "bcrypt"
	SchemeUnknown  Scheme = ""
)

// DetectScheme identifies the scheme recorded in an encoded hash.
func DetectScheme(hash string) Scheme {
	switch {
	case strings.HasPrefix(hash, argon2Prefix):
		return SchemeArgon2id
	case isBcrypt(hash):
		return SchemeBcrypt
	default:
		return SchemeUnknown
	}
}

// ParseScheme validates a configured scheme name.
func ParseScheme(name string) (Scheme, error) {
	switch s := Scheme(strings.ToLower(strings.TrimSpace(name))); s {
	case SchemeArgon2id, SchemeBcrypt:
		return s, nil
	default:
		return SchemeUnknown, oops.Code("AUTH_UNKNOWN_SCHEME").With("scheme", name).Errorf("unknown hash scheme %q", name)
	}
}

// SchemeHasher hashes with a primary scheme and verifies any supported scheme.
// Hashes stored in another scheme report NeedsUpgrade so they can be
// replaced after the next successful login.
type SchemeHasher struct {
	primary Scheme
	hashers map[Scheme]PasswordHasher
}

var _ PasswordHasher = (*SchemeHasher)(nil)

// NewSchemeHasher creates a SchemeHasher whose new hashes use primary.
func NewSchemeHasher(primary Scheme, bcryptCost int) (*SchemeHasher, error) {
	h := &SchemeHasher{
		primary: primary,
		hashers: map[Scheme]PasswordHasher{
			SchemeArgon2id: NewArgon2idHasher(),
			SchemeBcrypt:   NewBcryptHasher(bcryptCost),
		},
	}
	if _, ok := h.hashers[primary]; !ok {
		return nil, oops.Code("AUTH_UNKNOWN_SCHEME").With("scheme", string(primary)).Errorf("unsupported primary scheme")
	}
	return h, nil
}

// Primary returns the scheme used for new hashes.
func (h *SchemeHasher) Primary() Scheme {
	return h.primary
}

// Hash hashes the password with the primary scheme.
func (h *SchemeHasher) Hash(password string) (string, error) {
	return h.hashers[h.primary].Hash(password)
}

// Verify dispatches on the scheme recorded in hash. Unknown schemes fail with
// CodeInvalidHash instead of matching.
func (h *SchemeHasher) Verify(password, hash string) (bool, error) {
	scheme := DetectScheme(hash)
	hasher, ok := h.hashers[scheme]
	if !ok {
		return false, oops.Code(CodeInvalidHash).Errorf("unrecognized hash scheme")
	}
	return hasher.Verify(password, hash)
}

// NeedsUpgrade returns true when hash is in a non-primary scheme or the
// primary hasher wants it refreshed.
func (h *SchemeHasher) NeedsUpgrade(hash string) bool {
	if DetectScheme(hash) != h.primary {
		return true
	}
	return h.hashers[h.primary].NeedsUpgrade(hash)
}
