// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mtgvault/mtgvault/internal/auth"
	"github.com/mtgvault/mtgvault/pkg/errutil"
)

func TestArgon2idHasher_Hash(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("produces valid hash", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"))
	})

	t.Run("same password produces different hashes (salt)", func(t *testing.T) {
		hash1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeEmptyPassword)
	})

	t.Run("custom params are encoded", func(t *testing.T) {
		custom := auth.NewArgon2idHasherWithParams(auth.Argon2Params{Time: 2, Memory: 8 * 1024, Threads: 1})
		hash, err := custom.Hash("pw")
		require.NoError(t, err)
		assert.Contains(t, hash, "$m=8192,t=2,p=1$")

		ok, err := custom.Verify("pw", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestArgon2idHasher_Verify(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("correct password verifies", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify("correctpassword", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("incorrect password fails", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify("wrongpassword", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	malformed := []struct {
		name string
		hash string
		msg  string
	}{
		{"invalid format", "not-a-valid-hash", "invalid hash format"},
		{"wrong algorithm", "$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA", "unsupported hash algorithm"},
		{"invalid version", "$argon2id$vXX$m=65536,t=1,p=4$c2FsdA$aGFzaA", ""},
		{"unknown version", "$argon2id$v=16$m=65536,t=1,p=4$c2FsdA$aGFzaA", "unsupported argon2 version"},
		{"invalid parameters", "$argon2id$v=19$invalid$c2FsdA$aGFzaA", ""},
		{"invalid salt base64", "$argon2id$v=19$m=65536,t=1,p=4$!!!invalid!!!$aGFzaA", ""},
		{"invalid key base64", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$!!!invalid!!!", ""},
		{"threads overflow", "$argon2id$v=19$m=65536,t=1,p=256$c2FsdA$aGFzaA", "threads value"},
		{"zero cost", "$argon2id$v=19$m=0,t=0,p=1$c2FsdA$aGFzaA", "invalid cost parameters"},
	}
	for _, tt := range malformed {
		t.Run(tt.name+" returns error", func(t *testing.T) {
			ok, err := hasher.Verify("password", tt.hash)
			require.Error(t, err)
			assert.False(t, ok)
			errutil.AssertErrorCode(t, err, auth.CodeInvalidHash)
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestArgon2idHasher_NeedsUpgrade(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("bcrypt hash needs upgrade", func(t *testing.T) {
		assert.True(t, hasher.NeedsUpgrade("$2b$12$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"))
	})

	t.Run("current argon2id hash does not", func(t *testing.T) {
		hash, err := hasher.Hash("password")
		require.NoError(t, err)
		assert.False(t, hasher.NeedsUpgrade(hash))
	})

	t.Run("weaker argon2id hash does", func(t *testing.T) {
		weak := auth.NewArgon2idHasherWithParams(auth.Argon2Params{Time: 1, Memory: 1024, Threads: 4})
		hash, err := weak.Hash("password")
		require.NoError(t, err)
		assert.True(t, hasher.NeedsUpgrade(hash))
	})
}

func TestBcryptHasher(t *testing.T) {
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	t.Run("round trip", func(t *testing.T) {
		hash, err := hasher.Hash("pw1")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$2a$04$"))

		ok, err := hasher.Verify("pw1", hash)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = hasher.Verify("pw2", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("accepts $2b$ hashes", func(t *testing.T) {
		hash, err := hasher.Hash("legacy")
		require.NoError(t, err)
		legacy := "$2b$" + strings.TrimPrefix(hash, "$2a$")

		ok, err := hasher.Verify("legacy", legacy)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		errutil.AssertErrorCode(t, err, auth.CodeEmptyPassword)
	})

	t.Run("passwords past 72 bytes hash and stay distinct", func(t *testing.T) {
		long := strings.Repeat("x", 100)
		hash, err := hasher.Hash(long)
		require.NoError(t, err)

		ok, err := hasher.Verify(long, hash)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = hasher.Verify(strings.Repeat("x", 99)+"y", hash)
		require.NoError(t, err)
		assert.False(t, ok, "a shared 72 byte prefix must not match")

		ok, err = hasher.Verify(strings.Repeat("x", 72), hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("long password matches a truncating hash", func(t *testing.T) {
		long := strings.Repeat("z", 90)
		truncated, err := bcrypt.GenerateFromPassword([]byte(long[:72]), bcrypt.MinCost)
		require.NoError(t, err)

		ok, err := hasher.Verify(long, string(truncated))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("non-bcrypt hash is an error", func(t *testing.T) {
		ok, err := hasher.Verify("pw", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA")
		require.Error(t, err)
		assert.False(t, ok)
		errutil.AssertErrorCode(t, err, auth.CodeInvalidHash)
	})

	t.Run("truncated bcrypt hash is an error", func(t *testing.T) {
		ok, err := hasher.Verify("pw", "$2a$04$short")
		require.Error(t, err)
		assert.False(t, ok)
	})

	t.Run("lower cost needs upgrade", func(t *testing.T) {
		hash, err := hasher.Hash("pw")
		require.NoError(t, err)
		assert.False(t, hasher.NeedsUpgrade(hash))
		assert.True(t, auth.NewBcryptHasher(bcrypt.MinCost+1).NeedsUpgrade(hash))
	})

	t.Run("out of range cost uses default", func(t *testing.T) {
		h := auth.NewBcryptHasher(99)
		hash, err := auth.NewBcryptHasher(bcrypt.DefaultCost).Hash("pw")
		require.NoError(t, err)
		assert.False(t, h.NeedsUpgrade(hash))
	})
}

func TestDetectScheme(t *testing.T) {
	tests := []struct {
		hash string
		want auth.Scheme
	}{
		{"$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA", auth.SchemeArgon2id},
		{"$2a$10$abc", auth.SchemeBcrypt},
		{"$2b$12$abc", auth.SchemeBcrypt},
		{"$2y$10$abc", auth.SchemeBcrypt},
		{"$pbkdf2-sha256$29000$abc", auth.SchemeUnknown},
		{"plaintext", auth.SchemeUnknown},
		{"", auth.SchemeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.hash, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.DetectScheme(tt.hash))
		})
	}
}

func TestParseScheme(t *testing.T) {
	s, err := auth.ParseScheme(" Argon2id ")
	require.NoError(t, err)
	assert.Equal(t, auth.SchemeArgon2id, s)

	s, err = auth.ParseScheme("bcrypt")
	require.NoError(t, err)
	assert.Equal(t, auth.SchemeBcrypt, s)

	_, err = auth.ParseScheme("md5")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AUTH_UNKNOWN_SCHEME")
}

func TestSchemeHasher(t *testing.T) {
	hasher, err := auth.NewSchemeHasher(auth.SchemeArgon2id, bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, auth.SchemeArgon2id, hasher.Primary())

	legacy, err := auth.NewBcryptHasher(bcrypt.MinCost).Hash("old-password")
	require.NoError(t, err)

	t.Run("hashes with primary scheme", func(t *testing.T) {
		hash, err := hasher.Hash("pw")
		require.NoError(t, err)
		assert.Equal(t, auth.SchemeArgon2id, auth.DetectScheme(hash))
		assert.False(t, hasher.NeedsUpgrade(hash))
	})

	t.Run("verifies legacy bcrypt and flags it for upgrade", func(t *testing.T) {
		ok, err := hasher.Verify("old-password", legacy)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, hasher.NeedsUpgrade(legacy))
	})

	t.Run("wrong password against legacy hash", func(t *testing.T) {
		ok, err := hasher.Verify("nope", legacy)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown scheme fails without panicking", func(t *testing.T) {
		var ok bool
		assert.NotPanics(t, func() {
			ok, err = hasher.Verify("pw", "$pbkdf2-sha256$29000$abc$def")
		})
		require.Error(t, err)
		assert.False(t, ok)
		errutil.AssertErrorCode(t, err, auth.CodeInvalidHash)
	})

	t.Run("rejects unknown primary", func(t *testing.T) {
		h, err := auth.NewSchemeHasher(auth.Scheme("md5"), 0)
		require.Error(t, err)
		assert.Nil(t, h)
	})
}
