// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Token lifetimes.
const (
	// DefaultSessionTTL is the session token lifetime when none is configured.
	DefaultSessionTTL = 60 * time.Minute

	// ResetTokenTTL is the fixed lifetime of password reset tokens.
	ResetTokenTTL = 30 * time.Minute
)

// DefaultAlgorithm is the signing algorithm used when none is configured.
const DefaultAlgorithm = "HS256"

// Purpose scopes a token to the flow that accepts it.
type Purpose string

// Token purposes.
const (
	PurposeSession Purpose = "session"
	PurposeReset   Purpose = "reset"
)

// Verification failure reasons. They are for logs only and never reach clients.
const (
	ReasonMalformed = "malformed"
	ReasonSignature = "signature"
	ReasonExpired   = "expired"
	ReasonClaims    = "claims"
	ReasonPurpose   = "purpose"
)

var signingMethods = map[string]*jwt.SigningMethodHMAC{
	"HS256": jwt.SigningMethodHS256,
	"HS384": jwt.SigningMethodHS384,
	"HS512": jwt.SigningMethodHS512,
}

// Claims is the signed token payload.
type Claims struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenConfig configures a TokenService.
type TokenConfig struct {
	Secret    []byte
	Algorithm string
	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// IssuedToken is a freshly signed token.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Verification is the outcome of TokenService.Verify.
type Verification struct {
	Subject   string
	ExpiresAt time.Time
	Reason    string
}

// Valid reports whether the token was accepted.
func (v Verification) Valid() bool {
	return v.Reason == "" && v.Subject != ""
}

// TokenService issues and verifies HMAC-signed JWT bearer tokens.
// It is immutable after construction and safe for concurrent use.
type TokenService struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	now    func() time.Time
}

// NewTokenService creates a TokenService.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").Errorf("token secret is required")
	}
	alg := cfg.Algorithm
	if alg == "" {
		alg = DefaultAlgorithm
	}
	method, ok := signingMethods[alg]
	if !ok {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").With("algorithm", alg).Errorf("unsupported signing algorithm %q", alg)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	return &TokenService{secret: secret, method: method, now: now}, nil
}

// Algorithm returns the configured signing algorithm.
func (s *TokenService) Algorithm() string {
	return s.method.Alg()
}

// Issue signs a token for subject that expires ttl from now.
// Expiry has second precision and is rounded down.
func (s *TokenService) Issue(subject string, purpose Purpose, ttl time.Duration) (IssuedToken, error) {
	if subject == "" {
		return IssuedToken{}, oops.Code("TOKEN_ISSUE_FAILED").Errorf("subject is required")
	}
	if ttl <= 0 {
		return IssuedToken{}, oops.Code("TOKEN_ISSUE_FAILED").With("ttl", ttl).Errorf("ttl must be positive")
	}

	now := s.now()
	expiresAt := jwt.NewNumericDate(now.Add(ttl))
	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: expiresAt,
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        ulid.Make().String(),
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return IssuedToken{}, oops.Code("TOKEN_ISSUE_FAILED").With("algorithm", s.method.Alg()).Wrap(err)
	}
	return IssuedToken{Value: signed, ExpiresAt: expiresAt.Time.UTC()}, nil
}

// Verify checks signature, algorithm, expiry and purpose. A token is valid
// strictly before its expiry instant. Verify never fails loudly; a rejected
// token yields a Verification with a non-empty Reason.
func (s *TokenService) Verify(token string, purpose Purpose) Verification {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Verification{Reason: reasonFor(err)}
	}
	if claims.Subject == "" {
		return Verification{Reason: ReasonClaims}
	}
	if claims.Purpose != purpose {
		return Verification{Reason: ReasonPurpose}
	}
	return Verification{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt.Time.UTC()}
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonSignature
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing), errors.Is(err, jwt.ErrTokenInvalidClaims):
		return ReasonClaims
	default:
		return ReasonMalformed
	}
}
