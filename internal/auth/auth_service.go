// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TokenTypeBearer is the token type reported with issued session tokens.
const TokenTypeBearer = "bearer"

// Outcomes reported to a Recorder.
const (
	OutcomeSuccess        = "success"
	OutcomeRejected       = "rejected"
	OutcomeError          = "error"
	OutcomeDeliveryFailed = "delivery_failed"
)

// Recorder receives one event per completed flow.
type Recorder interface {
	RecordAuthEvent(operation, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAuthEvent(string, string) {}

// ServiceConfig holds the dependencies of a Service.
type ServiceConfig struct {
	Users    UserRepository
	Hasher   PasswordHasher
	Tokens   *TokenService
	Notifier Notifier
	Links    *ResetLinkBuilder

	// SessionTTL defaults to DefaultSessionTTL.
	SessionTTL time.Duration
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Recorder is optional.
	Recorder Recorder
}

// Service runs the account flows: register, login, me, forgot-password and reset-password.
type Service struct {
	users      UserRepository
	hasher     PasswordHasher
	tokens     *TokenService
	notifier   Notifier
	links      *ResetLinkBuilder
	sessionTTL time.Duration
	logger     *slog.Logger
	recorder   Recorder
	tracer     trace.Tracer
	timingHash string
}

// NewService creates a Service, validating its dependencies.
func NewService(cfg ServiceConfig) (*Service, error) {
	switch {
	case cfg.Users == nil:
		return nil, oops.Errorf("user repository is required")
	case cfg.Hasher == nil:
		return nil, oops.Errorf("password hasher is required")
	case cfg.Tokens == nil:
		return nil, oops.Errorf("token service is required")
	case cfg.Notifier == nil:
		return nil, oops.Errorf("notifier is required")
	case cfg.Links == nil:
		return nil, oops.Errorf("reset link builder is required")
	case cfg.SessionTTL < 0:
		return nil, oops.With("session_ttl", cfg.SessionTTL).Errorf("session ttl must not be negative")
	}

	s := &Service{
		users:      cfg.Users,
		hasher:     cfg.Hasher,
		tokens:     cfg.Tokens,
		notifier:   cfg.Notifier,
		links:      cfg.Links,
		sessionTTL: cfg.SessionTTL,
		logger:     cfg.Logger,
		recorder:   cfg.Recorder,
		tracer:     otel.Tracer("github.com/mtgvault/mtgvault/internal/auth"),
	}
	if s.sessionTTL == 0 {
		s.sessionTTL = DefaultSessionTTL
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}

	// Unknown emails are verified against this hash so the failed login costs
	// the same as one against a real account. It matches no password.
	timingHash, err := s.hasher.Hash(rand.Text())
	if err != nil {
		return nil, oops.Code("AUTH_TIMING_HASH_FAILED").Wrap(err)
	}
	s.timingHash = timingHash
	return s, nil
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

func (s *Service) record(operation string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeRejected
		if !isClientError(err) {
			outcome = OutcomeError
		}
	}
	s.recorder.RecordAuthEvent(operation, outcome)
}

func isClientError(err error) bool {
	switch ErrorCode(err) {
	case CodeDuplicateAccount, CodeInvalidCredentials, CodeUnauthenticated,
		CodeInvalidOrExpiredToken, CodeNotFound, CodeEmptyPassword, CodeInvalidUser:
		return true
	}
	return false
}

// Register creates an account. It fails with CodeDuplicateAccount when the
// email is taken, including when a concurrent registration wins the race
// and the repository rejects the insert.
func (s *Service) Register(ctx context.Context, email, password string) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Register")
	defer span.End()
	defer func() { s.record("register", err) }()

	_, lookupErr := s.users.GetByEmail(ctx, email)
	switch {
	case lookupErr == nil:
		return oops.Code(CodeDuplicateAccount).With("email", email).Errorf("email already registered")
	case !errors.Is(lookupErr, ErrNotFound):
		return oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "get user by email").
			Wrap(lookupErr)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, ErrEmptyPassword) {
			return err
		}
		return oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(email, hash)
	if err != nil {
		return err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return oops.Code(CodeDuplicateAccount).With("email", email).Errorf("email already registered")
		}
		return oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user registered", "email", email)
	return nil
}

// Login verifies credentials and issues a session token.
// Unknown email and wrong password produce the same CodeInvalidCredentials
// error, and both run a full hash verification.
func (s *Service) Login(ctx context.Context, email, password string) (result *LoginResult, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Login")
	defer span.End()
	defer func() { s.record("login", err) }()

	user, lookupErr := s.users.GetByEmail(ctx, email)

	targetHash := s.timingHash
	userExists := false
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get user by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = user.PasswordHash
		userExists = true
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil && userExists {
		s.logger.WarnContext(ctx, "stored password hash could not be verified",
			"operation", "verify_password",
			"email", email,
			"code", ErrorCode(verifyErr),
		)
	}
	if verifyErr != nil || !userExists || !valid {
		return nil, invalidCredentials()
	}

	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		s.upgradeHash(ctx, user.Email, password)
	}

	issued, err := s.tokens.Issue(user.Email, PurposeSession, s.sessionTTL)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue session token").
			Wrap(err)
	}

	return &LoginResult{
		AccessToken: issued.Value,
		TokenType:   TokenTypeBearer,
		ExpiresAt:   issued.ExpiresAt,
	}, nil
}

// upgradeHash rehashes a verified password with the current scheme.
// Failures are logged; login proceeds regardless.
func (s *Service) upgradeHash(ctx context.Context, email, password string) {
	newHash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.WarnContext(ctx, "best-effort password hash upgrade failed",
			"operation", "upgrade_hash",
			"email", email,
			"error", err,
		)
		return
	}
	if err := s.users.UpdatePassword(ctx, email, newHash); err != nil {
		s.logger.WarnContext(ctx, "best-effort password hash upgrade failed",
			"operation", "update_password",
			"email", email,
			"error", err,
		)
		return
	}
	s.logger.DebugContext(ctx, "password hash upgraded", "email", email)
}

func invalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Errorf("invalid credentials")
}

// Me returns the public identity of an already resolved user.
func (s *Service) Me(user *User) Identity {
	return user.Identity()
}
