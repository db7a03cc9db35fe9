// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// ForgotPassword issues a reset token for email and hands the reset link to
// the notifier.
//
// Unlike Login, an unknown email fails with CodeNotFound. Delivery is best
// effort: a notifier failure is logged and the call still succeeds.
func (s *Service) ForgotPassword(ctx context.Context, email string) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.ForgotPassword")
	defer span.End()
	defer func() { s.record("forgot_password", err) }()

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code(CodeNotFound).With("email", email).Errorf("user not found")
		}
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	issued, err := s.tokens.Issue(user.Email, PurposeReset, ResetTokenTTL)
	if err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "issue reset token").
			Wrap(err)
	}

	notice := ResetNotice{
		Email:     user.Email,
		Link:      s.links.Build(issued.Value),
		ExpiresAt: issued.ExpiresAt,
	}
	if sendErr := s.notifier.SendPasswordReset(ctx, notice); sendErr != nil {
		s.logger.WarnContext(ctx, "best-effort password reset delivery failed",
			"operation", "send_reset_notice",
			"email", user.Email,
			"code", ErrorCode(sendErr),
			"error", sendErr,
		)
		s.recorder.RecordAuthEvent("reset_notice", OutcomeDeliveryFailed)
		return nil
	}

	s.logger.InfoContext(ctx, "password reset requested", "email", user.Email)
	return nil
}

// ResetPassword replaces the password of the user named by a reset token.
// Any token failure, including a session token presented here, yields
// CodeInvalidOrExpiredToken and leaves the stored hash untouched.
// Tokens issued before the reset remain valid.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.ResetPassword")
	defer span.End()
	defer func() { s.record("reset_password", err) }()

	v := s.tokens.Verify(token, PurposeReset)
	if !v.Valid() {
		return oops.Code(CodeInvalidOrExpiredToken).With("reason", v.Reason).Errorf("invalid or expired token")
	}

	user, err := s.users.GetByEmail(ctx, v.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code(CodeNotFound).With("email", v.Subject).Errorf("user not found")
		}
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		if errors.Is(err, ErrEmptyPassword) {
			return err
		}
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	if err := s.users.UpdatePassword(ctx, user.Email, hash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code(CodeNotFound).With("email", user.Email).Errorf("user not found")
		}
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "update password").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "password reset completed", "email", user.Email)
	return nil
}
