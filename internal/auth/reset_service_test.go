// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package auth_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mtgvault/mtgvault/internal/auth"
	"github.com/mtgvault/mtgvault/pkg/errutil"
)

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestService_ForgotPassword(t *testing.T) {
	ctx := context.Background()
	user := &auth.User{Email: "a@x.com", PasswordHash: "hash"}

	t.Run("sends reset link with 30 minute token", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)

		var notice auth.ResetNotice
		f.notifier.On("SendPasswordReset", mock.Anything, mock.AnythingOfType("auth.ResetNotice")).
			Run(func(args mock.Arguments) { notice = args.Get(1).(auth.ResetNotice) }).
			Return(nil)

		require.NoError(t, f.svc.ForgotPassword(ctx, "a@x.com"))

		assert.Equal(t, "a@x.com", notice.Email)
		assert.True(t, strings.HasPrefix(notice.Link, resetBase+"?token="))
		assert.Equal(t, f.clock.now.Add(30*time.Minute), notice.ExpiresAt)

		v := f.tokens.Verify(tokenFromLink(t, notice.Link), auth.PurposeReset)
		require.True(t, v.Valid(), "reason: %s", v.Reason)
		assert.Equal(t, "a@x.com", v.Subject)
		assert.Equal(t, []authEvent{{"forgot_password", auth.OutcomeSuccess}}, f.recorder.events)
	})

	t.Run("unknown email is not found", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByEmail", mock.Anything, "ghost@x.com").Return(nil, auth.ErrNotFound)

		err := f.svc.ForgotPassword(ctx, "ghost@x.com")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeNotFound)
	})

	t.Run("delivery failure still succeeds", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)
		f.notifier.On("SendPasswordReset", mock.Anything, mock.Anything).Return(errors.New("smtp unavailable"))

		require.NoError(t, f.svc.ForgotPassword(ctx, "a@x.com"))
		assert.Equal(t, []authEvent{
			{"reset_notice", auth.OutcomeDeliveryFailed},
			{"forgot_password", auth.OutcomeSuccess},
		}, f.recorder.events)
	})

	t.Run("lookup failure", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, errors.New("connection reset"))

		err := f.svc.ForgotPassword(ctx, "a@x.com")
		errutil.AssertErrorCode(t, err, "RESET_REQUEST_FAILED")
	})
}

func TestService_ResetPassword(t *testing.T) {
	ctx := context.Background()
	user := &auth.User{Email: "a@x.com", PasswordHash: "old-hash"}

	issueReset := func(t *testing.T, f *serviceFixture) string {
		t.Helper()
		issued, err := f.tokens.Issue("a@x.com", auth.PurposeReset, auth.ResetTokenTTL)
		require.NoError(t, err)
		return issued.Value
	}

	t.Run("replaces stored hash", func(t *testing.T) {
		f := newServiceFixture(t)
		token := issueReset(t, f)
		f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)
		f.hasher.On("Hash", "pw2").Return("new-hash", nil)
		f.users.On("UpdatePassword", mock.Anything, "a@x.com", "new-hash").Return(nil)

		require.NoError(t, f.svc.ResetPassword(ctx, token, "pw2"))
	})

	t.Run("expired token leaves hash untouched", func(t *testing.T) {
		f := newServiceFixture(t)
		token := issueReset(t, f)
		f.clock.Advance(auth.ResetTokenTTL)

		err := f.svc.ResetPassword(ctx, token, "pw2")
		errutil.AssertErrorCode(t, err, auth.CodeInvalidOrExpiredToken)
		f.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("valid one second before expiry", func(t *testing.T) {
		f := newServiceFixture(t)
		token := issueReset(t, f)
		f.clock.Advance(auth.ResetTokenTTL - time.Second)
		f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)
		f.hasher.On("Hash", "pw2").Return("new-hash", nil)
		f.users.On("UpdatePassword", mock.Anything, "a@x.com", "new-hash").Return(nil)

		require.NoError(t, f.svc.ResetPassword(ctx, token, "pw2"))
	})

	t.Run("session token is rejected", func(t *testing.T) {
		f := newServiceFixture(t)
		session, err := f.tokens.Issue("a@x.com", auth.PurposeSession, time.Hour)
		require.NoError(t, err)

		err = f.svc.ResetPassword(ctx, session.Value, "pw2")
		errutil.AssertErrorCode(t, err, auth.CodeInvalidOrExpiredToken)
		errutil.AssertErrorContext(t, err, "reason", auth.ReasonPurpose)
	})

	t.Run("garbage token", func(t *testing.T) {
		f := newServiceFixture(t)
		err := f.svc.ResetPassword(ctx, "garbage", "pw2")
		errutil.AssertErrorCode(t, err, auth.CodeInvalidOrExpiredToken)
		assert.Equal(t, []authEvent{{"reset_password", auth.OutcomeRejected}}, f.recorder.events)
	})

	t.Run("deleted user is not found", func(t *testing.T) {
		f := newServiceFixture(t)
		token := issueReset(t, f)
		f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, auth.ErrNotFound)

		err := f.svc.ResetPassword(ctx, token, "pw2")
		errutil.AssertErrorCode(t, err, auth.CodeNotFound)
	})

	t.Run("user removed before update is not found", func(t *testing.T) {
		f := newServiceFixture(t)
		token := issueReset(t, f)
		f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)
		f.hasher.On("Hash", "pw2").Return("new-hash", nil)
		f.users.On("UpdatePassword", mock.Anything, "a@x.com", "new-hash").Return(auth.ErrNotFound)

		err := f.svc.ResetPassword(ctx, token, "pw2")
		errutil.AssertErrorCode(t, err, auth.CodeNotFound)
	})

	t.Run("empty new password", func(t *testing.T) {
		f := newServiceFixture(t)
		token := issueReset(t, f)
		f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)
		f.hasher.On("Hash", "").Return("", auth.ErrEmptyPassword)

		err := f.svc.ResetPassword(ctx, token, "")
		errutil.AssertErrorCode(t, err, auth.CodeEmptyPassword)
	})

	t.Run("update failure", func(t *testing.T) {
		f := newServiceFixture(t)
		token := issueReset(t, f)
		f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)
		f.hasher.On("Hash", "pw2").Return("new-hash", nil)
		f.users.On("UpdatePassword", mock.Anything, "a@x.com", "new-hash").Return(errors.New("read-only replica"))

		err := f.svc.ResetPassword(ctx, token, "pw2")
		errutil.AssertErrorCode(t, err, "RESET_PASSWORD_FAILED")
		errutil.AssertErrorContext(t, err, "operation", "update password")
	})

	t.Run("token stays usable until expiry", func(t *testing.T) {
		f := newServiceFixture(t)
		token := issueReset(t, f)
		f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)
		f.hasher.On("Hash", mock.Anything).Return("new-hash", nil)
		f.users.On("UpdatePassword", mock.Anything, "a@x.com", "new-hash").Return(nil)

		require.NoError(t, f.svc.ResetPassword(ctx, token, "pw2"))
		require.NoError(t, f.svc.ResetPassword(ctx, token, "pw3"))
	})
}
