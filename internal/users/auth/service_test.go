// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/internal/platform/sec"
	"github.com/taibuivan/sprinto/internal/system/activity"
	"github.com/taibuivan/sprinto/internal/users/auth"
)

func requireAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	appErr := apperr.As(err)
	require.NotNil(t, appErr, "expected an AppError, got %v", err)
	assert.Equal(t, status, appErr.HTTPStatus)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

// # Registration

/*
TestRegister_CreatesPendingAccount verifies the account shape, the
verification email and the activity entry.
*/
func TestRegister_CreatesPendingAccount(t *testing.T) {
	fx := newFixture(t)

	session := fx.register(t, "Ana Lopez", " Ana@X.com ", "secret1")

	require.NotEmpty(t, session.AccessToken)
	require.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, sec.RoleUser, session.User.Role)
	assert.Equal(t, "ana@x.com", session.User.Email)
	assert.Equal(t, "AL", session.User.Avatar)
	assert.Equal(t, auth.DefaultColor, session.User.Color)
	assert.False(t, session.User.IsEmailVerified)

	stored := fx.users.get(session.User.ID)
	require.NotNil(t, stored.RefreshTokenHash)
	assert.Equal(t, sec.HashToken(session.RefreshToken), *stored.RefreshTokenHash)
	require.NotNil(t, stored.EmailVerifyTokenHash)
	assert.Equal(t, sec.HashToken(fx.mailer.verifyToken), *stored.EmailVerifyTokenHash)
	assert.NotEqual(t, "secret1", stored.PasswordHash)

	require.Len(t, fx.activity.entries, 1)
	assert.Equal(t, "Joined the workspace", fx.activity.entries[0].Action)
	assert.Equal(t, activity.TargetUser, fx.activity.entries[0].TargetType)
}

/*
TestRegister_DuplicateEmail verifies the conflict maps to HTTP 400.
*/
func TestRegister_DuplicateEmail(t *testing.T) {
	fx := newFixture(t)
	fx.register(t, "Ana", "ana@x.com", "secret1")

	_, err := fx.service.Register(context.Background(), auth.RegisterInput{Name: "Other", Email: "ANA@x.com", Password: "secret2"})
	requireAppError(t, err, http.StatusBadRequest, "Email already registered")
}

/*
TestRegister_EmailFailureRollsBack verifies a failed send leaves no dangling
secret while registration still succeeds.
*/
func TestRegister_EmailFailureRollsBack(t *testing.T) {
	fx := newFixture(t)
	fx.mailer.err = errors.New("smtp down")

	session := fx.register(t, "Ana", "ana@x.com", "secret1")

	stored := fx.users.get(session.User.ID)
	assert.Nil(t, stored.EmailVerifyTokenHash)
	assert.Nil(t, stored.EmailVerifyExpiresAt)
	assert.Len(t, fx.runner.failures, 1)
}

// # Login & Refresh

/*
TestLogin_UniformFailures verifies unknown, wrong-password and deactivated
attempts are indistinguishable.
*/
func TestLogin_UniformFailures(t *testing.T) {
	fx := newFixture(t)
	active := fx.register(t, "Ana", "ana@x.com", "secret1")
	inactive := fx.register(t, "Bo", "bo@x.com", "secret1")
	fx.users.update(inactive.User.ID, func(user *auth.User) { user.IsActive = false })

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown_email", "ghost@x.com", "secret1"},
		{"wrong_password", "ana@x.com", "nope"},
		{"deactivated", "bo@x.com", "secret1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.service.Login(context.Background(), tt.email, tt.password)
			requireAppError(t, err, http.StatusUnauthorized, "Invalid credentials")
		})
	}

	session, err := fx.service.Login(context.Background(), "ana@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, active.User.ID, session.User.ID)
}

/*
TestLoginThenRefresh verifies a fresh refresh token yields a valid access token.
*/
func TestLoginThenRefresh(t *testing.T) {
	fx := newFixture(t)
	fx.register(t, "Ana", "ana@x.com", "secret1")

	session, err := fx.service.Login(context.Background(), "ana@x.com", "secret1")
	require.NoError(t, err)

	accessToken, err := fx.service.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err)

	claims, err := fx.tokens.Verify(accessToken, sec.ClassAccess)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)
}

/*
TestRefresh_Rejections verifies each reason a refresh token is refused.
*/
func TestRefresh_Rejections(t *testing.T) {
	t.Run("access_token_presented", func(t *testing.T) {
		fx := newFixture(t)
		session := fx.register(t, "Ana", "ana@x.com", "secret1")

		_, err := fx.service.Refresh(context.Background(), session.AccessToken)
		requireAppError(t, err, http.StatusUnauthorized, "Invalid or expired refresh token")
	})

	t.Run("after_logout", func(t *testing.T) {
		fx := newFixture(t)
		session := fx.register(t, "Ana", "ana@x.com", "secret1")
		require.NoError(t, fx.service.Logout(context.Background(), session.User.ID))

		_, err := fx.service.Refresh(context.Background(), session.RefreshToken)
		requireAppError(t, err, http.StatusUnauthorized, "")
	})

	t.Run("deactivated", func(t *testing.T) {
		fx := newFixture(t)
		session := fx.register(t, "Ana", "ana@x.com", "secret1")
		fx.users.update(session.User.ID, func(user *auth.User) { user.IsActive = false })

		_, err := fx.service.Refresh(context.Background(), session.RefreshToken)
		requireAppError(t, err, http.StatusUnauthorized, "")
	})

	t.Run("superseded_by_new_login", func(t *testing.T) {
		fx := newFixture(t)
		first := fx.register(t, "Ana", "ana@x.com", "secret1")

		second, err := fx.service.Login(context.Background(), "ana@x.com", "secret1")
		require.NoError(t, err)

		_, err = fx.service.Refresh(context.Background(), first.RefreshToken)
		requireAppError(t, err, http.StatusUnauthorized, "")

		_, err = fx.service.Refresh(context.Background(), second.RefreshToken)
		require.NoError(t, err)
	})
}

/*
TestLogout_Idempotent verifies a second logout succeeds and keeps the digest absent.
*/
func TestLogout_Idempotent(t *testing.T) {
	fx := newFixture(t)
	session := fx.register(t, "Ana", "ana@x.com", "secret1")

	require.NoError(t, fx.service.Logout(context.Background(), session.User.ID))
	assert.Nil(t, fx.users.get(session.User.ID).RefreshTokenHash)

	require.NoError(t, fx.service.Logout(context.Background(), session.User.ID))
	assert.Nil(t, fx.users.get(session.User.ID).RefreshTokenHash)
}

// # One-time Secrets

/*
TestVerifyEmail_ExpiryBoundary verifies a secret is accepted strictly before
its expiry and rejected at it.
*/
func TestVerifyEmail_ExpiryBoundary(t *testing.T) {
	tests := []struct {
		name    string
		advance time.Duration
		wantErr bool
	}{
		{"just_before", auth.VerificationTTL - time.Nanosecond, false},
		{"exactly_at", auth.VerificationTTL, true},
		{"after", auth.VerificationTTL + time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			session := fx.register(t, "Ana", "ana@x.com", "secret1")
			fx.now = fx.now.Add(tt.advance)

			err := fx.service.VerifyEmail(context.Background(), fx.mailer.verifyToken)
			if tt.wantErr {
				requireAppError(t, err, http.StatusBadRequest, "Invalid or expired verification link")
				assert.False(t, fx.users.get(session.User.ID).IsEmailVerified)
				return
			}

			require.NoError(t, err)
			stored := fx.users.get(session.User.ID)
			assert.True(t, stored.IsEmailVerified)
			assert.Nil(t, stored.EmailVerifyTokenHash)

			// Single use.
			err = fx.service.VerifyEmail(context.Background(), fx.mailer.verifyToken)
			requireAppError(t, err, http.StatusBadRequest, "Invalid or expired verification link")
		})
	}
}

/*
TestResendVerification verifies the lookup errors and the regenerated secret.
*/
func TestResendVerification(t *testing.T) {
	fx := newFixture(t)
	session := fx.register(t, "Ana", "ana@x.com", "secret1")
	first := fx.mailer.verifyToken

	require.NoError(t, fx.service.ResendVerification(context.Background(), "ana@x.com"))
	assert.NotEqual(t, first, fx.mailer.verifyToken)

	// The first link was overwritten.
	requireAppError(t, fx.service.VerifyEmail(context.Background(), first), http.StatusBadRequest, "")
	require.NoError(t, fx.service.VerifyEmail(context.Background(), fx.mailer.verifyToken))

	requireAppError(t, fx.service.ResendVerification(context.Background(), "ana@x.com"), http.StatusBadRequest, "Email is already verified")
	requireAppError(t, fx.service.ResendVerification(context.Background(), "ghost@x.com"), http.StatusNotFound, "")
	assert.True(t, fx.users.get(session.User.ID).IsEmailVerified)
}

/*
TestResetPassword_InvalidatesSessions verifies a reset enables the new
password and kills the old refresh token.
*/
func TestResetPassword_InvalidatesSessions(t *testing.T) {
	fx := newFixture(t)
	session := fx.register(t, "Ana", "ana@x.com", "secret1")

	require.NoError(t, fx.service.ForgotPassword(context.Background(), "ana@x.com"))
	require.NotEmpty(t, fx.mailer.resetToken)

	require.NoError(t, fx.service.ResetPassword(context.Background(), fx.mailer.resetToken, "newsecret"))

	_, err := fx.service.Refresh(context.Background(), session.RefreshToken)
	requireAppError(t, err, http.StatusUnauthorized, "")

	_, err = fx.service.Login(context.Background(), "ana@x.com", "secret1")
	requireAppError(t, err, http.StatusUnauthorized, "")

	_, err = fx.service.Login(context.Background(), "ana@x.com", "newsecret")
	require.NoError(t, err)

	// The link is single use.
	err = fx.service.ResetPassword(context.Background(), fx.mailer.resetToken, "another1")
	requireAppError(t, err, http.StatusBadRequest, "Invalid or expired reset link")
}

/*
TestResetPassword_Rejections verifies the password policy and the expiry boundary.
*/
func TestResetPassword_Rejections(t *testing.T) {
	fx := newFixture(t)
	fx.register(t, "Ana", "ana@x.com", "secret1")
	require.NoError(t, fx.service.ForgotPassword(context.Background(), "ana@x.com"))

	err := fx.service.ResetPassword(context.Background(), fx.mailer.resetToken, "short")
	requireAppError(t, err, http.StatusBadRequest, "Password must be at least 6 characters")

	fx.now = fx.now.Add(auth.ResetTTL)
	err = fx.service.ResetPassword(context.Background(), fx.mailer.resetToken, "longenough")
	requireAppError(t, err, http.StatusBadRequest, "Invalid or expired reset link")

	err = fx.service.ResetPassword(context.Background(), "unknown", "longenough")
	requireAppError(t, err, http.StatusBadRequest, "Invalid or expired reset link")
}

/*
TestForgotPassword_SendFailure verifies the reset secret is rolled back and
an internal error surfaces.
*/
func TestForgotPassword_SendFailure(t *testing.T) {
	fx := newFixture(t)
	session := fx.register(t, "Ana", "ana@x.com", "secret1")
	fx.mailer.err = errors.New("smtp down")

	err := fx.service.ForgotPassword(context.Background(), "ana@x.com")
	requireAppError(t, err, http.StatusInternalServerError, "Email could not be sent")

	stored := fx.users.get(session.User.ID)
	assert.Nil(t, stored.PasswordResetTokenHash)
	assert.Nil(t, stored.PasswordResetExpiresAt)

	// Unknown emails never reach the mailer.
	sent := fx.mailer.sent
	require.NoError(t, fx.service.ForgotPassword(context.Background(), "ghost@x.com"))
	assert.Equal(t, sent, fx.mailer.sent)
}

// # Password Change

/*
TestUpdatePassword_KeepsSessions verifies the old refresh token survives a
password change but not a reset.
*/
func TestUpdatePassword_KeepsSessions(t *testing.T) {
	fx := newFixture(t)
	session := fx.register(t, "Ana", "ana@x.com", "secret1")

	_, err := fx.service.UpdatePassword(context.Background(), session.User.ID, "wrong", "newsecret")
	requireAppError(t, err, http.StatusBadRequest, "Current password is incorrect")

	updated, err := fx.service.UpdatePassword(context.Background(), session.User.ID, "secret1", "newsecret")
	require.NoError(t, err)
	assert.NotEmpty(t, updated.AccessToken)
	assert.Empty(t, updated.RefreshToken, "no refresh token is handed out that is not on file")

	claims, err := fx.tokens.Verify(updated.AccessToken, sec.ClassAccess)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)

	_, err = fx.service.Refresh(context.Background(), updated.RefreshToken)
	requireAppError(t, err, http.StatusUnauthorized, "")

	_, err = fx.service.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err, "update must keep the refresh token on file")

	_, err = fx.service.Login(context.Background(), "ana@x.com", "newsecret")
	require.NoError(t, err)

	// Same starting state, but through a reset.
	fx2 := newFixture(t)
	before := fx2.register(t, "Bo", "bo@x.com", "secret1")
	require.NoError(t, fx2.service.ForgotPassword(context.Background(), "bo@x.com"))
	require.NoError(t, fx2.service.ResetPassword(context.Background(), fx2.mailer.resetToken, "newsecret"))

	_, err = fx2.service.Refresh(context.Background(), before.RefreshToken)
	requireAppError(t, err, http.StatusUnauthorized, "")
}

/*
TestResolveIdentity verifies the middleware lookup reports live state.
*/
func TestResolveIdentity(t *testing.T) {
	fx := newFixture(t)
	session := fx.register(t, "Ana", "ana@x.com", "secret1")
	fx.users.update(session.User.ID, func(user *auth.User) { user.Role = sec.RoleManager })

	role, active, err := fx.service.ResolveIdentity(context.Background(), session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, sec.RoleManager, role)
	assert.True(t, active)

	_, _, err = fx.service.ResolveIdentity(context.Background(), "missing")
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestInitials verifies avatar derivation.
*/
func TestInitials(t *testing.T) {
	assert.Equal(t, "AL", auth.Initials("ana lopez garcia"))
	assert.Equal(t, "A", auth.Initials("ana"))
	assert.Equal(t, "", auth.Initials("  "))
	assert.Equal(t, "ÉB", auth.Initials("élodie bernard"))
}
