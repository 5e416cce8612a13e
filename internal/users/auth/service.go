// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/internal/platform/ctxutil"
	"github.com/taibuivan/sprinto/internal/platform/effect"
	"github.com/taibuivan/sprinto/internal/platform/sec"
	"github.com/taibuivan/sprinto/internal/system/activity"
	"github.com/taibuivan/sprinto/pkg/uuid"
)

// # Contracts & Types

// TokenIssuer mints and verifies signed bearer tokens.
type TokenIssuer interface {
	IssueAccessToken(userID string, role sec.UserRole) (string, error)
	IssueRefreshToken(userID string) (string, error)
	Verify(token string, expected sec.TokenClass) (*sec.AuthClaims, error)
}

// Mailer delivers the out-of-band links. Both calls may fail.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, name, rawToken string) error
	SendPasswordResetEmail(ctx context.Context, to, name, rawToken string) error
}

// EffectRunner schedules work that must not hold up the response.
type EffectRunner interface {
	Go(ctx context.Context, name string, run effect.Func)
}

// ActivityRecorder appends to the workspace audit trail.
type ActivityRecorder interface {
	Record(ctx context.Context, entry activity.Entry)
}

// Session is the credential bundle returned by Register, Login and UpdatePassword.
//
// RefreshToken is empty after UpdatePassword.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	User         *User  `json:"user"`
}

// Stable client-facing messages.
const (
	msgInvalidCredentials = "Invalid credentials"
	msgInvalidRefresh     = "Invalid or expired refresh token"
	msgInvalidVerifyLink  = "Invalid or expired verification link"
	msgInvalidResetLink   = "Invalid or expired reset link"
	msgPasswordTooShort   = "Password must be at least 6 characters"
)

// Service implements the auth session state machine.
type Service struct {
	users       UserRepository
	credentials *CredentialStore
	tokens      TokenIssuer
	mailer      Mailer
	effects     EffectRunner
	activity    ActivityRecorder
	logger      *slog.Logger
}

// NewService wires the auth [Service].
func NewService(
	users UserRepository,
	credentials *CredentialStore,
	tokens TokenIssuer,
	mailer Mailer,
	effects EffectRunner,
	activity ActivityRecorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:       users,
		credentials: credentials,
		tokens:      tokens,
		mailer:      mailer,
		effects:     effects,
		activity:    activity,
		logger:      logger,
	}
}

// # Registration Flow

// RegisterInput holds the fields accepted at signup. A role is never accepted.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

/*
Register creates an account and logs it in.

Description: The account always gets the lowest role. A verification email is
scheduled as a post-commit effect; if it cannot be sent the verification
secret is rolled back so a later resend starts clean. Registration succeeds
either way.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *Session: Tokens and the new account
  - error: Conflict when the email is taken
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*Session, error) {
	email := NormalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)

	_, err := service.users.FindByEmail(context, email)
	if err == nil {
		return nil, apperr.Conflict("Email already registered")
	}
	if !apperr.IsNotFound(err) {
		return nil, err
	}

	hashedPassword, err := service.credentials.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         sec.LowestRole,
		Avatar:       Initials(name),
		Color:        DefaultColor,
		IsActive:     true,
	}

	if err := service.users.Create(context, user); err != nil {
		return nil, err
	}

	service.scheduleVerification(context, user)

	service.activity.Record(context, activity.Entry{
		UserID:     user.ID,
		Action:     "Joined the workspace",
		Target:     user.Name,
		TargetType: activity.TargetUser,
	})

	ctxutil.GetLogger(context).InfoContext(context, "auth_user_registered", slog.String("user_id", user.ID))
	return service.openSession(context, user)
}

// scheduleVerification issues a verification secret and mails it off the
// request path, revoking the secret when delivery fails.
func (service *Service) scheduleVerification(context context.Context, user *User) {
	raw, err := service.credentials.IssueVerificationSecret(context, user.ID)
	if err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "auth_verification_issue_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return
	}

	to, name, userID := user.Email, user.Name, user.ID
	service.effects.Go(context, "verification_email", func(ctx context.Context) error {
		if err := service.mailer.SendVerificationEmail(ctx, to, name, raw); err != nil {
			if revokeErr := service.credentials.RevokeVerificationSecret(ctx, userID, raw); revokeErr != nil {
				return fmt.Errorf("send: %w; rollback: %w", err, revokeErr)
			}
			return err
		}
		return nil
	})
}

// # Authentication Flow

/*
Login exchanges email and password for a fresh session.

Unknown email, deactivated account and wrong password fail identically, and
all three pay for one bcrypt comparison.

Returns:
  - *Session: Tokens and the account
  - error: Unauthorized "Invalid credentials"
*/
func (service *Service) Login(context context.Context, email, password string) (*Session, error) {
	user, err := service.users.FindByEmail(context, NormalizeEmail(email))
	if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}

	matched := service.credentials.VerifyPassword(user, password)
	if user == nil || !matched || !user.IsActive {
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}

	ctxutil.GetLogger(context).InfoContext(context, "auth_login_succeeded", slog.String("user_id", user.ID))
	return service.openSession(context, user)
}

// openSession issues a token pair and makes the refresh token the one on file.
func (service *Service) openSession(context context.Context, user *User) (*Session, error) {
	session, err := service.issuePair(user)
	if err != nil {
		return nil, err
	}

	if err := service.credentials.StoreRefreshToken(context, user.ID, session.RefreshToken); err != nil {
		return nil, fmt.Errorf("auth_service_store_refresh_failed: %w", err)
	}
	return session, nil
}

func (service *Service) issuePair(user *User) (*Session, error) {
	accessToken, err := service.tokens.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	refreshToken, err := service.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	return &Session{AccessToken: accessToken, RefreshToken: refreshToken, User: user}, nil
}

/*
Refresh trades a refresh token for a new access token.

The refresh token is not rotated. It must verify as a refresh-class token,
match the digest on file, and belong to an active account.

Returns:
  - string: A new access token
  - error: Unauthorized on any mismatch
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (string, error) {
	claims, err := service.tokens.Verify(refreshToken, sec.ClassRefresh)
	if err != nil {
		return "", apperr.Unauthorized(msgInvalidRefresh)
	}

	user, err := service.users.FindByID(context, claims.UserID)
	if apperr.IsNotFound(err) {
		return "", apperr.Unauthorized(msgInvalidRefresh)
	}
	if err != nil {
		return "", err
	}

	if !user.IsActive || !service.credentials.MatchesRefreshToken(user, refreshToken) {
		return "", apperr.Unauthorized(msgInvalidRefresh)
	}

	accessToken, err := service.tokens.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return "", fmt.Errorf("auth_service_access_token_failed: %w", err)
	}
	return accessToken, nil
}

// Logout revokes the refresh token of userID. Repeated calls succeed.
func (service *Service) Logout(context context.Context, userID string) error {
	if err := service.credentials.ClearRefreshToken(context, userID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}
	return nil
}

// Me returns the account behind userID.
func (service *Service) Me(context context.Context, userID string) (*User, error) {
	return service.users.FindByID(context, userID)
}

// ResolveIdentity reports the live role and active flag used by the
// authentication middleware.
func (service *Service) ResolveIdentity(context context.Context, userID string) (sec.UserRole, bool, error) {
	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return "", false, err
	}
	return user.Role, user.IsActive, nil
}

// # Email Verification

// VerifyEmail consumes a verification link token.
func (service *Service) VerifyEmail(context context.Context, rawToken string) error {
	if rawToken == "" {
		return apperr.BadRequest(msgInvalidVerifyLink)
	}

	user, err := service.credentials.ConsumeVerificationSecret(context, rawToken)
	if apperr.IsNotFound(err) {
		return apperr.BadRequest(msgInvalidVerifyLink)
	}
	if err != nil {
		return err
	}

	ctxutil.GetLogger(context).InfoContext(context, "auth_email_verified", slog.String("user_id", user.ID))
	return nil
}

/*
ResendVerification issues a new verification link for email.

Returns:
  - error: NotFound for unknown accounts, BadRequest when already verified
*/
func (service *Service) ResendVerification(context context.Context, email string) error {
	user, err := service.users.FindByEmail(context, NormalizeEmail(email))
	if apperr.IsNotFound(err) {
		return apperr.NotFound("Account")
	}
	if err != nil {
		return err
	}

	if user.IsEmailVerified {
		return apperr.BadRequest("Email is already verified")
	}

	service.scheduleVerification(context, user)
	return nil
}

// # Password Recovery

/*
ForgotPassword emails a reset link when the account exists.

Description: Unknown emails return nil so the caller answers uniformly. The
send is awaited; on failure the reset secret is rolled back and an Internal
error surfaces.

Returns:
  - error: Internal "Email could not be sent" or storage failures
*/
func (service *Service) ForgotPassword(context context.Context, email string) error {
	user, err := service.users.FindByEmail(context, NormalizeEmail(email))
	if apperr.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	raw, err := service.credentials.IssueResetSecret(context, user.ID)
	if err != nil {
		return fmt.Errorf("auth_service_issue_reset_failed: %w", err)
	}

	if err := service.mailer.SendPasswordResetEmail(context, user.Email, user.Name, raw); err != nil {
		if revokeErr := service.credentials.RevokeResetSecret(ctxutil.Detach(context), user.ID, raw); revokeErr != nil {
			ctxutil.GetLogger(context).ErrorContext(context, "auth_reset_rollback_failed",
				slog.String("user_id", user.ID),
				slog.Any("error", revokeErr),
			)
		}
		return apperr.InternalMessage("Email could not be sent", err)
	}
	return nil
}

// ResetPassword sets a new password from a reset link and signs out every device.
func (service *Service) ResetPassword(context context.Context, rawToken, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return apperr.BadRequest(msgPasswordTooShort)
	}
	if rawToken == "" {
		return apperr.BadRequest(msgInvalidResetLink)
	}

	user, err := service.credentials.ConsumeResetSecret(context, rawToken, newPassword)
	if apperr.IsNotFound(err) {
		return apperr.BadRequest(msgInvalidResetLink)
	}
	if err != nil {
		return err
	}

	ctxutil.GetLogger(context).InfoContext(context, "auth_password_reset", slog.String("user_id", user.ID))
	return nil
}

/*
UpdatePassword changes the password of a signed-in account.

Description: The refresh token on file is kept, so other devices stay signed
in and the caller keeps renewing with the refresh token it already holds.
Only a new access token is minted.

Returns:
  - *Session: A new access token and the account, with no refresh token
  - error: BadRequest when currentPassword is wrong or newPassword too short
*/
func (service *Service) UpdatePassword(context context.Context, userID, currentPassword, newPassword string) (*Session, error) {
	if len(newPassword) < MinPasswordLength {
		return nil, apperr.BadRequest(msgPasswordTooShort)
	}

	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	if !service.credentials.VerifyPassword(user, currentPassword) {
		return nil, apperr.BadRequest("Current password is incorrect")
	}

	if err := service.credentials.ChangePassword(context, user.ID, newPassword); err != nil {
		return nil, fmt.Errorf("auth_service_change_password_failed: %w", err)
	}

	accessToken, err := service.tokens.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "auth_password_changed", slog.String("user_id", user.ID))
	return &Session{AccessToken: accessToken, User: user}, nil
}
