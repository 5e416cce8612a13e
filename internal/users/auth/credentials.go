// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/internal/platform/sec"
)

// # Credential Store

/*
CredentialStore is the single authority on whether a presented secret is valid.

It hashes passwords with bcrypt and keeps only SHA-256 digests of refresh,
verification and reset tokens. Raw values leave this type exactly once, when
they are issued.
*/
type CredentialStore struct {
	users UserRepository
	cost  int
	now   func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewCredentialStore builds a store over users using [sec.PasswordCost].
func NewCredentialStore(users UserRepository) *CredentialStore {
	return &CredentialStore{users: users, cost: sec.PasswordCost, now: time.Now}
}

// WithCost overrides the bcrypt cost. Tests use the minimum.
func (store *CredentialStore) WithCost(cost int) *CredentialStore {
	store.cost = cost
	return store
}

// WithClock overrides the time source used for secret expiry.
func (store *CredentialStore) WithClock(now func() time.Time) *CredentialStore {
	store.now = now
	return store
}

// HashPassword hashes plain with the configured cost.
func (store *CredentialStore) HashPassword(plain string) (string, error) {
	hash, err := sec.HashPassword(plain, store.cost)
	if errors.Is(err, sec.ErrPasswordTooLong) {
		return "", apperr.BadRequest("Password must be at most 72 bytes")
	}
	if err != nil {
		return "", fmt.Errorf("credential_store_hash_failed: %w", err)
	}
	return hash, nil
}

/*
VerifyPassword reports whether candidate matches the account password.

A nil user is compared against a fixed dummy hash so that unknown emails cost
the same bcrypt work as known ones.
*/
func (store *CredentialStore) VerifyPassword(user *User, candidate string) bool {
	if user == nil {
		store.dummyOnce.Do(func() {
			store.dummyHash, _ = sec.HashPassword("sprinto-timing-equalizer", store.cost)
		})
		sec.PasswordMatches(store.dummyHash, candidate)
		return false
	}
	return sec.PasswordMatches(user.PasswordHash, candidate)
}

// SetPassword re-hashes the password and invalidates the refresh token.
func (store *CredentialStore) SetPassword(context context.Context, userID, plain string) error {
	return store.setPassword(context, userID, plain, true)
}

// ChangePassword re-hashes the password and keeps the current refresh token.
func (store *CredentialStore) ChangePassword(context context.Context, userID, plain string) error {
	return store.setPassword(context, userID, plain, false)
}

func (store *CredentialStore) setPassword(context context.Context, userID, plain string, revokeRefresh bool) error {
	hash, err := store.HashPassword(plain)
	if err != nil {
		return err
	}
	return store.users.SetPasswordHash(context, userID, hash, revokeRefresh)
}

// # Refresh Tokens

// StoreRefreshToken makes raw the only refresh token honored for the account.
func (store *CredentialStore) StoreRefreshToken(context context.Context, userID, raw string) error {
	return store.users.SetRefreshTokenHash(context, userID, sec.HashToken(raw))
}

// ClearRefreshToken revokes whatever refresh token the account holds.
func (store *CredentialStore) ClearRefreshToken(context context.Context, userID string) error {
	return store.users.SetRefreshTokenHash(context, userID, "")
}

// MatchesRefreshToken reports whether raw is the refresh token currently on file.
func (store *CredentialStore) MatchesRefreshToken(user *User, raw string) bool {
	if user.RefreshTokenHash == nil || *user.RefreshTokenHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*user.RefreshTokenHash), []byte(sec.HashToken(raw))) == 1
}

// # Verification Secrets

/*
IssueVerificationSecret generates a verification token valid for [VerificationTTL].

Any outstanding verification token of the account is overwritten.

Returns:
  - string: The raw token to embed in the email link
  - error: Generation or persistence failures
*/
func (store *CredentialStore) IssueVerificationSecret(context context.Context, userID string) (string, error) {
	raw, err := sec.GenerateSecureToken(sec.SecretLength)
	if err != nil {
		return "", err
	}
	if err := store.users.SetVerificationSecret(context, userID, sec.HashToken(raw), store.now().Add(VerificationTTL)); err != nil {
		return "", err
	}
	return raw, nil
}

// RevokeVerificationSecret rolls back raw unless a newer one replaced it.
func (store *CredentialStore) RevokeVerificationSecret(context context.Context, userID, raw string) error {
	return store.users.ClearVerificationSecret(context, userID, sec.HashToken(raw))
}

// ConsumeVerificationSecret verifies the owner of raw. Unknown, used and
// expired tokens all yield the same NotFound error.
func (store *CredentialStore) ConsumeVerificationSecret(context context.Context, raw string) (*User, error) {
	return store.users.ConsumeVerificationSecret(context, sec.HashToken(raw), store.now())
}

// # Reset Secrets

// IssueResetSecret generates a reset token valid for [ResetTTL], replacing any prior one.
func (store *CredentialStore) IssueResetSecret(context context.Context, userID string) (string, error) {
	raw, err := sec.GenerateSecureToken(sec.SecretLength)
	if err != nil {
		return "", err
	}
	if err := store.users.SetResetSecret(context, userID, sec.HashToken(raw), store.now().Add(ResetTTL)); err != nil {
		return "", err
	}
	return raw, nil
}

// RevokeResetSecret rolls back raw unless a newer one replaced it.
func (store *CredentialStore) RevokeResetSecret(context context.Context, userID, raw string) error {
	return store.users.ClearResetSecret(context, userID, sec.HashToken(raw))
}

/*
ConsumeResetSecret sets a new password for the owner of raw.

The refresh token is cleared in the same write, so every device has to log
in again.

Returns:
  - *User: The account whose password changed
  - error: NotFound for unknown, used or expired tokens
*/
func (store *CredentialStore) ConsumeResetSecret(context context.Context, raw, newPassword string) (*User, error) {
	hash, err := store.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	return store.users.ConsumeResetSecret(context, sec.HashToken(raw), hash, store.now())
}
