// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/sprinto/internal/platform/sec"
)

func newTokenService(t *testing.T, now *time.Time) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService(sec.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "sprinto.test",
	})
	require.NoError(t, err)
	return service.WithClock(func() time.Time { return *now })
}

/*
TestNewTokenService_RejectsSharedSecret verifies that both classes cannot share a key.
*/
func TestNewTokenService_RejectsSharedSecret(t *testing.T) {
	_, err := sec.NewTokenService(sec.TokenConfig{
		AccessSecret:  "same",
		RefreshSecret: "same",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	assert.Error(t, err)

	_, err = sec.NewTokenService(sec.TokenConfig{AccessSecret: "a", RefreshSecret: "", AccessTTL: time.Minute, RefreshTTL: time.Hour})
	assert.Error(t, err)
}

/*
TestTokenService_RoundTrip verifies that each class verifies against its own key.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service := newTokenService(t, &now)

	access, err := service.IssueAccessToken("user-1", sec.RoleManager)
	require.NoError(t, err)
	claims, err := service.Verify(access, sec.ClassAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "manager", claims.Role)
	assert.Equal(t, sec.ClassAccess, claims.Class)

	refresh, err := service.IssueRefreshToken("user-1")
	require.NoError(t, err)
	claims, err = service.Verify(refresh, sec.ClassRefresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

/*
TestTokenService_ClassIsolation verifies that a token is refused where the other class is expected.
*/
func TestTokenService_ClassIsolation(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service := newTokenService(t, &now)

	access, err := service.IssueAccessToken("user-1", sec.RoleUser)
	require.NoError(t, err)
	refresh, err := service.IssueRefreshToken("user-1")
	require.NoError(t, err)

	_, err = service.Verify(access, sec.ClassRefresh)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)

	_, err = service.VerifyToken(refresh)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)

	// Signed with the access key but claiming the refresh class.
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, sec.AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
		UserID:           "user-1",
		Class:            sec.ClassRefresh,
	})
	signed, err := forged.SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = service.VerifyToken(signed)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)
}

/*
TestTokenService_Expiry verifies that tokens stop verifying once their lifetime has elapsed.
*/
func TestTokenService_Expiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service := newTokenService(t, &now)

	access, err := service.IssueAccessToken("user-1", sec.RoleUser)
	require.NoError(t, err)

	now = now.Add(14 * time.Minute)
	_, err = service.VerifyToken(access)
	assert.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = service.VerifyToken(access)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)
}

/*
TestTokenService_Tampered verifies that garbage and re-signed tokens are rejected.
*/
func TestTokenService_Tampered(t *testing.T) {
	now := time.Now()
	service := newTokenService(t, &now)

	_, err := service.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, sec.ErrInvalidToken)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, sec.AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
		UserID:           "user-1",
		Class:            sec.ClassAccess,
	})
	signed, err := foreign.SignedString([]byte("someone-else"))
	require.NoError(t, err)

	_, err = service.VerifyToken(signed)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)
}

/*
TestHashPassword verifies the bcrypt work factor and the comparison helper.
*/
func TestHashPassword(t *testing.T) {
	hash, err := sec.HashPassword("secret1", sec.PasswordCost)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, sec.PasswordCost, cost)

	assert.True(t, sec.PasswordMatches(hash, "secret1"))
	assert.False(t, sec.PasswordMatches(hash, "secret2"))
	assert.False(t, sec.PasswordMatches("not-a-hash", "secret1"))

	_, err = sec.HashPassword(strings.Repeat("x", 73), bcrypt.MinCost)
	assert.ErrorIs(t, err, sec.ErrPasswordTooLong)
}

/*
TestSecureToken verifies the length of raw secrets and the determinism of their digest.
*/
func TestSecureToken(t *testing.T) {
	raw, err := sec.GenerateSecureToken(sec.SecretLength)
	require.NoError(t, err)
	assert.Len(t, raw, 64)

	other, err := sec.GenerateSecureToken(sec.SecretLength)
	require.NoError(t, err)
	assert.NotEqual(t, raw, other)

	assert.Equal(t, sec.HashToken(raw), sec.HashToken(raw))
	assert.NotEqual(t, raw, sec.HashToken(raw))
	assert.Len(t, sec.HashToken(raw), 64)
}

/*
TestUserRole_AtLeast verifies the role hierarchy.
*/
func TestUserRole_AtLeast(t *testing.T) {
	assert.True(t, sec.RoleAdmin.AtLeast(sec.RoleManager))
	assert.True(t, sec.RoleManager.AtLeast(sec.RoleManager))
	assert.False(t, sec.RoleUser.AtLeast(sec.RoleManager))
	assert.False(t, sec.UserRole("root").Valid())
	assert.Equal(t, sec.RoleUser, sec.LowestRole)
}
