// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the account identity and session lifecycle.

It owns registration, login, refresh, logout, email verification and password
recovery. Every secret the package hands out is stored only as a digest on
the account row, so a database snapshot cannot be replayed.

# Session Model

One refresh token is valid per account at a time. Login overwrites it, logout
and password reset clear it, and refresh only mints a new access token.
*/
package auth

import (
	"strings"
	"time"
	"unicode"

	"github.com/taibuivan/sprinto/internal/platform/sec"
)

// # Domain Entities

// User is a registered account of the workspace.
type User struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Email           string       `json:"email"`
	PasswordHash    string       `json:"-"`
	Role            sec.UserRole `json:"role"`
	Avatar          string       `json:"avatar"`
	Color           string       `json:"color"`
	IsActive        bool         `json:"isActive"`
	IsEmailVerified bool         `json:"isEmailVerified"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`

	// Credential secrets. Digests only, never serialized.
	RefreshTokenHash       *string    `json:"-"`
	EmailVerifyTokenHash   *string    `json:"-"`
	EmailVerifyExpiresAt   *time.Time `json:"-"`
	PasswordResetTokenHash *string    `json:"-"`
	PasswordResetExpiresAt *time.Time `json:"-"`
}

// Initials derives the avatar text from a display name: the first letter of
// the first two words, upper-cased.
func Initials(name string) string {
	initials := make([]rune, 0, 2)
	for _, word := range strings.Fields(name) {
		initials = append(initials, unicode.ToUpper([]rune(word)[0]))
		if len(initials) == 2 {
			break
		}
	}
	return string(initials)
}

// NormalizeEmail lower-cases and trims an address. Emails are unique in
// their normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// # Policy

const (
	// DefaultColor is the avatar color given to new accounts.
	DefaultColor = "#6366f1"

	// VerificationTTL is how long an email verification link stays usable.
	VerificationTTL = 24 * time.Hour

	// ResetTTL is how long a password reset link stays usable.
	ResetTTL = time.Hour

	MinPasswordLength = 6
	MaxNameLength     = 60
)

// # Field Identifiers

const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldToken           = "token"
	FieldRefreshToken    = "refreshToken"
	FieldAccessToken     = "accessToken"
	FieldCurrentPassword = "currentPassword"
	FieldNewPassword     = "newPassword"
	FieldUser            = "user"
)
