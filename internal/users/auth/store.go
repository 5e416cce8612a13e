// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// UserRepository is the persistence contract for accounts and their secrets.
//
// Lookups return an apperr NotFound error when nothing matches.
type UserRepository interface {

	// # Accounts

	FindByID(context context.Context, id string) (*User, error)

	// FindByEmail looks up a normalized address.
	FindByEmail(context context.Context, email string) (*User, error)

	// Create inserts a new account. A duplicate email yields a Conflict error.
	Create(context context.Context, user *User) error

	// # Credentials

	/*
		SetPasswordHash replaces the password hash and clears any outstanding
		reset secret.

		Parameters:
		  - context: context.Context
		  - id: string
		  - hash: string (bcrypt)
		  - revokeRefresh: bool (also clears the refresh token digest)

		Returns:
		  - error: NotFound or persistence failures
	*/
	SetPasswordHash(context context.Context, id, hash string, revokeRefresh bool) error

	// SetRefreshTokenHash stores a refresh digest, or clears it when hash is empty.
	SetRefreshTokenHash(context context.Context, id, hash string) error

	// # One-time Secrets

	SetVerificationSecret(context context.Context, id, hash string, expiresAt time.Time) error

	// ClearVerificationSecret removes the verification digest only if it still equals hash.
	ClearVerificationSecret(context context.Context, id, hash string) error

	/*
		ConsumeVerificationSecret atomically marks the owner of hash verified.

		Description: Matches only while expiresAt > now, then clears the digest
		and its expiry in the same statement.

		Returns:
		  - *User: The verified account
		  - error: NotFound when the digest is unknown, used or expired
	*/
	ConsumeVerificationSecret(context context.Context, hash string, now time.Time) (*User, error)

	SetResetSecret(context context.Context, id, hash string, expiresAt time.Time) error

	// ClearResetSecret removes the reset digest only if it still equals hash.
	ClearResetSecret(context context.Context, id, hash string) error

	// ConsumeResetSecret atomically sets passwordHash on the owner of hash and
	// clears both the reset and the refresh digests.
	ConsumeResetSecret(context context.Context, hash, passwordHash string, now time.Time) (*User, error)
}
