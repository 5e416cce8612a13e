// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/internal/platform/dberr"
)

// # User Repository

// PostgresUserRepository implements [UserRepository] using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a PostgreSQL implementation of [UserRepository].
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `
	id, name, email, password_hash, role, avatar, color, is_active, is_email_verified,
	refresh_token_hash, email_verify_token_hash, email_verify_expires_at,
	password_reset_token_hash, password_reset_expires_at, created_at, updated_at
`

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role,
		&user.Avatar, &user.Color, &user.IsActive, &user.IsEmailVerified,
		&user.RefreshTokenHash, &user.EmailVerifyTokenHash, &user.EmailVerifyExpiresAt,
		&user.PasswordResetTokenHash, &user.PasswordResetExpiresAt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
Create persists a new account.

Parameters:
  - context: context.Context
  - user: *User (timestamps are filled in from the row defaults)

Returns:
  - error: Conflict on a duplicate email, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users (id, name, email, password_hash, role, avatar, color, is_active, is_email_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := repository.pool.QueryRow(context, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Avatar,
		user.Color,
		user.IsActive,
		user.IsEmailVerified,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if dberr.IsUniqueViolation(err) {
		return apperr.Conflict("Email already registered")
	}
	return dberr.Wrap(err, "User", "create_user")
}

// FindByID implements [UserRepository].
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	user, err := scanUser(repository.pool.QueryRow(context, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, dberr.Wrap(err, "User", "find_user_by_id")
	}
	return user, nil
}

// FindByEmail implements [UserRepository].
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	user, err := scanUser(repository.pool.QueryRow(context, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, dberr.Wrap(err, "User", "find_user_by_email")
	}
	return user, nil
}

// # Credentials

// SetPasswordHash implements [UserRepository].
func (repository *PostgresUserRepository) SetPasswordHash(context context.Context, id, hash string, revokeRefresh bool) error {
	const query = `
		UPDATE users SET
			password_hash = $2,
			password_reset_token_hash = NULL,
			password_reset_expires_at = NULL,
			refresh_token_hash = CASE WHEN $3 THEN NULL ELSE refresh_token_hash END,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id, hash, revokeRefresh)
	if err != nil {
		return dberr.Wrap(err, "User", "set_password")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// SetRefreshTokenHash implements [UserRepository]. It is a no-op for unknown IDs.
func (repository *PostgresUserRepository) SetRefreshTokenHash(context context.Context, id, hash string) error {
	const query = `UPDATE users SET refresh_token_hash = NULLIF($2, ''), updated_at = NOW() WHERE id = $1`

	_, err := repository.pool.Exec(context, query, id, hash)
	return dberr.Wrap(err, "User", "set_refresh_token")
}

// # One-time Secrets

// SetVerificationSecret implements [UserRepository].
func (repository *PostgresUserRepository) SetVerificationSecret(context context.Context, id, hash string, expiresAt time.Time) error {
	const query = `
		UPDATE users SET email_verify_token_hash = $2, email_verify_expires_at = $3, updated_at = NOW()
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, id, hash, expiresAt)
	return dberr.Wrap(err, "User", "set_verification_secret")
}

// ClearVerificationSecret implements [UserRepository].
func (repository *PostgresUserRepository) ClearVerificationSecret(context context.Context, id, hash string) error {
	const query = `
		UPDATE users SET email_verify_token_hash = NULL, email_verify_expires_at = NULL, updated_at = NOW()
		WHERE id = $1 AND email_verify_token_hash = $2`

	_, err := repository.pool.Exec(context, query, id, hash)
	return dberr.Wrap(err, "User", "clear_verification_secret")
}

// ConsumeVerificationSecret implements [UserRepository].
func (repository *PostgresUserRepository) ConsumeVerificationSecret(context context.Context, hash string, now time.Time) (*User, error) {
	query := `
		UPDATE users SET
			is_email_verified = TRUE,
			email_verify_token_hash = NULL,
			email_verify_expires_at = NULL,
			updated_at = NOW()
		WHERE email_verify_token_hash = $1 AND email_verify_expires_at > $2
		RETURNING ` + userColumns

	user, err := scanUser(repository.pool.QueryRow(context, query, hash, now))
	if err != nil {
		return nil, dberr.Wrap(err, "User", "consume_verification_secret")
	}
	return user, nil
}

// SetResetSecret implements [UserRepository].
func (repository *PostgresUserRepository) SetResetSecret(context context.Context, id, hash string, expiresAt time.Time) error {
	const query = `
		UPDATE users SET password_reset_token_hash = $2, password_reset_expires_at = $3, updated_at = NOW()
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, id, hash, expiresAt)
	return dberr.Wrap(err, "User", "set_reset_secret")
}

// ClearResetSecret implements [UserRepository].
func (repository *PostgresUserRepository) ClearResetSecret(context context.Context, id, hash string) error {
	const query = `
		UPDATE users SET password_reset_token_hash = NULL, password_reset_expires_at = NULL, updated_at = NOW()
		WHERE id = $1 AND password_reset_token_hash = $2`

	_, err := repository.pool.Exec(context, query, id, hash)
	return dberr.Wrap(err, "User", "clear_reset_secret")
}

// ConsumeResetSecret implements [UserRepository].
func (repository *PostgresUserRepository) ConsumeResetSecret(context context.Context, hash, passwordHash string, now time.Time) (*User, error) {
	query := `
		UPDATE users SET
			password_hash = $3,
			password_reset_token_hash = NULL,
			password_reset_expires_at = NULL,
			refresh_token_hash = NULL,
			updated_at = NOW()
		WHERE password_reset_token_hash = $1 AND password_reset_expires_at > $2
		RETURNING ` + userColumns

	user, err := scanUser(repository.pool.QueryRow(context, query, hash, now, passwordHash))
	if err != nil {
		return nil, dberr.Wrap(err, "User", "consume_reset_secret")
	}
	return user, nil
}
