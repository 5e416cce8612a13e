// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/internal/platform/dberr"
	"github.com/taibuivan/sprinto/internal/users/auth"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool  *pgxpool.Pool
	users *auth.PostgresUserRepository
}

// NewPostgresRepository constructs the directory store. Single-row lookups
// are shared with the auth repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool, users: auth.NewUserRepository(pool)}
}

const profileColumns = `id, name, email, role, avatar, color, is_active, is_email_verified, created_at, updated_at`

// ListActive implements [Repository].
func (repository *PostgresRepository) ListActive(context context.Context) ([]*auth.User, error) {
	rows, err := repository.pool.Query(context, `SELECT `+profileColumns+` FROM users WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, dberr.Wrap(err, "User", "list_users")
	}
	defer rows.Close()

	users := []*auth.User{}
	for rows.Next() {
		user := &auth.User{}
		if err := rows.Scan(
			&user.ID, &user.Name, &user.Email, &user.Role, &user.Avatar, &user.Color,
			&user.IsActive, &user.IsEmailVerified, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, dberr.Wrap(err, "User", "scan_user")
		}
		users = append(users, user)
	}
	return users, dberr.Wrap(rows.Err(), "User", "iterate_users")
}

// FindByID implements [Repository].
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*auth.User, error) {
	return repository.users.FindByID(context, id)
}

// Update implements [Repository].
func (repository *PostgresRepository) Update(context context.Context, user *auth.User) error {
	const query = `
		UPDATE users SET name = $2, email = $3, color = $4, role = $5, avatar = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := repository.pool.QueryRow(context, query,
		user.ID, user.Name, user.Email, user.Color, user.Role, user.Avatar,
	).Scan(&user.UpdatedAt)

	if dberr.IsUniqueViolation(err) {
		return apperr.Conflict("Email already registered")
	}
	return dberr.Wrap(err, "User", "update_user")
}

// Deactivate implements [Repository].
func (repository *PostgresRepository) Deactivate(context context.Context, id string) error {
	const query = `
		UPDATE users SET is_active = FALSE, refresh_token_hash = NULL, updated_at = NOW()
		WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "User", "deactivate_user")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// TaskStats implements [Repository].
func (repository *PostgresRepository) TaskStats(context context.Context, userID string) (*Stats, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'done'),
			COUNT(*) FILTER (WHERE status = 'in-progress'),
			COUNT(*) FILTER (WHERE status = 'todo')
		FROM tasks
		WHERE assignee_id = $1`

	stats := &Stats{}
	err := repository.pool.QueryRow(context, query, userID).Scan(&stats.Total, &stats.Done, &stats.InProgress, &stats.Todo)
	if err != nil {
		return nil, dberr.Wrap(err, "User", "user_task_stats")
	}
	return stats, nil
}
