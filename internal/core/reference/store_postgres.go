// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reference

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/sprinto/internal/platform/dberr"
)

// PostgresDirectory implements [Directory] using pgx.
type PostgresDirectory struct {
	db *pgxpool.Pool
}

// NewPostgresDirectory constructs a PostgreSQL backed [Directory].
func NewPostgresDirectory(db *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// User implements [Directory].
func (directory *PostgresDirectory) User(context context.Context, id string) (*User, error) {
	query := `SELECT ` + UserColumns("u") + ` FROM users u WHERE u.id = $1`

	user := &User{}
	if err := directory.db.QueryRow(context, query, id).Scan(user.Targets()...); err != nil {
		return nil, dberr.Wrap(err, "User", "directory_user")
	}
	return user, nil
}

// Project implements [Directory].
func (directory *PostgresDirectory) Project(context context.Context, id string) (*ProjectAccess, error) {
	const query = `
		SELECT p.id, p.name, p.color, p.manager_id,
		       COALESCE(ARRAY_AGG(pm.user_id::text) FILTER (WHERE pm.user_id IS NOT NULL), '{}')
		FROM projects p
		LEFT JOIN project_members pm ON pm.project_id = p.id
		WHERE p.id = $1
		GROUP BY p.id
	`

	access := &ProjectAccess{}
	err := directory.db.QueryRow(context, query, id).Scan(
		&access.ID, &access.Name, &access.Color, &access.ManagerID, &access.MemberIDs,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Project", "directory_project")
	}
	return access, nil
}
