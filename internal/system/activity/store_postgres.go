// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package activity

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/sprinto/internal/core/reference"
	"github.com/taibuivan/sprinto/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed activity store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert implements [Repository].
func (repository *PostgresRepository) Insert(context context.Context, id string, entry Entry) error {
	const query = `
		INSERT INTO activity_logs (id, user_id, action, target, target_type, project_id, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	meta := entry.Meta
	if meta == nil {
		meta = map[string]any{}
	}

	_, err := repository.db.Exec(context, query,
		id, entry.UserID, entry.Action, entry.Target, entry.TargetType, entry.ProjectID, meta,
	)
	return dberr.Wrap(err, "Activity", "insert_activity")
}

/*
List returns a page of the feed.

Description: Joins the actor and the project, and counts the full result with
COUNT(*) OVER() so the page and its total come from one round trip.
*/
func (repository *PostgresRepository) List(context context.Context, filter Filter, limit, offset int) ([]*Log, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT
			l.id, l.action, l.target, l.target_type, l.meta, l.created_at,
			` + reference.UserColumns("u") + `,
			p.id, p.name, p.color,
			COUNT(*) OVER() AS total
		FROM activity_logs l
		JOIN users u ON u.id = l.user_id
		LEFT JOIN projects p ON p.id = l.project_id
		WHERE TRUE
	`)

	args := []any{}
	argID := 1

	if filter.ProjectID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND l.project_id = $%d", argID))
		args = append(args, filter.ProjectID)
		argID++
	}

	if filter.ViewerID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND l.project_id IN (%s)", reference.VisibleProjectIDs(fmt.Sprintf("$%d", argID))))
		args = append(args, filter.ViewerID)
		argID++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY l.created_at DESC LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Activity", "list_activity")
	}
	defer rows.Close()

	logs := []*Log{}
	var total int
	for rows.Next() {
		log := &Log{}
		var projectID, projectName, projectColor *string

		targets := []any{&log.ID, &log.Action, &log.Target, &log.TargetType, &log.Meta, &log.CreatedAt}
		targets = append(targets, log.User.Targets()...)
		targets = append(targets, &projectID, &projectName, &projectColor, &total)

		if err := rows.Scan(targets...); err != nil {
			return nil, 0, dberr.Wrap(err, "Activity", "scan_activity")
		}
		if projectID != nil {
			log.Project = &reference.Project{ID: *projectID, Name: *projectName, Color: *projectColor}
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "Activity", "iterate_activity")
	}
	return logs, total, nil
}
