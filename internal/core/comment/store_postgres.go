// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package comment

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/sprinto/internal/core/reference"
	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed comment store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var selectComment = `
	SELECT c.id, c.task_id, c.text, c.edited, c.created_at, c.updated_at, ` + reference.UserColumns("u") + `
	FROM comments c
	JOIN users u ON u.id = c.author_id
`

func scanComment(row pgx.Row) (*Comment, error) {
	comment := &Comment{}
	targets := []any{&comment.ID, &comment.TaskID, &comment.Text, &comment.Edited, &comment.CreatedAt, &comment.UpdatedAt}
	if err := row.Scan(append(targets, comment.Author.Targets()...)...); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListByTask implements [Repository].
func (repository *PostgresRepository) ListByTask(context context.Context, taskID string) ([]*Comment, error) {
	rows, err := repository.db.Query(context, selectComment+" WHERE c.task_id = $1 ORDER BY c.created_at ASC", taskID)
	if err != nil {
		return nil, dberr.Wrap(err, "Comment", "list_comments")
	}
	defer rows.Close()

	comments := []*Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "Comment", "scan_comment")
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "Comment", "iterate_comments")
	}
	return comments, nil
}

// FindByID implements [Repository].
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Comment, error) {
	comment, err := scanComment(repository.db.QueryRow(context, selectComment+" WHERE c.id = $1", id))
	if err != nil {
		return nil, dberr.Wrap(err, "Comment", "find_comment")
	}
	return comment, nil
}

// Create implements [Repository].
func (repository *PostgresRepository) Create(context context.Context, comment *Comment) error {
	const query = `
		INSERT INTO comments (id, task_id, author_id, text)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := repository.db.QueryRow(context, query, comment.ID, comment.TaskID, comment.Author.ID, comment.Text).
		Scan(&comment.CreatedAt, &comment.UpdatedAt)
	return dberr.Wrap(err, "Comment", "create_comment")
}

// UpdateText implements [Repository].
func (repository *PostgresRepository) UpdateText(context context.Context, id, text string) error {
	tag, err := repository.db.Exec(context,
		`UPDATE comments SET text = $2, edited = TRUE, updated_at = NOW() WHERE id = $1`,
		id, text,
	)
	if err != nil {
		return dberr.Wrap(err, "Comment", "update_comment")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Comment")
	}
	return nil
}

// Delete implements [Repository].
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	tag, err := repository.db.Exec(context, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return dberr.Wrap(err, "Comment", "delete_comment")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Comment")
	}
	return nil
}
