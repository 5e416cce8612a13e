// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package task

import (
	"context"
	"fmt"
	"strings"

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

// NewPostgresRepository constructs a PostgreSQL backed task store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// selectTask reads a task with its assignee, creator and project.
var selectTask = `
	SELECT
		t.id, t.title, t.description, t.status, t.priority, t.project_id,
		t.due_date, t.tags, t.position, t.created_at, t.updated_at,
		` + reference.UserColumns("a") + `,
		` + reference.UserColumns("c") + `,
		p.name, p.color
	FROM tasks t
	LEFT JOIN users a ON a.id = t.assignee_id
	JOIN users c ON c.id = t.created_by
	JOIN projects p ON p.id = t.project_id
`

func scanTask(row pgx.Row) (*Task, error) {
	task := &Task{Project: &reference.Project{}}
	var assignee reference.OptionalUser

	targets := []any{
		&task.ID, &task.Title, &task.Description, &task.Status, &task.Priority, &task.ProjectID,
		&task.DueDate, &task.Tags, &task.Order, &task.CreatedAt, &task.UpdatedAt,
	}
	targets = append(targets, assignee.Targets()...)
	targets = append(targets, task.CreatedBy.Targets()...)
	targets = append(targets, &task.Project.Name, &task.Project.Color)

	if err := row.Scan(targets...); err != nil {
		return nil, err
	}

	task.Project.ID = task.ProjectID
	task.Assignee = assignee.User()
	if task.Tags == nil {
		task.Tags = []string{}
	}
	return task, nil
}

func (repository *PostgresRepository) query(context context.Context, action, query string, args ...any) ([]*Task, error) {
	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "Task", action)
	}
	defer rows.Close()

	tasks := []*Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "Task", action)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "Task", action)
	}
	return tasks, nil
}

// likePattern escapes the LIKE wildcards in term and wraps it for a substring match.
func likePattern(term string) string {
	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + escaper.Replace(term) + "%"
}

/*
List implements [Repository].

Description: Builds the WHERE clause from the non-empty filter fields. The
viewer restriction reuses the visible-projects subquery shared with the
activity feed.
*/
func (repository *PostgresRepository) List(context context.Context, filter Filter) ([]*Task, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(selectTask)
	queryBuilder.WriteString(" WHERE TRUE")

	args := []any{}
	argID := 1

	appendCondition := func(format string, value any) {
		queryBuilder.WriteString(fmt.Sprintf(format, argID))
		args = append(args, value)
		argID++
	}

	if filter.ProjectID != "" {
		appendCondition(" AND t.project_id = $%d", filter.ProjectID)
	}
	if filter.ViewerID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND t.project_id IN (%s)", reference.VisibleProjectIDs(fmt.Sprintf("$%d", argID))))
		args = append(args, filter.ViewerID)
		argID++
	}
	if filter.AssigneeID != "" {
		appendCondition(" AND t.assignee_id = $%d", filter.AssigneeID)
	}
	if filter.Status != "" {
		appendCondition(" AND t.status = $%d", filter.Status)
	}
	if filter.Priority != "" {
		appendCondition(" AND t.priority = $%d", filter.Priority)
	}
	if filter.Search != "" {
		appendCondition(" AND t.title ILIKE $%d", likePattern(filter.Search))
	}

	queryBuilder.WriteString(" ORDER BY t.created_at DESC")
	return repository.query(context, "list_tasks", queryBuilder.String(), args...)
}

// ListByProject implements [Repository].
func (repository *PostgresRepository) ListByProject(context context.Context, projectID string) ([]*Task, error) {
	query := selectTask + " WHERE t.project_id = $1 ORDER BY t.created_at ASC"
	return repository.query(context, "list_project_tasks", query, projectID)
}

// FindByID implements [Repository].
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Task, error) {
	task, err := scanTask(repository.db.QueryRow(context, selectTask+" WHERE t.id = $1", id))
	if err != nil {
		return nil, dberr.Wrap(err, "Task", "find_task")
	}
	return task, nil
}

func assigneeID(task *Task) *string {
	if task.Assignee == nil {
		return nil
	}
	return &task.Assignee.ID
}

// Create implements [Repository].
func (repository *PostgresRepository) Create(context context.Context, task *Task) error {
	const query = `
		INSERT INTO tasks (id, title, description, status, priority, project_id, assignee_id, created_by, due_date, tags, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	err := repository.db.QueryRow(context, query,
		task.ID, task.Title, task.Description, task.Status, task.Priority, task.ProjectID,
		assigneeID(task), task.CreatedBy.ID, task.DueDate, task.Tags, task.Order,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
	return dberr.Wrap(err, "Task", "create_task")
}

// Update implements [Repository].
func (repository *PostgresRepository) Update(context context.Context, task *Task) error {
	const query = `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, priority = $5,
		    assignee_id = $6, due_date = $7, tags = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := repository.db.QueryRow(context, query,
		task.ID, task.Title, task.Description, task.Status, task.Priority,
		assigneeID(task), task.DueDate, task.Tags,
	).Scan(&task.UpdatedAt)
	return dberr.Wrap(err, "Task", "update_task")
}

// Delete implements [Repository].
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	tag, err := repository.db.Exec(context, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return dberr.Wrap(err, "Task", "delete_task")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Task")
	}
	return nil
}

// Stats implements [Repository].
func (repository *PostgresRepository) Stats(context context.Context, viewerID, userID string) (*Stats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'done'),
			COUNT(*) FILTER (WHERE status = 'in-progress'),
			COUNT(*) FILTER (WHERE status = 'todo'),
			COUNT(*) FILTER (WHERE assignee_id = $1),
			COUNT(*) FILTER (WHERE status <> 'done' AND due_date < NOW())
		FROM tasks
	`
	args := []any{userID}
	if viewerID != "" {
		query += " WHERE project_id IN (" + reference.VisibleProjectIDs("$2") + ")"
		args = append(args, viewerID)
	}

	stats := &Stats{}
	err := repository.db.QueryRow(context, query, args...).Scan(
		&stats.Total, &stats.Done, &stats.InProgress, &stats.Todo, &stats.MyTasks, &stats.Overdue,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Task", "task_stats")
	}
	return stats, nil
}
