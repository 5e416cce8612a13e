// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package project

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/sprinto/internal/core/reference"
	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/internal/platform/dberr"
	"github.com/taibuivan/sprinto/internal/platform/postgres"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed project store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// selectProject reads a project with its manager and task counters.
var selectProject = `
	SELECT
		p.id, p.name, p.slug, p.description, p.color, p.status, p.created_at, p.updated_at,
		` + reference.UserColumns("m") + `,
		COUNT(t.id),
		COUNT(t.id) FILTER (WHERE t.status = 'done'),
		COUNT(t.id) FILTER (WHERE t.status = 'in-progress'),
		COUNT(t.id) FILTER (WHERE t.status = 'todo')
	FROM projects p
	JOIN users m ON m.id = p.manager_id
	LEFT JOIN tasks t ON t.project_id = p.id
`

const groupProject = ` GROUP BY p.id, m.id`

func scanProject(row pgx.Row) (*Project, error) {
	project := &Project{Members: []reference.User{}}

	targets := []any{
		&project.ID, &project.Name, &project.Slug, &project.Description, &project.Color,
		&project.Status, &project.CreatedAt, &project.UpdatedAt,
	}
	targets = append(targets, project.Manager.Targets()...)
	targets = append(targets,
		&project.TaskCounts.Total, &project.TaskCounts.Done,
		&project.TaskCounts.InProgress, &project.TaskCounts.Todo,
	)

	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	return project, nil
}

// loadMembers fills the member lists of projects with one query.
func loadMembers(context context.Context, querier postgres.Querier, projects []*Project) error {
	if len(projects) == 0 {
		return nil
	}

	byID := make(map[string]*Project, len(projects))
	ids := make([]string, 0, len(projects))
	for _, project := range projects {
		byID[project.ID] = project
		ids = append(ids, project.ID)
	}

	query := `
		SELECT pm.project_id, ` + reference.UserColumns("u") + `
		FROM project_members pm
		JOIN users u ON u.id = pm.user_id
		WHERE pm.project_id = ANY($1::uuid[])
		ORDER BY pm.joined_at, u.name
	`
	rows, err := querier.Query(context, query, ids)
	if err != nil {
		return dberr.Wrap(err, "Project", "list_members")
	}
	defer rows.Close()

	for rows.Next() {
		var projectID string
		var member reference.User
		if err := rows.Scan(append([]any{&projectID}, member.Targets()...)...); err != nil {
			return dberr.Wrap(err, "Project", "scan_member")
		}
		if project, ok := byID[projectID]; ok {
			project.Members = append(project.Members, member)
		}
	}
	return dberr.Wrap(rows.Err(), "Project", "iterate_members")
}

// List implements [Repository].
func (repository *PostgresRepository) List(context context.Context, viewerID string) ([]*Project, error) {
	query := selectProject
	args := []any{}
	if viewerID != "" {
		query += " WHERE p.id IN (" + reference.VisibleProjectIDs("$1") + ")"
		args = append(args, viewerID)
	}
	query += groupProject + " ORDER BY p.created_at DESC"

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "Project", "list_projects")
	}
	defer rows.Close()

	projects := []*Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "Project", "scan_project")
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "Project", "iterate_projects")
	}

	if err := loadMembers(context, repository.db, projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// FindByID implements [Repository].
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Project, error) {
	project, err := scanProject(repository.db.QueryRow(context, selectProject+" WHERE p.id = $1"+groupProject, id))
	if err != nil {
		return nil, dberr.Wrap(err, "Project", "find_project")
	}

	if err := loadMembers(context, repository.db, []*Project{project}); err != nil {
		return nil, err
	}
	return project, nil
}

func addMembers(context context.Context, tx pgx.Tx, projectID string, memberIDs []string) error {
	const query = `
		INSERT INTO project_members (project_id, user_id)
		SELECT $1, UNNEST($2::uuid[])
		ON CONFLICT DO NOTHING
	`
	_, err := tx.Exec(context, query, projectID, memberIDs)
	return dberr.Wrap(err, "Member", "insert_members")
}

// Create implements [Repository].
func (repository *PostgresRepository) Create(context context.Context, project *Project) error {
	return postgres.WithTx(context, repository.db, func(tx pgx.Tx) error {
		const query = `
			INSERT INTO projects (id, name, slug, description, color, status, manager_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING created_at, updated_at
		`
		err := tx.QueryRow(context, query,
			project.ID, project.Name, project.Slug, project.Description, project.Color, project.Status, project.Manager.ID,
		).Scan(&project.CreatedAt, &project.UpdatedAt)
		if err != nil {
			return dberr.Wrap(err, "Project", "create_project")
		}

		return addMembers(context, tx, project.ID, project.MemberIDs())
	})
}

// Update implements [Repository].
func (repository *PostgresRepository) Update(context context.Context, project *Project, replaceMembers bool) error {
	return postgres.WithTx(context, repository.db, func(tx pgx.Tx) error {
		const query = `
			UPDATE projects
			SET name = $2, slug = $3, description = $4, color = $5, status = $6, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at
		`
		err := tx.QueryRow(context, query,
			project.ID, project.Name, project.Slug, project.Description, project.Color, project.Status,
		).Scan(&project.UpdatedAt)
		if err != nil {
			return dberr.Wrap(err, "Project", "update_project")
		}

		if !replaceMembers {
			return nil
		}

		memberIDs := project.MemberIDs()
		_, err = tx.Exec(context,
			`DELETE FROM project_members WHERE project_id = $1 AND user_id <> ALL($2::uuid[])`,
			project.ID, memberIDs,
		)
		if err != nil {
			return dberr.Wrap(err, "Member", "prune_members")
		}
		return addMembers(context, tx, project.ID, memberIDs)
	})
}

// Delete implements [Repository].
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	return postgres.WithTx(context, repository.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(context, `DELETE FROM tasks WHERE project_id = $1`, id); err != nil {
			return dberr.Wrap(err, "Project", "delete_project_tasks")
		}

		tag, err := tx.Exec(context, `DELETE FROM projects WHERE id = $1`, id)
		if err != nil {
			return dberr.Wrap(err, "Project", "delete_project")
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("Project")
		}
		return nil
	})
}

// AddMember implements [Repository].
func (repository *PostgresRepository) AddMember(context context.Context, projectID, userID string) error {
	_, err := repository.db.Exec(context,
		`INSERT INTO project_members (project_id, user_id) VALUES ($1, $2)`,
		projectID, userID,
	)
	if dberr.IsUniqueViolation(err) {
		return apperr.BadRequest("User is already a member")
	}
	return dberr.Wrap(err, "Member", "add_member")
}

// RemoveMember implements [Repository]. Removing a non-member is a no-op.
func (repository *PostgresRepository) RemoveMember(context context.Context, projectID, userID string) error {
	_, err := repository.db.Exec(context,
		`DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`,
		projectID, userID,
	)
	return dberr.Wrap(err, "Member", "remove_member")
}
