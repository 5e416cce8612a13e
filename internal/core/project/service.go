// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package project

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/taibuivan/sprinto/internal/core/reference"
	"github.com/taibuivan/sprinto/internal/core/task"
	"github.com/taibuivan/sprinto/internal/live"
	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/internal/platform/ctxutil"
	"github.com/taibuivan/sprinto/internal/platform/sec"
	"github.com/taibuivan/sprinto/internal/system/activity"
	"github.com/taibuivan/sprinto/pkg/slice"
	"github.com/taibuivan/sprinto/pkg/slug"
	"github.com/taibuivan/sprinto/pkg/uuid"
)

// Publisher announces a committed change to connected boards.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any)
}

// ActivityRecorder appends to the activity feed.
type ActivityRecorder interface {
	Record(ctx context.Context, entry activity.Entry)
}

// BoardReader lists the tasks of a project.
type BoardReader interface {
	ListByProject(ctx context.Context, projectID string) ([]*task.Task, error)
}

type changedEvent struct {
	Project *Project `json:"project"`
	User    string   `json:"user"`
}

type deletedEvent struct {
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
	User        string `json:"user"`
}

// # Service Layer

// Service implements the project use cases.
type Service struct {
	projectRepository Repository
	board             BoardReader
	directory         reference.Directory
	publisher         Publisher
	activity          ActivityRecorder
	logger            *slog.Logger
}

// NewService constructs a project [Service].
func NewService(projectRepo Repository, board BoardReader, directory reference.Directory, publisher Publisher, recorder ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{
		projectRepository: projectRepo,
		board:             board,
		directory:         directory,
		publisher:         publisher,
		activity:          recorder,
		logger:            logger,
	}
}

func isAdmin(actor *sec.AuthClaims) bool {
	return sec.UserRole(actor.Role).AtLeast(sec.RoleAdmin)
}

// List returns the projects visible to viewer with their task counters.
func (service *Service) List(context context.Context, viewer *sec.AuthClaims) ([]*Project, error) {
	viewerID := ""
	if !isAdmin(viewer) {
		viewerID = viewer.UserID
	}

	projects, err := service.projectRepository.List(context, viewerID)
	if err != nil {
		return nil, fmt.Errorf("project_service_list_failed: %w", err)
	}
	return projects, nil
}

/*
Get returns a project and its board.

Returns:
  - *Project: The project
  - []*task.Task: Its tasks, oldest first
  - error: NotFound, or Forbidden("Access denied") for outsiders
*/
func (service *Service) Get(context context.Context, viewer *sec.AuthClaims, id string) (*Project, []*task.Task, error) {
	project, err := service.projectRepository.FindByID(context, id)
	if err != nil {
		return nil, nil, err
	}

	if !isAdmin(viewer) && !project.Allows(viewer.UserID) {
		return nil, nil, apperr.Forbidden("Access denied")
	}

	tasks, err := service.board.ListByProject(context, id)
	if err != nil {
		return nil, nil, fmt.Errorf("project_service_board_failed: %w", err)
	}
	return project, tasks, nil
}

/*
Create opens a new project managed by actor.

Description: The creator becomes the manager and is always on the member
list. The slug is derived from the name.

Parameters:
  - context: context.Context
  - actor: *sec.AuthClaims (admin or manager, enforced by the route)
  - input: CreateInput

Returns:
  - *Project: The created project with members resolved
  - error: BadRequest for unknown members, or storage failures
*/
func (service *Service) Create(context context.Context, actor *sec.AuthClaims, input CreateInput) (*Project, error) {
	author, err := service.directory.User(context, actor.UserID)
	if err != nil {
		return nil, err
	}

	memberIDs := slice.Unique(append(slices.Clone(input.MemberIDs), actor.UserID))

	name := strings.TrimSpace(input.Name)
	project := &Project{
		ID:          uuid.New(),
		Name:        name,
		Slug:        slug.From(name),
		Description: strings.TrimSpace(input.Description),
		Color:       input.Color,
		Status:      StatusActive,
		Manager:     reference.User{ID: actor.UserID},
		Members:     membersOf(memberIDs),
	}
	if project.Color == "" {
		project.Color = DefaultColor
	}

	if err := service.projectRepository.Create(context, project); err != nil {
		return nil, err
	}

	created, err := service.projectRepository.FindByID(context, project.ID)
	if err != nil {
		return nil, err
	}

	service.activity.Record(context, activity.Entry{
		UserID:     actor.UserID,
		Action:     "Created project",
		Target:     created.Name,
		TargetType: activity.TargetProject,
		ProjectID:  &created.ID,
	})
	service.publisher.Publish(context, live.ProjectCreated, changedEvent{Project: created, User: author.Name})

	ctxutil.GetLogger(context).InfoContext(context, "project_created",
		slog.String("project_id", created.ID),
		slog.Int("members", len(created.Members)),
	)
	return created, nil
}

func membersOf(ids []string) []reference.User {
	return slice.Map(slice.Unique(ids), func(id string) reference.User { return reference.User{ID: id} })
}

// authorizeManagement loads a project that actor may change.
func (service *Service) authorizeManagement(context context.Context, actor *sec.AuthClaims, id string) (*Project, error) {
	project, err := service.projectRepository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if !isAdmin(actor) && project.Manager.ID != actor.UserID {
		return nil, apperr.Forbidden("Not authorized to update this project")
	}
	return project, nil
}

/*
Update edits a project. Only admins and the project's own manager may do so.

Description: A new name also refreshes the slug. Sending members replaces the
whole list.
*/
func (service *Service) Update(context context.Context, actor *sec.AuthClaims, id string, input UpdateInput) (*Project, error) {
	project, err := service.authorizeManagement(context, actor, id)
	if err != nil {
		return nil, err
	}

	author, err := service.directory.User(context, actor.UserID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		project.Name = strings.TrimSpace(*input.Name)
		project.Slug = slug.From(project.Name)
	}
	if input.Description != nil {
		project.Description = strings.TrimSpace(*input.Description)
	}
	if input.Color != nil {
		project.Color = *input.Color
	}
	if input.Status != nil {
		project.Status = *input.Status
	}
	if input.MemberIDs != nil {
		project.Members = membersOf(input.MemberIDs)
	}

	if err := service.projectRepository.Update(context, project, input.MemberIDs != nil); err != nil {
		return nil, err
	}

	updated, err := service.projectRepository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	service.activity.Record(context, activity.Entry{
		UserID:     actor.UserID,
		Action:     "Updated project",
		Target:     updated.Name,
		TargetType: activity.TargetProject,
		ProjectID:  &updated.ID,
	})
	service.publisher.Publish(context, live.ProjectUpdated, changedEvent{Project: updated, User: author.Name})
	return updated, nil
}

// Delete removes a project and its tasks. The route restricts it to admins.
func (service *Service) Delete(context context.Context, actor *sec.AuthClaims, id string) error {
	project, err := service.projectRepository.FindByID(context, id)
	if err != nil {
		return err
	}

	author, err := service.directory.User(context, actor.UserID)
	if err != nil {
		return err
	}

	if err := service.projectRepository.Delete(context, id); err != nil {
		return err
	}

	// The project row is gone, so the entry is not attached to it.
	service.activity.Record(context, activity.Entry{
		UserID:     actor.UserID,
		Action:     "Deleted project",
		Target:     project.Name,
		TargetType: activity.TargetProject,
	})
	service.publisher.Publish(context, live.ProjectDeleted, deletedEvent{
		ProjectID:   id,
		ProjectName: project.Name,
		User:        author.Name,
	})

	ctxutil.GetLogger(context).InfoContext(context, "project_deleted", slog.String("project_id", id))
	return nil
}

// AddMember puts userID on the member list and returns the refreshed project.
func (service *Service) AddMember(context context.Context, actor *sec.AuthClaims, id, userID string) (*Project, error) {
	project, err := service.authorizeManagement(context, actor, id)
	if err != nil {
		return nil, err
	}

	if project.HasMember(userID) {
		return nil, apperr.BadRequest("User is already a member")
	}

	if err := service.projectRepository.AddMember(context, id, userID); err != nil {
		return nil, err
	}
	return service.projectRepository.FindByID(context, id)
}

// RemoveMember takes userID off the member list. The manager keeps access
// through the manager role even when removed from the list.
func (service *Service) RemoveMember(context context.Context, actor *sec.AuthClaims, id, userID string) error {
	if _, err := service.authorizeManagement(context, actor, id); err != nil {
		return err
	}
	return service.projectRepository.RemoveMember(context, id, userID)
}
