// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/sprinto/internal/core/reference"
	"github.com/taibuivan/sprinto/internal/live"
	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/internal/platform/ctxutil"
	"github.com/taibuivan/sprinto/internal/platform/sec"
	"github.com/taibuivan/sprinto/internal/system/activity"
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

// # Event Payloads

type createdEvent struct {
	Task        *Task  `json:"task"`
	User        string `json:"user"`
	ProjectName string `json:"projectName"`
}

type updatedEvent struct {
	Task   *Task  `json:"task"`
	User   string `json:"user"`
	Change string `json:"change,omitempty"`
}

type deletedEvent struct {
	TaskID    string `json:"taskId"`
	TaskTitle string `json:"taskTitle"`
	User      string `json:"user"`
}

// # Service Layer

// Service implements the task board use cases.
type Service struct {
	taskRepository Repository
	directory      reference.Directory
	publisher      Publisher
	activity       ActivityRecorder
	logger         *slog.Logger
}

// NewService constructs a task [Service].
func NewService(taskRepo Repository, directory reference.Directory, publisher Publisher, recorder ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{
		taskRepository: taskRepo,
		directory:      directory,
		publisher:      publisher,
		activity:       recorder,
		logger:         logger,
	}
}

func isStaff(actor *sec.AuthClaims) bool {
	return sec.UserRole(actor.Role).AtLeast(sec.RoleManager)
}

func isAdmin(actor *sec.AuthClaims) bool {
	return sec.UserRole(actor.Role).AtLeast(sec.RoleAdmin)
}

/*
List returns the tasks matching filter.

Description: Without an explicit project, anyone below admin only sees the
tasks of projects they manage or belong to.
*/
func (service *Service) List(context context.Context, viewer *sec.AuthClaims, filter Filter) ([]*Task, error) {
	filter.ViewerID = ""
	if !isAdmin(viewer) && filter.ProjectID == "" {
		filter.ViewerID = viewer.UserID
	}

	tasks, err := service.taskRepository.List(context, filter)
	if err != nil {
		return nil, fmt.Errorf("task_service_list_failed: %w", err)
	}
	return tasks, nil
}

// Get returns a single task.
func (service *Service) Get(context context.Context, id string) (*Task, error) {
	return service.taskRepository.FindByID(context, id)
}

// ListByProject returns the board of a project, oldest card first.
func (service *Service) ListByProject(context context.Context, projectID string) ([]*Task, error) {
	return service.taskRepository.ListByProject(context, projectID)
}

// Stats returns the dashboard counters, scoped like [Service.List].
func (service *Service) Stats(context context.Context, viewer *sec.AuthClaims) (*Stats, error) {
	viewerID := ""
	if !isAdmin(viewer) {
		viewerID = viewer.UserID
	}

	stats, err := service.taskRepository.Stats(context, viewerID, viewer.UserID)
	if err != nil {
		return nil, fmt.Errorf("task_service_stats_failed: %w", err)
	}
	return stats, nil
}

/*
Create adds a card to a project.

Description: The project must exist and, unless the actor is an admin, the
actor must manage or belong to it. Defaults are medium priority and the
todo column.

Parameters:
  - context: context.Context
  - actor: *sec.AuthClaims (admin or manager, enforced by the route)
  - input: CreateInput

Returns:
  - *Task: The created task with its references resolved
  - error: NotFound("Project"), Forbidden or storage failures
*/
func (service *Service) Create(context context.Context, actor *sec.AuthClaims, input CreateInput) (*Task, error) {
	project, err := service.directory.Project(context, input.ProjectID)
	if err != nil {
		return nil, err
	}

	if !isAdmin(actor) && !project.Allows(actor.UserID) {
		return nil, apperr.Forbidden("Not a member of this project")
	}

	author, err := service.directory.User(context, actor.UserID)
	if err != nil {
		return nil, err
	}

	task := &Task{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      input.Status,
		Priority:    input.Priority,
		ProjectID:   project.ID,
		CreatedBy:   reference.User{ID: actor.UserID},
		DueDate:     input.DueDate,
		Tags:        input.Tags,
	}
	if task.Status == "" {
		task.Status = StatusTodo
	}
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}
	if input.AssigneeID != nil && *input.AssigneeID != "" {
		task.Assignee = &reference.User{ID: *input.AssigneeID}
	}

	if err := service.taskRepository.Create(context, task); err != nil {
		return nil, err
	}

	created, err := service.taskRepository.FindByID(context, task.ID)
	if err != nil {
		return nil, err
	}

	service.activity.Record(context, activity.Entry{
		UserID:     actor.UserID,
		Action:     "Created task",
		Target:     created.Title,
		TargetType: activity.TargetTask,
		ProjectID:  &created.ProjectID,
	})
	service.publisher.Publish(context, live.TaskCreated, createdEvent{
		Task:        created,
		User:        author.Name,
		ProjectName: project.Name,
	})

	ctxutil.GetLogger(context).InfoContext(context, "task_created",
		slog.String("task_id", created.ID),
		slog.String("project_id", created.ProjectID),
	)
	return created, nil
}

/*
Update edits a card.

Description: Admins and managers may change any field. A plain user may
only move a task assigned to them, so anything other than a status change
is rejected for them.

Returns:
  - *Task: The updated task
  - error: NotFound, Forbidden or storage failures
*/
func (service *Service) Update(context context.Context, actor *sec.AuthClaims, id string, input UpdateInput) (*Task, error) {
	task, err := service.taskRepository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	author, err := service.directory.User(context, actor.UserID)
	if err != nil {
		return nil, err
	}

	oldStatus := task.Status
	var action, change string

	if isStaff(actor) {
		applyUpdate(task, input)
		if input.Status != nil && *input.Status != oldStatus {
			action = "Moved task to " + string(*input.Status)
		} else {
			action = "Updated task"
		}
	} else {
		if !task.AssignedTo(actor.UserID) {
			return nil, apperr.Forbidden("Not authorized to update this task")
		}
		if input.Status == nil {
			return nil, apperr.Forbidden("Users can only update task status")
		}

		task.Status = *input.Status
		action = fmt.Sprintf("Moved task from %s to %s", oldStatus, task.Status)
		change = fmt.Sprintf("status: %s → %s", oldStatus, task.Status)
	}

	if err := service.taskRepository.Update(context, task); err != nil {
		return nil, err
	}

	updated, err := service.taskRepository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	service.activity.Record(context, activity.Entry{
		UserID:     actor.UserID,
		Action:     action,
		Target:     updated.Title,
		TargetType: activity.TargetTask,
		ProjectID:  &updated.ProjectID,
	})
	service.publisher.Publish(context, live.TaskUpdated, updatedEvent{
		Task:   updated,
		User:   author.Name,
		Change: change,
	})
	return updated, nil
}

func applyUpdate(task *Task, input UpdateInput) {
	if input.Title != nil {
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.ClearAssignee {
		task.Assignee = nil
	} else if input.AssigneeID != nil {
		task.Assignee = &reference.User{ID: *input.AssigneeID}
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.Tags != nil {
		task.Tags = input.Tags
	}
}

// Delete removes a card. Plain users cannot delete tasks.
func (service *Service) Delete(context context.Context, actor *sec.AuthClaims, id string) error {
	task, err := service.taskRepository.FindByID(context, id)
	if err != nil {
		return err
	}

	if !isStaff(actor) {
		return apperr.Forbidden("Users cannot delete tasks")
	}

	author, err := service.directory.User(context, actor.UserID)
	if err != nil {
		return err
	}

	if err := service.taskRepository.Delete(context, id); err != nil {
		return err
	}

	service.activity.Record(context, activity.Entry{
		UserID:     actor.UserID,
		Action:     "Deleted task",
		Target:     task.Title,
		TargetType: activity.TargetTask,
		ProjectID:  &task.ProjectID,
	})
	service.publisher.Publish(context, live.TaskDeleted, deletedEvent{
		TaskID:    id,
		TaskTitle: task.Title,
		User:      author.Name,
	})
	return nil
}
