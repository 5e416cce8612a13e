// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package comment

import (
	"context"
	"log/slog"
	"strings"

	"github.com/taibuivan/sprinto/internal/core/reference"
	"github.com/taibuivan/sprinto/internal/core/task"
	"github.com/taibuivan/sprinto/internal/live"
	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/internal/platform/sec"
	"github.com/taibuivan/sprinto/internal/system/activity"
	"github.com/taibuivan/sprinto/pkg/uuid"
)

// TaskLookup resolves the task a thread hangs off.
type TaskLookup interface {
	Get(ctx context.Context, id string) (*task.Task, error)
}

// Publisher announces a committed change to connected boards.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any)
}

// ActivityRecorder appends to the activity feed.
type ActivityRecorder interface {
	Record(ctx context.Context, entry activity.Entry)
}

type addedEvent struct {
	Comment   *Comment `json:"comment"`
	TaskID    string   `json:"taskId"`
	TaskTitle string   `json:"taskTitle"`
	User      string   `json:"user"`
}

type editedEvent struct {
	Comment *Comment `json:"comment"`
	TaskID  string   `json:"taskId"`
}

type deletedEvent struct {
	CommentID string `json:"commentId"`
	TaskID    string `json:"taskId"`
}

// ErrTextRequired is returned for an empty or blank comment body.
var ErrTextRequired = apperr.BadRequest("Comment text is required")

// Service implements the comment thread use cases.
type Service struct {
	commentRepository Repository
	tasks             TaskLookup
	directory         reference.Directory
	publisher         Publisher
	activity          ActivityRecorder
	logger            *slog.Logger
}

// NewService constructs a comment [Service].
func NewService(commentRepo Repository, tasks TaskLookup, directory reference.Directory, publisher Publisher, recorder ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{
		commentRepository: commentRepo,
		tasks:             tasks,
		directory:         directory,
		publisher:         publisher,
		activity:          recorder,
		logger:            logger,
	}
}

// List returns the thread of a task, oldest first. The task must exist.
func (service *Service) List(context context.Context, taskID string) ([]*Comment, error) {
	if _, err := service.tasks.Get(context, taskID); err != nil {
		return nil, err
	}
	return service.commentRepository.ListByTask(context, taskID)
}

/*
Add posts a comment on a task. Every role may comment.

Returns:
  - *Comment: The stored comment with its author resolved
  - error: ErrTextRequired, NotFound("Task") or storage failures
*/
func (service *Service) Add(context context.Context, actor *sec.AuthClaims, taskID, text string) (*Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrTextRequired
	}

	parent, err := service.tasks.Get(context, taskID)
	if err != nil {
		return nil, err
	}

	author, err := service.directory.User(context, actor.UserID)
	if err != nil {
		return nil, err
	}

	comment := &Comment{
		ID:     uuid.New(),
		TaskID: taskID,
		Author: reference.User{ID: actor.UserID},
		Text:   text,
	}
	if err := service.commentRepository.Create(context, comment); err != nil {
		return nil, err
	}

	created, err := service.commentRepository.FindByID(context, comment.ID)
	if err != nil {
		return nil, err
	}

	service.activity.Record(context, activity.Entry{
		UserID:     actor.UserID,
		Action:     "Commented on task",
		Target:     parent.Title,
		TargetType: activity.TargetTask,
		ProjectID:  &parent.ProjectID,
	})
	service.publisher.Publish(context, live.CommentAdded, addedEvent{
		Comment:   created,
		TaskID:    taskID,
		TaskTitle: parent.Title,
		User:      author.Name,
	})
	return created, nil
}

// Edit replaces the body of a comment. Only its author or an admin may edit.
func (service *Service) Edit(context context.Context, actor *sec.AuthClaims, id, text string) (*Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrTextRequired
	}

	comment, err := service.commentRepository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if comment.Author.ID != actor.UserID && !sec.UserRole(actor.Role).AtLeast(sec.RoleAdmin) {
		return nil, apperr.Forbidden("Not authorized to edit this comment")
	}

	if err := service.commentRepository.UpdateText(context, id, text); err != nil {
		return nil, err
	}

	edited, err := service.commentRepository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	service.publisher.Publish(context, live.CommentEdited, editedEvent{Comment: edited, TaskID: edited.TaskID})
	return edited, nil
}

// Delete removes a comment. Its author, managers and admins may delete it.
func (service *Service) Delete(context context.Context, actor *sec.AuthClaims, id string) error {
	comment, err := service.commentRepository.FindByID(context, id)
	if err != nil {
		return err
	}

	if comment.Author.ID != actor.UserID && !sec.UserRole(actor.Role).AtLeast(sec.RoleManager) {
		return apperr.Forbidden("Not authorized to delete this comment")
	}

	if err := service.commentRepository.Delete(context, id); err != nil {
		return err
	}

	service.publisher.Publish(context, live.CommentDeleted, deletedEvent{CommentID: id, TaskID: comment.TaskID})
	return nil
}
