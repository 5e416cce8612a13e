// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package task implements the kanban cards of a project.

A task moves between three columns (todo, in-progress, done). Admins and
managers edit everything about a card; plain users may only move the cards
assigned to them. Every mutation is recorded in the activity feed and then
announced to connected boards.
*/
package task

import (
	"time"

	"github.com/taibuivan/sprinto/internal/core/reference"
)

// Status is the board column of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Priority ranks tasks inside a column.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Task is a card on a project board with its people resolved.
type Task struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Status      Status             `json:"status"`
	Priority    Priority           `json:"priority"`
	ProjectID   string             `json:"projectId"`
	Project     *reference.Project `json:"project,omitempty"`
	Assignee    *reference.User    `json:"assignee"`
	CreatedBy   reference.User     `json:"createdBy"`
	DueDate     *time.Time         `json:"dueDate"`
	Tags        []string           `json:"tags"`
	Order       int                `json:"order"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// AssignedTo reports whether userID is the assignee.
func (task *Task) AssignedTo(userID string) bool {
	return task.Assignee != nil && task.Assignee.ID == userID
}

// Filter narrows a task listing. Empty fields are ignored.
type Filter struct {
	ProjectID  string
	AssigneeID string
	Status     string
	Priority   string
	// Search matches the title case-insensitively.
	Search string
	// ViewerID limits results to projects the viewer manages or belongs to.
	ViewerID string
}

// Stats holds the dashboard counters.
type Stats struct {
	Total      int `json:"total"`
	Done       int `json:"done"`
	InProgress int `json:"inProgress"`
	Todo       int `json:"todo"`
	MyTasks    int `json:"myTasks"`
	Overdue    int `json:"overdue"`
}

// CreateInput carries a new card.
type CreateInput struct {
	Title       string
	Description string
	ProjectID   string
	AssigneeID  *string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
	Tags        []string
}

// UpdateInput is a partial update. Nil fields are left untouched; the Clear
// flags unset the assignee or the due date.
type UpdateInput struct {
	Title         *string
	Description   *string
	Status        *Status
	Priority      *Priority
	AssigneeID    *string
	ClearAssignee bool
	DueDate       *time.Time
	ClearDueDate  bool
	Tags          []string
}

// Limits enforced on input.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)

const (
	FieldTasks       = "tasks"
	FieldTask        = "task"
	FieldStats       = "stats"
	FieldCount       = "count"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldProject     = "project"
	FieldAssignee    = "assignee"
	FieldStatus      = "status"
	FieldPriority    = "priority"
	FieldDueDate     = "dueDate"
	FieldTags        = "tags"
	FieldSearch      = "search"
)
