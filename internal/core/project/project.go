// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package project manages the boards that group tasks and people.

A project has one manager and a member list. Admins see every project; anyone
else only sees the projects they manage or belong to.
*/
package project

import (
	"slices"
	"time"

	"github.com/taibuivan/sprinto/internal/core/reference"
	"github.com/taibuivan/sprinto/pkg/slice"
)

// Status is the lifecycle state of a project.
type Status string

const (
	StatusActive    Status = "active"
	StatusArchived  Status = "archived"
	StatusCompleted Status = "completed"
)

// TaskCounts summarises the board of a project.
type TaskCounts struct {
	Total      int `json:"total"`
	Done       int `json:"done"`
	InProgress int `json:"inProgress"`
	Todo       int `json:"todo"`
}

// Project is a board with its people resolved.
type Project struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Description string           `json:"description"`
	Color       string           `json:"color"`
	Status      Status           `json:"status"`
	Manager     reference.User   `json:"manager"`
	Members     []reference.User `json:"members"`
	TaskCounts  TaskCounts       `json:"taskCounts"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// MemberIDs returns the identifiers of the members.
func (project *Project) MemberIDs() []string {
	return slice.Map(project.Members, func(member reference.User) string { return member.ID })
}

// HasMember reports whether userID is on the member list.
func (project *Project) HasMember(userID string) bool {
	return slices.Contains(project.MemberIDs(), userID)
}

// Allows reports whether userID manages or belongs to the project.
func (project *Project) Allows(userID string) bool {
	return project.Manager.ID == userID || project.HasMember(userID)
}

// CreateInput carries a new project.
type CreateInput struct {
	Name        string
	Description string
	Color       string
	MemberIDs   []string
}

// UpdateInput is a partial update. A nil MemberIDs leaves the members alone;
// a non-nil one replaces them.
type UpdateInput struct {
	Name        *string
	Description *string
	Color       *string
	Status      *Status
	MemberIDs   []string
}

// Limits and defaults.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
	DefaultColor         = "#6366f1"
)

const (
	FieldProjects    = "projects"
	FieldProject     = "project"
	FieldTasks       = "tasks"
	FieldCount       = "count"
	FieldName        = "name"
	FieldDescription = "description"
	FieldColor       = "color"
	FieldStatus      = "status"
	FieldMembers     = "members"
	FieldUserID      = "userId"
)
