// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package activity keeps the workspace audit trail shown in the activity feed.

Services append an [Entry] after their own write has committed ("Created
task", "Moved task from todo to done", "Joined the workspace"). A failed
append is logged and never fails the mutation that produced it.
*/
package activity

import (
	"time"

	"github.com/taibuivan/sprinto/internal/core/reference"
)

// TargetType names the kind of resource an entry is about.
type TargetType string

const (
	TargetTask    TargetType = "task"
	TargetProject TargetType = "project"
	TargetUser    TargetType = "user"
	TargetSystem  TargetType = "system"
)

// Entry is the write model of a log line.
type Entry struct {
	UserID     string
	Action     string
	Target     string
	TargetType TargetType
	ProjectID  *string
	Meta       map[string]any
}

// Log is a stored entry with its actor and project resolved.
type Log struct {
	ID         string             `json:"id"`
	User       reference.User     `json:"user"`
	Action     string             `json:"action"`
	Target     string             `json:"target"`
	TargetType TargetType         `json:"targetType"`
	Project    *reference.Project `json:"project"`
	Meta       map[string]any     `json:"meta"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// Filter narrows a listing.
type Filter struct {
	// ProjectID restricts the feed to one project when set.
	ProjectID string
	// ViewerID limits the feed to projects the viewer manages or belongs to.
	// Empty means unrestricted (admins).
	ViewerID string
}

// DefaultLimit is the page size of the feed.
const DefaultLimit = 50

const (
	FieldLogs    = "logs"
	FieldProject = "project"
)
