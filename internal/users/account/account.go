// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account manages the workspace member directory.

Members can be listed, inspected and edited. Removal is a deactivation: the
row stays so tasks, comments and logs keep resolving the author, and the
refresh token is cleared so the member is signed out everywhere.

# Architecture

  - Entities: [auth.User] is reused; this package adds [Stats].
  - Domain: depends on the auth package for the account entity.
*/
package account

import (
	"context"

	"github.com/taibuivan/sprinto/internal/platform/sec"
	"github.com/taibuivan/sprinto/internal/users/auth"
)

// # Domain Entities

// Stats summarizes the tasks assigned to a member.
type Stats struct {
	Total          int `json:"total"`
	Done           int `json:"done"`
	InProgress     int `json:"inProgress"`
	Todo           int `json:"todo"`
	CompletionRate int `json:"completionRate"`
}

// UpdateInput lists the editable profile fields. Nil leaves a field alone.
type UpdateInput struct {
	Name  *string
	Email *string
	Color *string
	Role  *sec.UserRole
}

// # Repository Contracts

// Repository defines the persistence contract for the member directory.
type Repository interface {

	// ListActive returns active members ordered by name.
	ListActive(context context.Context) ([]*auth.User, error)

	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		Update writes the profile fields of user.

		Parameters:
		  - context: context.Context
		  - user: *auth.User (name, email, color, role and avatar are written)

		Returns:
		  - error: Conflict on a taken email, NotFound, or storage failures
	*/
	Update(context context.Context, user *auth.User) error

	// Deactivate flips the active flag off and clears the refresh token.
	Deactivate(context context.Context, id string) error

	// TaskStats counts the tasks assigned to userID per status.
	TaskStats(context context.Context, userID string) (*Stats, error)
}

// # Field Identifiers

const (
	FieldUsers = "users"
	FieldUser  = "user"
	FieldCount = "count"
	FieldStats = "stats"
	FieldName  = "name"
	FieldEmail = "email"
	FieldColor = "color"
	FieldRole  = "role"
)
