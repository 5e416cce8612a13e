// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reference

import (
	"context"
	"slices"
)

// # Directory

// Directory resolves the compact views that services need while building
// activity entries and event payloads.
type Directory interface {

	/*
		User returns the compact view of an account.

		Returns:
		  - *User: The account, active or not
		  - error: apperr.NotFound("User") when no such account exists
	*/
	User(context context.Context, id string) (*User, error)

	/*
		Project returns a project together with the identities allowed on it.

		Returns:
		  - *ProjectAccess: The project, its manager and its members
		  - error: apperr.NotFound("Project") when no such project exists
	*/
	Project(context context.Context, id string) (*ProjectAccess, error)
}

// ProjectAccess pairs a project with the accounts allowed to work on it.
type ProjectAccess struct {
	Project
	ManagerID string
	MemberIDs []string
}

// Allows reports whether userID manages or belongs to the project.
func (access *ProjectAccess) Allows(userID string) bool {
	return access.ManagerID == userID || slices.Contains(access.MemberIDs, userID)
}
