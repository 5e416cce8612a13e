// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package project

import "context"

// Repository defines the persistence contract for projects and memberships.
type Repository interface {
	// List returns projects newest first. A non-empty viewerID limits the
	// result to projects that account manages or belongs to.
	List(context context.Context, viewerID string) ([]*Project, error)

	FindByID(context context.Context, id string) (*Project, error)

	// Create inserts the project and its member list atomically.
	Create(context context.Context, project *Project) error

	// Update persists the editable columns. When replaceMembers is set the
	// member list is replaced in the same transaction.
	Update(context context.Context, project *Project, replaceMembers bool) error

	// Delete removes the project together with its tasks.
	Delete(context context.Context, id string) error

	AddMember(context context.Context, projectID, userID string) error
	RemoveMember(context context.Context, projectID, userID string) error
}
