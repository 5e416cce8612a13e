// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package task

import "context"

// Repository defines the persistence contract for tasks.
type Repository interface {
	// List returns the tasks matching filter, newest first.
	List(context context.Context, filter Filter) ([]*Task, error)

	// ListByProject returns the board of a project, oldest first.
	ListByProject(context context.Context, projectID string) ([]*Task, error)

	// FindByID returns a task with its project and people resolved.
	FindByID(context context.Context, id string) (*Task, error)

	// Create inserts task. Only the identifiers of its references are read.
	Create(context context.Context, task *Task) error

	// Update persists every editable column of task.
	Update(context context.Context, task *Task) error

	// Delete removes a task and, through the foreign key, its comments.
	Delete(context context.Context, id string) error

	/*
		Stats counts the tasks visible to viewerID.

		Parameters:
		  - viewerID: string (empty for an unrestricted count)
		  - userID: string (the account whose assignments feed MyTasks)
	*/
	Stats(context context.Context, viewerID, userID string) (*Stats, error)
}
