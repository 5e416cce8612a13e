// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package comment

import "context"

// Repository defines the persistence contract for comments.
type Repository interface {
	// ListByTask returns the thread of a task, oldest first.
	ListByTask(context context.Context, taskID string) ([]*Comment, error)
	FindByID(context context.Context, id string) (*Comment, error)
	Create(context context.Context, comment *Comment) error
	// UpdateText replaces the body and marks the comment as edited.
	UpdateText(context context.Context, id, text string) error
	Delete(context context.Context, id string) error
}
