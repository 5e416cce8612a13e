// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package comment implements the discussion thread under each task.
package comment

import (
	"time"

	"github.com/taibuivan/sprinto/internal/core/reference"
)

// Comment is a message on a task with its author resolved.
type Comment struct {
	ID        string         `json:"id"`
	TaskID    string         `json:"taskId"`
	Author    reference.User `json:"author"`
	Text      string         `json:"text"`
	Edited    bool           `json:"edited"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// MaxTextLength bounds a comment body.
const MaxTextLength = 2000

const (
	FieldComments = "comments"
	FieldComment  = "comment"
	FieldCount    = "count"
	FieldText     = "text"
)
