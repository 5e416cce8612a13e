// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package activity

import (
	"context"
	"log/slog"

	"github.com/taibuivan/sprinto/internal/platform/ctxutil"
	"github.com/taibuivan/sprinto/internal/platform/sec"
	"github.com/taibuivan/sprinto/pkg/pagination"
	"github.com/taibuivan/sprinto/pkg/uuid"
)

// Service records and lists activity.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs an activity [Service].
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record appends entry. Failures are logged and swallowed.
func (service *Service) Record(context context.Context, entry Entry) {
	if err := service.repo.Insert(context, uuid.New(), entry); err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "activity_record_failed",
			slog.String("action", entry.Action),
			slog.String("user_id", entry.UserID),
			slog.Any("error", err),
		)
	}
}

/*
List returns a page of the feed visible to the viewer.

Admins see everything. Everyone else only sees entries attached to projects
they manage or belong to, even when they ask for a specific project.

Parameters:
  - context: context.Context
  - viewer: *sec.AuthClaims
  - projectID: string (optional)
  - page: pagination.Params

Returns:
  - []*Log: The page
  - pagination.Meta: Paging metadata
  - error: Retrieval failures
*/
func (service *Service) List(context context.Context, viewer *sec.AuthClaims, projectID string, page pagination.Params) ([]*Log, pagination.Meta, error) {
	filter := Filter{ProjectID: projectID}
	if !sec.UserRole(viewer.Role).AtLeast(sec.RoleAdmin) {
		filter.ViewerID = viewer.UserID
	}

	logs, total, err := service.repo.List(context, filter, page.Limit, page.Offset())
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return logs, pagination.NewMeta(page, total), nil
}
