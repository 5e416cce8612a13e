// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package activity

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/sprinto/internal/platform/request"
	"github.com/taibuivan/sprinto/internal/platform/respond"
	"github.com/taibuivan/sprinto/pkg/pagination"
)

// Handler serves the activity feed.
type Handler struct {
	service *Service
}

// NewHandler constructs an activity [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts GET / (the router is expected behind RequireAuth).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.listLogs)
	return router
}

/*
GET /api/logs.

Request:
  - project: string (optional project UUID)
  - page, limit: int (limit defaults to 50)

Response:
  - 200: {logs, pagination}
*/
func (handler *Handler) listLogs(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	projectID, err := requestutil.QueryID(request, FieldProject, "Project")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	logs, meta, err := handler.service.List(request.Context(), claims, projectID, pagination.FromRequest(request, DefaultLimit))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, FieldLogs, logs, meta)
}
