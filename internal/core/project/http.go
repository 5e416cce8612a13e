// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package project

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/sprinto/internal/platform/middleware"
	requestutil "github.com/taibuivan/sprinto/internal/platform/request"
	"github.com/taibuivan/sprinto/internal/platform/respond"
	"github.com/taibuivan/sprinto/internal/platform/sec"
	"github.com/taibuivan/sprinto/internal/platform/validate"
)

// Handler implements the /projects endpoints.
type Handler struct {
	projectService *Service
}

// NewHandler constructs a project [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{projectService: service}
}

// Routes returns a [chi.Router] for projects. Every route requires a token.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.listProjects)
	router.Get("/{id}", handler.getProject)

	router.Group(func(staff chi.Router) {
		staff.Use(middleware.RequireRole(sec.RoleManager))
		staff.Post("/", handler.createProject)
		staff.Put("/{id}", handler.updateProject)
		staff.Post("/{id}/members", handler.addMember)
		staff.Delete("/{id}/members/{userId}", handler.removeMember)
	})

	router.With(middleware.RequireRole(sec.RoleAdmin)).Delete("/{id}", handler.deleteProject)

	return router
}

type createProjectRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Color       string   `json:"color"`
	Members     []string `json:"members"`
}

type updateProjectRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Color       *string  `json:"color"`
	Status      *string  `json:"status"`
	Members     []string `json:"members"`
}

type addMemberRequest struct {
	UserID string `json:"userId"`
}

func validateMembers(validator *validate.Validator, members []string) {
	for _, member := range members {
		validator.UUID(FieldMembers, member)
	}
}

// GET /api/projects.
func (handler *Handler) listProjects(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	projects, err := handler.projectService.List(request.Context(), claims)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, respond.Body{FieldCount: len(projects), FieldProjects: projects})
}

// GET /api/projects/{id} responds with {project, tasks}.
func (handler *Handler) getProject(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id", "Project")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	project, tasks, err := handler.projectService.Get(request.Context(), claims, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, respond.Body{FieldProject: project, FieldTasks: tasks})
}

/*
POST /api/projects (admin, manager).

Request:
  - Body: name (required), description, color, members

Response:
  - 201: {project}
*/
func (handler *Handler) createProject(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createProjectRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, MaxNameLength)
	validator.MaxLen(FieldDescription, input.Description, MaxDescriptionLength)
	if input.Color != "" {
		validator.HexColor(FieldColor, input.Color)
	}
	validateMembers(validator, input.Members)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	project, err := handler.projectService.Create(request.Context(), claims, CreateInput{
		Name:        input.Name,
		Description: input.Description,
		Color:       input.Color,
		MemberIDs:   input.Members,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, respond.Body{FieldProject: project})
}

/*
PUT /api/projects/{id} (admin, or the project's manager).

Request:
  - Body: any of name, description, color, status, members

Response:
  - 200: {project}
  - 403: Managers editing a project they do not manage
*/
func (handler *Handler) updateProject(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id", "Project")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateProjectRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	update := UpdateInput{Name: input.Name, Description: input.Description, Color: input.Color, MemberIDs: input.Members}
	validator := &validate.Validator{}
	if input.Name != nil {
		validator.Required(FieldName, *input.Name).MaxLen(FieldName, *input.Name, MaxNameLength)
	}
	if input.Description != nil {
		validator.MaxLen(FieldDescription, *input.Description, MaxDescriptionLength)
	}
	if input.Color != nil {
		validator.HexColor(FieldColor, *input.Color)
	}
	if input.Status != nil {
		validator.OneOf(FieldStatus, *input.Status, string(StatusActive), string(StatusArchived), string(StatusCompleted))
		status := Status(*input.Status)
		update.Status = &status
	}
	validateMembers(validator, input.Members)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	project, err := handler.projectService.Update(request.Context(), claims, id, update)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, respond.Body{FieldProject: project})
}

// DELETE /api/projects/{id} (admin).
func (handler *Handler) deleteProject(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id", "Project")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.projectService.Delete(request.Context(), claims, id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Project deleted")
}

// POST /api/projects/{id}/members responds with the refreshed {project}.
func (handler *Handler) addMember(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id", "Project")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input addMemberRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := (&validate.Validator{}).Required(FieldUserID, input.UserID).UUID(FieldUserID, input.UserID).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	project, err := handler.projectService.AddMember(request.Context(), claims, id, input.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, respond.Body{FieldProject: project})
}

// DELETE /api/projects/{id}/members/{userId}.
func (handler *Handler) removeMember(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id", "Project")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	userID, err := requestutil.ID(request, "userId", "User")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.projectService.RemoveMember(request.Context(), claims, id, userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Member removed")
}
