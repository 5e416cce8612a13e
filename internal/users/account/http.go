// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/sprinto/internal/platform/middleware"
	requestutil "github.com/taibuivan/sprinto/internal/platform/request"
	"github.com/taibuivan/sprinto/internal/platform/respond"
	"github.com/taibuivan/sprinto/internal/platform/sec"
	"github.com/taibuivan/sprinto/internal/platform/validate"
	"github.com/taibuivan/sprinto/internal/users/auth"
)

// Handler implements the /users endpoints. All of them require a bearer token.
type Handler struct {
	accountService *Service
}

// NewHandler constructs an account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] for the member directory.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.listUsers)
	router.Get("/{id}", handler.getUser)
	router.Put("/{id}", handler.updateUser)
	router.With(middleware.RequireRole(sec.RoleAdmin)).Delete("/{id}", handler.deleteUser)
	router.Get("/{id}/stats", handler.getUserStats)

	return router
}

type updateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Color *string `json:"color"`
	Role  *string `json:"role"`
}

// GET /api/users.
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	users, err := handler.accountService.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, respond.Body{FieldCount: len(users), FieldUsers: users})
}

// GET /api/users/{id}.
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, "id", "User")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, respond.Body{FieldUser: user})
}

/*
PUT /api/users/{id}.

Request:
  - Body: name, email, color, role (all optional; role applies for admins only)

Response:
  - 200: {user}
  - 403: Editing someone else without being admin
*/
func (handler *Handler) updateUser(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id", "User")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateUserRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if input.Name != nil {
		validator.Required(FieldName, *input.Name).MaxLen(FieldName, *input.Name, auth.MaxNameLength)
	}
	if input.Email != nil {
		validator.Email(FieldEmail, *input.Email)
	}
	if input.Color != nil {
		validator.HexColor(FieldColor, *input.Color)
	}
	if input.Role != nil {
		validator.OneOf(FieldRole, *input.Role, string(sec.RoleAdmin), string(sec.RoleManager), string(sec.RoleUser))
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	update := UpdateInput{Name: input.Name, Email: input.Email, Color: input.Color}
	if input.Role != nil {
		role := sec.UserRole(*input.Role)
		update.Role = &role
	}

	user, err := handler.accountService.Update(request.Context(), claims, id, update)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, respond.Body{FieldUser: user})
}

// DELETE /api/users/{id} (admin).
func (handler *Handler) deleteUser(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id", "User")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.Deactivate(request.Context(), claims, id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "User deactivated")
}

// GET /api/users/{id}/stats.
func (handler *Handler) getUserStats(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, "id", "User")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	stats, err := handler.accountService.Stats(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, respond.Body{FieldStats: stats})
}
