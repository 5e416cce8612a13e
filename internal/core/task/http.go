// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package task

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/sprinto/internal/platform/middleware"
	requestutil "github.com/taibuivan/sprinto/internal/platform/request"
	"github.com/taibuivan/sprinto/internal/platform/respond"
	"github.com/taibuivan/sprinto/internal/platform/sec"
	"github.com/taibuivan/sprinto/internal/platform/validate"
)

// Handler implements the /tasks endpoints.
type Handler struct {
	taskService *Service
}

// NewHandler constructs a task [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{taskService: service}
}

// Routes returns a [chi.Router] for the board. Every route requires a token.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/stats", handler.getStats)
	router.Get("/", handler.listTasks)
	router.With(middleware.RequireRole(sec.RoleManager)).Post("/", handler.createTask)
	router.Get("/{id}", handler.getTask)
	router.Put("/{id}", handler.updateTask)
	router.With(middleware.RequireRole(sec.RoleManager)).Delete("/{id}", handler.deleteTask)

	return router
}

// # Request Shapes

type createTaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Project     string   `json:"project"`
	Assignee    *string  `json:"assignee"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	DueDate     *string  `json:"dueDate"`
	Tags        []string `json:"tags"`
}

// updateTaskRequest keeps assignee and dueDate raw so that an explicit null
// can be told apart from an absent field.
type updateTaskRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Status      *string         `json:"status"`
	Priority    *string         `json:"priority"`
	Assignee    json.RawMessage `json:"assignee"`
	DueDate     json.RawMessage `json:"dueDate"`
	Tags        []string        `json:"tags"`
}

var (
	statuses   = []string{string(StatusTodo), string(StatusInProgress), string(StatusDone)}
	priorities = []string{string(PriorityLow), string(PriorityMedium), string(PriorityHigh)}
)

// parseDueDate accepts RFC 3339 timestamps and plain calendar dates.
func parseDueDate(value string) (time.Time, bool) {
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, true
	}
	if parsed, err := time.Parse(time.DateOnly, value); err == nil {
		return parsed, true
	}
	return time.Time{}, false
}

// nullable decodes an optional JSON string. It reports set=false when the
// field was absent and value=nil when it was an explicit null.
func nullable(raw json.RawMessage) (value *string, set bool, err error) {
	if len(raw) == 0 {
		return nil, false, nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, true, nil
	}
	var decoded string
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, true, err
	}
	return &decoded, true, nil
}

// # Handlers

/*
GET /api/tasks.

Request:
  - project, assignee, status, priority, search: string (optional filters)

Response:
  - 200: {count, tasks}
*/
func (handler *Handler) listTasks(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter := Filter{
		ProjectID:  requestutil.Query(request, FieldProject),
		AssigneeID: requestutil.Query(request, FieldAssignee),
		Status:     requestutil.Query(request, FieldStatus),
		Priority:   requestutil.Query(request, FieldPriority),
		Search:     requestutil.Query(request, FieldSearch),
	}

	validator := &validate.Validator{}
	if filter.ProjectID != "" {
		validator.UUID(FieldProject, filter.ProjectID)
	}
	if filter.AssigneeID != "" {
		validator.UUID(FieldAssignee, filter.AssigneeID)
	}
	if filter.Status != "" {
		validator.OneOf(FieldStatus, filter.Status, statuses...)
	}
	if filter.Priority != "" {
		validator.OneOf(FieldPriority, filter.Priority, priorities...)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	tasks, err := handler.taskService.List(request.Context(), claims, filter)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, respond.Body{FieldCount: len(tasks), FieldTasks: tasks})
}

// GET /api/tasks/stats.
func (handler *Handler) getStats(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	stats, err := handler.taskService.Stats(request.Context(), claims)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, respond.Body{FieldStats: stats})
}

// GET /api/tasks/{id}.
func (handler *Handler) getTask(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, "id", "Task")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	task, err := handler.taskService.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, respond.Body{FieldTask: task})
}

/*
POST /api/tasks (admin, manager).

Request:
  - Body: title, project (required); description, assignee, status, priority, dueDate, tags

Response:
  - 201: {task}
  - 403: The caller is not on the project
  - 404: Unknown project
*/
func (handler *Handler) createTask(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createTaskRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldTitle, input.Title).MaxLen(FieldTitle, input.Title, MaxTitleLength)
	validator.MaxLen(FieldDescription, input.Description, MaxDescriptionLength)
	validator.Required(FieldProject, input.Project).UUID(FieldProject, input.Project)
	if input.Assignee != nil && *input.Assignee != "" {
		validator.UUID(FieldAssignee, *input.Assignee)
	}
	if input.Status != "" {
		validator.OneOf(FieldStatus, input.Status, statuses...)
	}
	if input.Priority != "" {
		validator.OneOf(FieldPriority, input.Priority, priorities...)
	}

	create := CreateInput{
		Title:       input.Title,
		Description: input.Description,
		ProjectID:   input.Project,
		AssigneeID:  input.Assignee,
		Status:      Status(input.Status),
		Priority:    Priority(input.Priority),
		Tags:        input.Tags,
	}
	if input.DueDate != nil && *input.DueDate != "" {
		dueDate, ok := parseDueDate(*input.DueDate)
		validator.Custom(FieldDueDate, !ok, "Must be a date")
		create.DueDate = &dueDate
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	task, err := handler.taskService.Create(request.Context(), claims, create)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, respond.Body{FieldTask: task})
}

/*
PUT /api/tasks/{id}.

Request:
  - Body: any of title, description, status, priority, assignee, dueDate, tags.
    Plain users may only send status, for tasks assigned to them.

Response:
  - 200: {task}
  - 403: Not allowed to edit this task or these fields
*/
func (handler *Handler) updateTask(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id", "Task")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateTaskRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	update := UpdateInput{Title: input.Title, Description: input.Description, Tags: input.Tags}
	validator := &validate.Validator{}

	if input.Title != nil {
		validator.Required(FieldTitle, *input.Title).MaxLen(FieldTitle, *input.Title, MaxTitleLength)
	}
	if input.Description != nil {
		validator.MaxLen(FieldDescription, *input.Description, MaxDescriptionLength)
	}
	if input.Status != nil {
		validator.OneOf(FieldStatus, *input.Status, statuses...)
		status := Status(*input.Status)
		update.Status = &status
	}
	if input.Priority != nil {
		validator.OneOf(FieldPriority, *input.Priority, priorities...)
		priority := Priority(*input.Priority)
		update.Priority = &priority
	}

	assignee, assigneeSet, err := nullable(input.Assignee)
	validator.Custom(FieldAssignee, err != nil, "Must be a user ID or null")
	if assigneeSet && err == nil {
		if assignee == nil || *assignee == "" {
			update.ClearAssignee = true
		} else {
			validator.UUID(FieldAssignee, *assignee)
			update.AssigneeID = assignee
		}
	}

	dueDate, dueDateSet, err := nullable(input.DueDate)
	validator.Custom(FieldDueDate, err != nil, "Must be a date or null")
	if dueDateSet && err == nil {
		if dueDate == nil || *dueDate == "" {
			update.ClearDueDate = true
		} else {
			parsed, ok := parseDueDate(*dueDate)
			validator.Custom(FieldDueDate, !ok, "Must be a date")
			update.DueDate = &parsed
		}
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	task, err := handler.taskService.Update(request.Context(), claims, id, update)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, respond.Body{FieldTask: task})
}

// DELETE /api/tasks/{id} (admin, manager).
func (handler *Handler) deleteTask(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id", "Task")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.taskService.Delete(request.Context(), claims, id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Task deleted")
}
