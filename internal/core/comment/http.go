// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package comment

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/sprinto/internal/platform/middleware"
	requestutil "github.com/taibuivan/sprinto/internal/platform/request"
	"github.com/taibuivan/sprinto/internal/platform/respond"
	"github.com/taibuivan/sprinto/internal/platform/validate"
)

// Handler implements the /comments endpoints.
type Handler struct {
	commentService *Service
}

// NewHandler constructs a comment [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{commentService: service}
}

// Routes returns a [chi.Router] for comments.
//
// GET and POST address a task; PUT and DELETE address a comment.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/{id}", handler.listComments)
	router.Post("/{id}", handler.addComment)
	router.Put("/{id}", handler.editComment)
	router.Delete("/{id}", handler.deleteComment)

	return router
}

type commentRequest struct {
	Text string `json:"text"`
}

func decodeText(writer http.ResponseWriter, request *http.Request) (string, error) {
	var input commentRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		return "", err
	}
	if err := (&validate.Validator{}).MaxLen(FieldText, input.Text, MaxTextLength).Err(); err != nil {
		return "", err
	}
	return input.Text, nil
}

// GET /api/comments/{taskId}.
func (handler *Handler) listComments(writer http.ResponseWriter, request *http.Request) {
	taskID, err := requestutil.ID(request, "id", "Task")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	comments, err := handler.commentService.List(request.Context(), taskID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, respond.Body{FieldCount: len(comments), FieldComments: comments})
}

/*
POST /api/comments/{taskId}.

Request:
  - Body: text (required, at most 2000 characters)

Response:
  - 201: {comment}
  - 400: Empty text
  - 404: Unknown task
*/
func (handler *Handler) addComment(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	taskID, err := requestutil.ID(request, "id", "Task")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	text, err := decodeText(writer, request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	comment, err := handler.commentService.Add(request.Context(), claims, taskID, text)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, respond.Body{FieldComment: comment})
}

// PUT /api/comments/{commentId} (author or admin).
func (handler *Handler) editComment(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id", "Comment")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	text, err := decodeText(writer, request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	comment, err := handler.commentService.Edit(request.Context(), claims, id, text)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, respond.Body{FieldComment: comment})
}

// DELETE /api/comments/{commentId} (author, manager or admin).
func (handler *Handler) deleteComment(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id", "Comment")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.commentService.Delete(request.Context(), claims, id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Comment deleted")
}
