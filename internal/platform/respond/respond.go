// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package respond provides HTTP response helpers used by all API handlers.
//
// # Envelope
//
// Every response is a flat JSON object carrying a boolean "success" next to
// the payload fields, e.g. {"success":true,"accessToken":"...","user":{...}}.
// Errors use {"success":false,"message":"...","code":"..."}.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/internal/platform/constants"
	"github.com/taibuivan/sprinto/internal/platform/ctxutil"
	"github.com/taibuivan/sprinto/pkg/pagination"
)

// Body is the set of payload fields merged into the success envelope.
type Body map[string]any

// ErrorEnvelope is the JSON envelope for error responses.
type ErrorEnvelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Code    string              `json:"code"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 OK success envelope.
func OK(writer http.ResponseWriter, body Body) {
	JSON(writer, http.StatusOK, envelope(body))
}

// Created writes a 201 Created success envelope.
func Created(writer http.ResponseWriter, body Body) {
	JSON(writer, http.StatusCreated, envelope(body))
}

// Message writes a 200 OK envelope that only carries a message.
func Message(writer http.ResponseWriter, message string) {
	OK(writer, Body{constants.FieldMessage: message})
}

// Paginated writes a 200 OK envelope with items under key and a pagination block.
func Paginated(writer http.ResponseWriter, key string, items interface{}, metadata pagination.Meta) {
	OK(writer, Body{key: items, "pagination": metadata})
}

// NoContent writes a 204 No Content response.
func NoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

func envelope(body Body) Body {
	out := make(Body, len(body)+1)
	for key, value := range body {
		out[key] = value
	}
	out[constants.FieldSuccess] = true
	return out
}

// Error converts any Go error into a standardized JSON API error response.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	ctx := request.Context()
	logger := ctxutil.GetLogger(ctx)

	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		// Unexpected internal error: log full details but hide them from the client.
		logger.ErrorContext(ctx, "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("request_id", ctxutil.GetRequestID(ctx)),
		)
		appError = apperr.Internal(err)
	}

	// Always log 5xx errors as they indicate server-side issues.
	if appError.HTTPStatus >= 500 {
		logger.ErrorContext(ctx, "api_server_error",
			slog.String("code", appError.Code),
			slog.String("request_id", ctxutil.GetRequestID(ctx)),
			slog.Any("cause", appError.Cause),
		)
	}

	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		Success: false,
		Message: appError.Message,
		Code:    appError.Code,
		Details: appError.Details,
	})
}
