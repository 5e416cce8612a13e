// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/sprinto/internal/platform/constants"
	"github.com/taibuivan/sprinto/internal/platform/respond"
)

// readinessTimeout bounds each dependency check.
const readinessTimeout = 2 * time.Second

// HealthDependencies holds the injectable dependency checkers for the /ready endpoint.
type HealthDependencies struct {
	// CheckDatabase pings the PostgreSQL pool.
	CheckDatabase func(ctx context.Context) error

	// CheckCache pings the Redis client.
	CheckCache func(ctx context.Context) error

	// LiveConnections reports the number of open WebSocket connections.
	LiveConnections func() int
}

type healthHandler struct {
	dependencies HealthDependencies
	logger       *slog.Logger
}

type checkResult struct {
	Name  string `json:"name"`
	IsOK  bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// NewHealthHandlers creates the /health and /ready http.HandlerFuncs.
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{dependencies: deps, logger: logger}
	return handler.liveness, handler.readiness
}

// liveness handles GET /health.
func (handler *healthHandler) liveness(writer http.ResponseWriter, _ *http.Request) {
	body := respond.Body{
		constants.FieldStatus:  "ok",
		constants.FieldApp:     constants.AppName,
		constants.FieldVersion: constants.AppVersion,
	}
	if handler.dependencies.LiveConnections != nil {
		body["connections"] = handler.dependencies.LiveConnections()
	}
	respond.OK(writer, body)
}

func (handler *healthHandler) check(ctx context.Context, name string, probe func(context.Context) error) checkResult {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	result := checkResult{Name: name, IsOK: true}
	if err := probe(ctx); err != nil {
		result.IsOK = false
		result.Error = err.Error()
		handler.logger.Error("readiness_check_failed", slog.String("dependency", name), slog.Any("error", err))
	}
	return result
}

// readiness handles GET /ready.
func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {
	results := make([]checkResult, 0, 2)

	if handler.dependencies.CheckDatabase != nil {
		results = append(results, handler.check(request.Context(), "postgres", handler.dependencies.CheckDatabase))
	}
	if handler.dependencies.CheckCache != nil {
		results = append(results, handler.check(request.Context(), "redis", handler.dependencies.CheckCache))
	}

	responseStatus, httpStatus, ready := "ready", http.StatusOK, true
	for _, result := range results {
		if !result.IsOK {
			responseStatus, httpStatus, ready = "degraded", http.StatusServiceUnavailable, false
			break
		}
	}

	respond.JSON(writer, httpStatus, respond.Body{
		constants.FieldSuccess: ready,
		constants.FieldStatus:  responseStatus,
		constants.FieldChecks:  results,
	})
}
