// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sprinto/internal/api"
	"github.com/taibuivan/sprinto/internal/core/comment"
	"github.com/taibuivan/sprinto/internal/core/project"
	"github.com/taibuivan/sprinto/internal/core/task"
	"github.com/taibuivan/sprinto/internal/platform/config"
	"github.com/taibuivan/sprinto/internal/platform/sec"
	"github.com/taibuivan/sprinto/internal/system/activity"
	"github.com/taibuivan/sprinto/internal/users/account"
	"github.com/taibuivan/sprinto/internal/users/auth"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubVerifier struct{}

func (stubVerifier) VerifyToken(token string) (*sec.AuthClaims, error) {
	if token != "user-token" {
		return nil, sec.ErrInvalidToken
	}
	return &sec.AuthClaims{UserID: "u-1", Role: string(sec.RoleUser), Class: sec.ClassAccess}, nil
}

type stubResolver struct{}

func (stubResolver) ResolveIdentity(context.Context, string) (sec.UserRole, bool, error) {
	return sec.RoleUser, true, nil
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

/*
TestHealth verifies the liveness payload and the readiness verdict.
*/
func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		cacheErr   error
		wantStatus int
		wantState  string
	}{
		{name: "ready", wantStatus: http.StatusOK, wantState: "ready"},
		{name: "degraded", cacheErr: errors.New("redis down"), wantStatus: http.StatusServiceUnavailable, wantState: "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
				CheckDatabase:   func(context.Context) error { return nil },
				CheckCache:      func(context.Context) error { return tt.cacheErr },
				LiveConnections: func() int { return 3 },
			}, discard())

			recorder := httptest.NewRecorder()
			liveness(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, http.StatusOK, recorder.Code)
			assert.Equal(t, float64(3), decode(t, recorder)["connections"])

			recorder = httptest.NewRecorder()
			readiness(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.wantStatus, recorder.Code)

			body := decode(t, recorder)
			assert.Equal(t, tt.wantState, body["status"])
			assert.Len(t, body["checks"], 2)
		})
	}
}

/*
TestServer_Routes verifies the mounted prefixes and the auth chain in front of them.
*/
func TestServer_Routes(t *testing.T) {
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{}, discard())
	server := api.NewServer(&config.Config{ServerPort: "0", Environment: "development"}, discard(), api.Guards{
		Verifier: stubVerifier{},
		Resolver: stubResolver{},
	}, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(nil, auth.Gates{}),
		Users:     account.NewHandler(nil),
		Projects:  project.NewHandler(nil),
		Tasks:     task.NewHandler(nil),
		Comments:  comment.NewHandler(nil),
		Logs:      activity.NewHandler(nil),
	})

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{name: "health", method: http.MethodGet, path: "/health", status: http.StatusOK},
		{name: "ready", method: http.MethodGet, path: "/ready", status: http.StatusOK},
		{name: "unknown_route", method: http.MethodGet, path: "/nope", status: http.StatusNotFound},
		{name: "tasks_anonymous", method: http.MethodGet, path: "/api/tasks", status: http.StatusUnauthorized},
		{name: "projects_anonymous", method: http.MethodGet, path: "/api/projects", status: http.StatusUnauthorized},
		{name: "users_anonymous", method: http.MethodGet, path: "/api/users", status: http.StatusUnauthorized},
		{name: "logs_anonymous", method: http.MethodGet, path: "/api/logs", status: http.StatusUnauthorized},
		{name: "comments_anonymous", method: http.MethodGet, path: "/api/comments/0190a8a4-0000-7000-8000-000000000001", status: http.StatusUnauthorized},
		{name: "bad_token", method: http.MethodGet, path: "/api/tasks", token: "forged", status: http.StatusUnauthorized},
		{name: "user_cannot_create_project", method: http.MethodPost, path: "/api/projects", token: "user-token", status: http.StatusForbidden},
		{name: "user_cannot_create_task", method: http.MethodPost, path: "/api/tasks", token: "user-token", status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				request.Header.Set("Authorization", "Bearer "+tt.token)
			}
			recorder := httptest.NewRecorder()
			server.Handler().ServeHTTP(recorder, request)

			assert.Equal(t, tt.status, recorder.Code)
			assert.NotEmpty(t, recorder.Header().Get("X-Request-ID"))
		})
	}
}
