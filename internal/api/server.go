// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - The live WebSocket endpoint shares the router but sits outside the request timeout.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/sprinto/internal/core/comment"
	"github.com/taibuivan/sprinto/internal/core/project"
	"github.com/taibuivan/sprinto/internal/core/task"
	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/internal/platform/config"
	"github.com/taibuivan/sprinto/internal/platform/constants"
	"github.com/taibuivan/sprinto/internal/platform/metrics"
	"github.com/taibuivan/sprinto/internal/platform/middleware"
	"github.com/taibuivan/sprinto/internal/platform/respond"
	"github.com/taibuivan/sprinto/internal/system/activity"
	"github.com/taibuivan/sprinto/internal/users/account"
	"github.com/taibuivan/sprinto/internal/users/auth"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler; it returns 503 while a dependency is down.
	Readiness http.HandlerFunc

	// Metrics serves the Prometheus scrape endpoint.
	Metrics http.Handler

	// Live upgrades /ws to the board WebSocket.
	Live http.Handler

	Auth     *auth.Handler
	Users    *account.Handler
	Projects *project.Handler
	Tasks    *task.Handler
	Comments *comment.Handler
	Logs     *activity.Handler
}

// Guards are the request filters shared by every route.
type Guards struct {
	Verifier    middleware.TokenVerifier
	Resolver    middleware.IdentityResolver
	RateLimiter *middleware.RateLimiter

	// Collector may be nil, which disables request metrics.
	Collector *metrics.Collector
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(cfg *config.Config, log *slog.Logger, guards Guards, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	if guards.RateLimiter != nil {
		r.Use(guards.RateLimiter.Handler)
	}
	if guards.Collector != nil {
		r.Use(metrics.Instrument(guards.Collector))
	}
	r.Use(chimw.CleanPath)

	r.NotFound(func(writer http.ResponseWriter, request *http.Request) {
		respond.Error(writer, request, apperr.NotFound("Route"))
	})

	// # Infrastructure Endpoints
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	// # Live Updates
	// Clients announce themselves with a register frame, so the upgrade
	// itself is anonymous.
	if h.Live != nil {
		r.Method(http.MethodGet, "/ws", h.Live)
	}

	// # Application API
	r.Route("/api", func(api chi.Router) {
		api.Use(chimw.Timeout(constants.GlobalRequestTimeout))
		api.Use(middleware.Authenticate(guards.Verifier, guards.Resolver))

		api.Mount("/auth", h.Auth.Routes())
		api.Mount("/users", h.Users.Routes())
		api.Mount("/projects", h.Projects.Routes())
		api.Mount("/tasks", h.Tasks.Routes())
		api.Mount("/comments", h.Comments.Routes())
		api.With(middleware.RequireAuth).Mount("/logs", h.Logs.Routes())
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
// Hijacked WebSocket connections are not tracked by [http.Server] and must be
// closed separately.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
