// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Sprinto HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire platform services, the live hub and the domain handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/taibuivan/sprinto/internal/api"
	"github.com/taibuivan/sprinto/internal/core/comment"
	"github.com/taibuivan/sprinto/internal/core/project"
	"github.com/taibuivan/sprinto/internal/core/reference"
	"github.com/taibuivan/sprinto/internal/core/task"
	"github.com/taibuivan/sprinto/internal/live"
	"github.com/taibuivan/sprinto/internal/platform/config"
	"github.com/taibuivan/sprinto/internal/platform/constants"
	"github.com/taibuivan/sprinto/internal/platform/effect"
	"github.com/taibuivan/sprinto/internal/platform/mailer"
	"github.com/taibuivan/sprinto/internal/platform/metrics"
	"github.com/taibuivan/sprinto/internal/platform/middleware"
	"github.com/taibuivan/sprinto/internal/platform/migration"
	pgstore "github.com/taibuivan/sprinto/internal/platform/postgres"
	redisstore "github.com/taibuivan/sprinto/internal/platform/redis"
	"github.com/taibuivan/sprinto/internal/platform/sec"
	"github.com/taibuivan/sprinto/internal/system/activity"
	"github.com/taibuivan/sprinto/internal/users/account"
	"github.com/taibuivan/sprinto/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("mail_enabled", cfg.MailEnabled()),
	)

	// Root context for startup. A deadline surfaces misconfiguration quickly.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Background loops (rate limiter cleanup) stop with this context.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_failed", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Platform Services ──────────────────────────────────────────────
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	tokens, err := sec.NewTokenService(sec.TokenConfig{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		Issuer:        constants.AuthIssuer,
	})
	must(log, err, "initialize token service")

	var transport mailer.Transport = mailer.NewLogTransport(log)
	if cfg.MailEnabled() {
		smtpTransport, err := mailer.NewSMTPTransport(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPFrom,
			Secure:   cfg.SMTPSecure,
		})
		must(log, err, "initialize smtp transport")
		transport = smtpTransport
	}
	mail := mailer.New(transport, cfg.ClientURL, collector)
	effects := effect.NewRunner(cfg.EffectWorkers, constants.EffectTimeout, log, collector)

	// ── 7. Live Hub ───────────────────────────────────────────────────────
	liveRegistry := live.NewRegistry()
	broadcaster := live.NewBroadcaster(liveRegistry, collector, log)
	liveHandler := live.NewHandler(liveRegistry, cfg, collector, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	activityService := activity.NewService(activity.NewPostgresRepository(pool), log)
	directory := reference.NewPostgresDirectory(pool)

	userRepository := auth.NewUserRepository(pool)
	authService := auth.NewService(
		userRepository,
		auth.NewCredentialStore(userRepository),
		tokens,
		mail,
		effects,
		activityService,
		log,
	)
	accountService := account.NewService(account.NewPostgresRepository(pool), log)

	taskService := task.NewService(task.NewPostgresRepository(pool), directory, broadcaster, activityService, log)
	projectService := project.NewService(project.NewPostgresRepository(pool), taskService, directory, broadcaster, activityService, log)
	commentService := comment.NewService(comment.NewPostgresRepository(pool), taskService, directory, broadcaster, activityService, log)

	loginLimit := middleware.NewWindowLimit(rdb, "login", cfg.LoginRateLimit, cfg.LoginRateWindow,
		"Too many login attempts, please try again later").SkipSuccessful()
	forgotLimit := middleware.NewWindowLimit(rdb, "forgot_password", cfg.ForgotPasswordRateLimit, cfg.ForgotPasswordWindow,
		"Too many password reset requests, please try again later")

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
		LiveConnections: liveRegistry.Len,
	}, log)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(cfg, log, api.Guards{
		Verifier:    tokens,
		Resolver:    authService,
		RateLimiter: middleware.NewRateLimiter(appCtx, constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst),
		Collector:   collector,
	}, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Metrics:   metrics.Handler(registry),
		Live:      liveHandler,
		Auth:      auth.NewHandler(authService, auth.Gates{Login: loginLimit.Handler, ForgotPassword: forgotLimit.Handler}),
		Users:     account.NewHandler(accountService),
		Projects:  project.NewHandler(projectService),
		Tasks:     task.NewHandler(taskService),
		Comments:  comment.NewHandler(commentService),
		Logs:      activity.NewHandler(activityService),
	})

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	exitCode := 0
	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_failed", slog.Any("error", err))
		exitCode = 1
	}

	// Hijacked sockets outlive http.Server.Shutdown.
	liveHandler.Shutdown()

	effectsCtx, effectsCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := effects.Close(effectsCtx); err != nil {
		log.Warn("effects_not_drained", slog.Any("error", err))
	}
	effectsCancel()

	appCancel()
	log.Info("server_stopped")

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// must logs err as a fatal startup failure and exits.
func must(log *slog.Logger, err error, step string) {
	if err == nil {
		return
	}
	log.Error("startup_failed", slog.String("step", step), slog.Any("error", err))
	os.Exit(1)
}
