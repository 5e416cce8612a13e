// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. A local '.env' file is
loaded first when present, so development setups do not need exported variables.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Configuration Schema

// Config holds all runtime configuration for the Sprinto API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis), used by the auth rate limiter.
	RedisURL string `env:"REDIS_URL,required"`

	// Token signing. The two secrets must differ.
	JWTAccessSecret  string        `env:"JWT_ACCESS_SECRET,required"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET,required"`
	AccessTokenTTL   time.Duration `env:"ACCESS_TOKEN_TTL"  envDefault:"15m"`
	RefreshTokenTTL  time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	// ClientURL is the web client origin used for CORS and for links in emails.
	ClientURL string `env:"CLIENT_URL" envDefault:"http://localhost:5173"`

	// Outbound email
	SMTPHost   string `env:"SMTP_HOST"`
	SMTPPort   int    `env:"SMTP_PORT"   envDefault:"587"`
	SMTPUser   string `env:"SMTP_USER"`
	SMTPPass   string `env:"SMTP_PASS"`
	SMTPFrom   string `env:"SMTP_FROM"   envDefault:"Sprinto <no-reply@sprinto.app>"`
	SMTPSecure bool   `env:"SMTP_SECURE" envDefault:"false"`

	// EffectWorkers bounds the number of concurrent post-commit effects (emails).
	EffectWorkers int `env:"EFFECT_WORKERS" envDefault:"4"`

	// Per-IP attempt limits for the sensitive auth routes.
	LoginRateLimit          int           `env:"LOGIN_RATE_LIMIT"           envDefault:"10"`
	LoginRateWindow         time.Duration `env:"LOGIN_RATE_WINDOW"          envDefault:"15m"`
	ForgotPasswordRateLimit int           `env:"FORGOT_PASSWORD_RATE_LIMIT" envDefault:"5"`
	ForgotPasswordWindow    time.Duration `env:"FORGOT_PASSWORD_WINDOW"     envDefault:"1h"`
}

// # Configuration Loading

// Load reads an optional .env file and parses environment variables into a [Config].
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env file: %w", err)
	}

	return Parse()
}

// Parse maps the current environment into a [Config] and validates it.
func Parse() (*Config, error) {
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.ClientURL = strings.TrimRight(cfg.ClientURL, "/")
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTAccessSecret == c.JWTRefreshSecret {
		return errors.New("config: JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.AccessTokenTTL <= time.Minute {
		return errors.New("config: ACCESS_TOKEN_TTL must be longer than one minute")
	}
	if c.EffectWorkers < 1 {
		return errors.New("config: EFFECT_WORKERS must be at least 1")
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigin returns the single browser origin accepted outside development.
func (c *Config) AllowedOrigin() string {
	return c.ClientURL
}

// MailEnabled reports whether an SMTP relay has been configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}
