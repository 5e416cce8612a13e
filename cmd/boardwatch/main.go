// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command boardwatch signs in to a Sprinto server and prints every live board
// event until interrupted.
//
// The connection is re-dialled whenever it drops and the access token is
// renewed in the background. When the renewal is rejected the command exits
// with status 2, the same way a browser client would fall back to the login
// screen.
//
//	boardwatch -server http://localhost:8080 -email ada@example.com
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/taibuivan/sprinto/internal/client/session"
)

// readPassword reads without echo; replaced when stdin is not a terminal.
var readPassword = term.ReadPassword

func main() {
	os.Exit(run())
}

func run() int {
	serverURL := flag.String("server", envOr("SPRINTO_SERVER", "http://localhost:8080"), "Sprinto server base URL")
	email := flag.String("email", os.Getenv("SPRINTO_EMAIL"), "account email")
	reconnect := flag.Duration("reconnect", session.DefaultReconnectDelay, "delay between reconnect attempts")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", "boardwatch"))

	if *email == "" {
		fmt.Fprintln(os.Stderr, "boardwatch: -email is required")
		return 1
	}

	password, err := promptPassword(os.Stderr)
	if err != nil {
		log.Error("password_read_failed", slog.Any("error", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── 1. Login ──────────────────────────────────────────────────────────
	authClient := session.NewAuthClient(*serverURL, nil)
	loginCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	credentials, err := authClient.Login(loginCtx, *email, password)
	cancel()
	if err != nil {
		log.Error("login_failed", slog.Any("error", err))
		return 1
	}
	log.Info("logged_in",
		slog.String("user", credentials.User.Name),
		slog.String("role", credentials.User.Role),
	)

	// ── 2. Live Session ───────────────────────────────────────────────────
	live := session.New(session.Config{
		BaseURL:        *serverURL,
		ReconnectDelay: *reconnect,
		Logger:         log,
	}, authClient)

	live.Subscribe("printer", func(message session.Message) {
		if message.Message != "" {
			log.Info(message.Type, slog.String("message", message.Message))
			return
		}
		log.Info(message.Type, slog.String("payload", string(message.Payload)))
	})

	if err := live.Start(credentials); err != nil {
		log.Error("session_start_failed", slog.Any("error", err))
		return 1
	}

	// ── 3. Wait ───────────────────────────────────────────────────────────
	select {
	case <-ctx.Done():
		log.Info("shutdown_signal_received")
	case <-live.Done():
	}

	_ = live.Close()

	if errors.Is(live.Err(), session.ErrRenewalFailed) {
		log.Warn("logged_out", slog.Any("error", live.Err()))
		return 2
	}
	return 0
}

// promptPassword reads the password from SPRINTO_PASSWORD, the terminal
// without echo, or the first line of piped stdin, in that order.
func promptPassword(w io.Writer) (string, error) {
	if password := os.Getenv("SPRINTO_PASSWORD"); password != "" {
		return password, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}

	if _, err := fmt.Fprint(w, "Password: "); err != nil {
		return "", err
	}
	raw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
