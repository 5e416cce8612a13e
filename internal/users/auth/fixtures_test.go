// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/internal/platform/effect"
	"github.com/taibuivan/sprinto/internal/platform/sec"
	"github.com/taibuivan/sprinto/internal/system/activity"
	"github.com/taibuivan/sprinto/internal/users/auth"
)

// # In-memory Repository

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[string]*auth.User{}}
}

func clone(user *auth.User) *auth.User {
	copied := *user
	return &copied
}

func (repo *memoryUsers) get(id string) *auth.User {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return clone(repo.users[id])
}

func (repo *memoryUsers) FindByID(_ context.Context, id string) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if user, ok := repo.users[id]; ok {
		return clone(user), nil
	}
	return nil, apperr.NotFound("User")
}

func (repo *memoryUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, user := range repo.users {
		if user.Email == email {
			return clone(user), nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *memoryUsers) Create(_ context.Context, user *auth.User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, existing := range repo.users {
		if existing.Email == user.Email {
			return apperr.Conflict("Email already registered")
		}
	}
	user.CreatedAt, user.UpdatedAt = time.Now(), time.Now()
	repo.users[user.ID] = clone(user)
	return nil
}

func (repo *memoryUsers) update(id string, apply func(user *auth.User)) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if user, ok := repo.users[id]; ok {
		apply(user)
	}
}

func (repo *memoryUsers) SetPasswordHash(_ context.Context, id, hash string, revokeRefresh bool) error {
	repo.update(id, func(user *auth.User) {
		user.PasswordHash = hash
		user.PasswordResetTokenHash, user.PasswordResetExpiresAt = nil, nil
		if revokeRefresh {
			user.RefreshTokenHash = nil
		}
	})
	return nil
}

func (repo *memoryUsers) SetRefreshTokenHash(_ context.Context, id, hash string) error {
	repo.update(id, func(user *auth.User) {
		if hash == "" {
			user.RefreshTokenHash = nil
			return
		}
		user.RefreshTokenHash = &hash
	})
	return nil
}

func (repo *memoryUsers) SetVerificationSecret(_ context.Context, id, hash string, expiresAt time.Time) error {
	repo.update(id, func(user *auth.User) {
		user.EmailVerifyTokenHash, user.EmailVerifyExpiresAt = &hash, &expiresAt
	})
	return nil
}

func (repo *memoryUsers) ClearVerificationSecret(_ context.Context, id, hash string) error {
	repo.update(id, func(user *auth.User) {
		if user.EmailVerifyTokenHash != nil && *user.EmailVerifyTokenHash == hash {
			user.EmailVerifyTokenHash, user.EmailVerifyExpiresAt = nil, nil
		}
	})
	return nil
}

func (repo *memoryUsers) ConsumeVerificationSecret(_ context.Context, hash string, now time.Time) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, user := range repo.users {
		if user.EmailVerifyTokenHash != nil && *user.EmailVerifyTokenHash == hash && user.EmailVerifyExpiresAt.After(now) {
			user.IsEmailVerified = true
			user.EmailVerifyTokenHash, user.EmailVerifyExpiresAt = nil, nil
			return clone(user), nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *memoryUsers) SetResetSecret(_ context.Context, id, hash string, expiresAt time.Time) error {
	repo.update(id, func(user *auth.User) {
		user.PasswordResetTokenHash, user.PasswordResetExpiresAt = &hash, &expiresAt
	})
	return nil
}

func (repo *memoryUsers) ClearResetSecret(_ context.Context, id, hash string) error {
	repo.update(id, func(user *auth.User) {
		if user.PasswordResetTokenHash != nil && *user.PasswordResetTokenHash == hash {
			user.PasswordResetTokenHash, user.PasswordResetExpiresAt = nil, nil
		}
	})
	return nil
}

func (repo *memoryUsers) ConsumeResetSecret(_ context.Context, hash, passwordHash string, now time.Time) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, user := range repo.users {
		if user.PasswordResetTokenHash != nil && *user.PasswordResetTokenHash == hash && user.PasswordResetExpiresAt.After(now) {
			user.PasswordHash = passwordHash
			user.PasswordResetTokenHash, user.PasswordResetExpiresAt = nil, nil
			user.RefreshTokenHash = nil
			return clone(user), nil
		}
	}
	return nil, apperr.NotFound("User")
}

// # Collaborators

type fakeMailer struct {
	mu          sync.Mutex
	err         error
	verifyToken string
	resetToken  string
	sent        int
}

func (mailer *fakeMailer) SendVerificationEmail(_ context.Context, _, _, rawToken string) error {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	mailer.sent++
	if mailer.err != nil {
		return mailer.err
	}
	mailer.verifyToken = rawToken
	return nil
}

func (mailer *fakeMailer) SendPasswordResetEmail(_ context.Context, _, _, rawToken string) error {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	mailer.sent++
	if mailer.err != nil {
		return mailer.err
	}
	mailer.resetToken = rawToken
	return nil
}

// inlineRunner runs effects synchronously so assertions can follow the call.
type inlineRunner struct {
	failures []error
}

func (runner *inlineRunner) Go(ctx context.Context, _ string, run effect.Func) {
	if err := run(ctx); err != nil {
		runner.failures = append(runner.failures, err)
	}
}

type fakeActivity struct {
	entries []activity.Entry
}

func (recorder *fakeActivity) Record(_ context.Context, entry activity.Entry) {
	recorder.entries = append(recorder.entries, entry)
}

// # Fixture

type fixture struct {
	users    *memoryUsers
	mailer   *fakeMailer
	runner   *inlineRunner
	activity *fakeActivity
	tokens   *sec.TokenService
	service  *auth.Service
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tokens, err := sec.NewTokenService(sec.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "sprinto.test",
	})
	require.NoError(t, err)

	fx := &fixture{
		users:    newMemoryUsers(),
		mailer:   &fakeMailer{},
		runner:   &inlineRunner{},
		activity: &fakeActivity{},
		tokens:   tokens,
		now:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	credentials := auth.NewCredentialStore(fx.users).
		WithCost(bcrypt.MinCost).
		WithClock(func() time.Time { return fx.now })

	fx.service = auth.NewService(
		fx.users, credentials, tokens, fx.mailer, fx.runner, fx.activity,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return fx
}

func (fx *fixture) register(t *testing.T, name, email, password string) *auth.Session {
	t.Helper()
	session, err := fx.service.Register(context.Background(), auth.RegisterInput{Name: name, Email: email, Password: password})
	require.NoError(t, err)
	return session
}
