// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/internal/platform/ctxutil"
	"github.com/taibuivan/sprinto/internal/platform/sec"
	"github.com/taibuivan/sprinto/internal/users/auth"
)

// # Service Layer

// Service implements the member directory use cases.
type Service struct {
	accountRepository Repository
	logger            *slog.Logger
}

// NewService constructs an account [Service].
func NewService(accountRepo Repository, logger *slog.Logger) *Service {
	return &Service{accountRepository: accountRepo, logger: logger}
}

// List returns every active member, sorted by name.
func (service *Service) List(context context.Context) ([]*auth.User, error) {
	users, err := service.accountRepository.ListActive(context)
	if err != nil {
		return nil, fmt.Errorf("account_service_list_failed: %w", err)
	}
	return users, nil
}

// Get returns one member, active or not.
func (service *Service) Get(context context.Context, id string) (*auth.User, error) {
	return service.accountRepository.FindByID(context, id)
}

/*
Update edits a member profile.

Description: Members may edit themselves; admins may edit anyone and are the
only ones whose role changes are applied. A role sent by anyone else is
ignored. Renaming refreshes the avatar initials.

Parameters:
  - context: context.Context
  - actor: *sec.AuthClaims
  - id: string
  - input: UpdateInput

Returns:
  - *auth.User: The updated member
  - error: Forbidden, NotFound, Conflict or storage failures
*/
func (service *Service) Update(context context.Context, actor *sec.AuthClaims, id string, input UpdateInput) (*auth.User, error) {
	isAdmin := sec.UserRole(actor.Role).AtLeast(sec.RoleAdmin)
	if actor.UserID != id && !isAdmin {
		return nil, apperr.Forbidden("Not authorized to update this user")
	}

	user, err := service.accountRepository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	// Apply delta updates
	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
		user.Avatar = auth.Initials(user.Name)
	}
	if input.Email != nil {
		user.Email = auth.NormalizeEmail(*input.Email)
	}
	if input.Color != nil {
		user.Color = *input.Color
	}
	if input.Role != nil && isAdmin {
		user.Role = *input.Role
	}

	if err := service.accountRepository.Update(context, user); err != nil {
		return nil, err
	}

	ctxutil.GetLogger(context).InfoContext(context, "account_updated",
		slog.String("user_id", id),
		slog.String("actor_id", actor.UserID),
	)
	return user, nil
}

// Deactivate signs a member out for good. Admins cannot deactivate themselves.
func (service *Service) Deactivate(context context.Context, actor *sec.AuthClaims, id string) error {
	if actor.UserID == id {
		return apperr.BadRequest("Cannot delete your own account")
	}

	if err := service.accountRepository.Deactivate(context, id); err != nil {
		return err
	}

	ctxutil.GetLogger(context).InfoContext(context, "account_deactivated",
		slog.String("user_id", id),
		slog.String("actor_id", actor.UserID),
	)
	return nil
}

// Stats returns the task counters of a member with a rounded completion rate.
func (service *Service) Stats(context context.Context, id string) (*Stats, error) {
	stats, err := service.accountRepository.TaskStats(context, id)
	if err != nil {
		return nil, fmt.Errorf("account_service_stats_failed: %w", err)
	}

	if stats.Total > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.Done) / float64(stats.Total) * 100))
	}
	return stats, nil
}
