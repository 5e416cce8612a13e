// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/internal/platform/ctxutil"
	"github.com/taibuivan/sprinto/internal/platform/respond"
	"github.com/taibuivan/sprinto/internal/platform/sec"
)

// TokenVerifier verifies bearer access tokens.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// IdentityResolver loads the live state of the identity named by a token.
//
// A signed token stays valid until it expires, so the role and active flag
// are read from storage on every request. It returns false when the identity
// no longer exists or has been deactivated.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID string) (role sec.UserRole, active bool, err error)
}

// Authenticate extracts and verifies the JWT from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, verify the access token and resolve the identity.
//  4. Inject [*sec.AuthClaims] carrying the current role into the request context.
func Authenticate(verifier TokenVerifier, resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get("Authorization")

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				respond.Error(writer, request, apperr.Unauthorized("Not authorized, no token"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyToken(parts[1])
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Not authorized, token invalid or expired"))
				return
			}

			// ── 4. Identity Resolution ────────────────────────────────────────
			role, active, err := resolver.ResolveIdentity(request.Context(), claims.UserID)
			if err != nil && !apperr.IsNotFound(err) {
				respond.Error(writer, request, err)
				return
			}
			if err != nil || !active {
				respond.Error(writer, request, apperr.Unauthorized("User not found or deactivated"))
				return
			}

			resolved := *claims
			resolved.Role = string(role)

			ctx := ctxutil.WithAuthUser(request.Context(), &resolved)
			ctx = ctxutil.WithLogger(ctx, ctxutil.GetLogger(ctx).With("user_id", claims.UserID))
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Not authorized, no token"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests if the authenticated user doesn't have the required role.
//
// It implies [RequireAuth] so you don't need to mount both.
func RequireRole(role sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetAuthUser(request.Context())

			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Not authorized, no token"))
				return
			}

			if !sec.UserRole(claims.Role).AtLeast(role) {
				respond.Error(writer, request, apperr.Forbidden("Role '"+claims.Role+"' is not authorized for this action"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
