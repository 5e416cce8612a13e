// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil reads path parameters, query strings, JSON bodies and the
authenticated caller out of an incoming request.

Every helper reports failures as [apperr.AppError] values so handlers can pass
them straight to respond.Error.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/internal/platform/ctxutil"
	"github.com/taibuivan/sprinto/internal/platform/sec"
	"github.com/taibuivan/sprinto/internal/platform/validate"
	"github.com/taibuivan/sprinto/pkg/uuid"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// # Body

/*
DecodeJSON decodes the request body into target.

Parameters:
  - writer: http.ResponseWriter (used to enforce [MaxBodyBytes])
  - request: *http.Request
  - target: any (pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON for a malformed, empty or oversized body
*/
func DecodeJSON(writer http.ResponseWriter, request *http.Request, target any) error {
	request.Body = http.MaxBytesReader(writer, request.Body, MaxBodyBytes)
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

// # Path & Query

// ID returns the path parameter name, which must be a UUID. Anything else
// cannot match a stored row, so it is reported as a missing resource.
func ID(request *http.Request, name, resource string) (string, error) {
	id := chi.URLParam(request, name)
	if !uuid.Valid(id) {
		return "", apperr.NotFound(resource)
	}
	return id, nil
}

// Param returns the raw path parameter name.
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

// Query returns the trimmed query parameter name, or "".
func Query(request *http.Request, name string) string {
	return strings.TrimSpace(request.URL.Query().Get(name))
}

// QueryID returns the query parameter name when it is a UUID, "" when it is
// absent, and apperr.NotFound(resource) otherwise.
func QueryID(request *http.Request, name, resource string) (string, error) {
	id := Query(request, name)
	if id == "" {
		return "", nil
	}
	if !uuid.Valid(id) {
		return "", apperr.NotFound(resource)
	}
	return id, nil
}

// # Caller

// Claims returns the authenticated caller, or nil for anonymous requests.
func Claims(request *http.Request) *sec.AuthClaims {
	return ctxutil.GetAuthUser(request.Context())
}

// RequiredClaims returns the authenticated caller or a 401.
func RequiredClaims(request *http.Request) (*sec.AuthClaims, error) {
	claims := ctxutil.GetAuthUser(request.Context())
	if claims == nil {
		return nil, apperr.Unauthorized("Not authorized, no token")
	}
	return claims, nil
}

// RequiredUserID is [RequiredClaims] reduced to the caller's user ID.
func RequiredUserID(request *http.Request) (string, error) {
	claims, err := RequiredClaims(request)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
