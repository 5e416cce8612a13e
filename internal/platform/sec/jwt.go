// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, JWT signing) from
// the domain logic. It is injected into the auth service and the HTTP
// middleware as an infrastructure dependency.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/sprinto/pkg/uuid"
)

// TokenClass distinguishes access tokens from refresh tokens inside the payload.
type TokenClass string

const (
	ClassAccess  TokenClass = "access"
	ClassRefresh TokenClass = "refresh"
)

// ErrInvalidToken is returned for any token that fails signature, expiry or class checks.
var ErrInvalidToken = errors.New("sec: invalid token")

// AuthClaims represents the payload embedded inside a signed token.
//
// Custom claims are abbreviated to keep the payload small.
type AuthClaims struct {
	jwt.RegisteredClaims

	UserID string     `json:"uid"`
	Role   string     `json:"rol,omitempty"`
	Class  TokenClass `json:"cls"`
}

// TokenConfig carries the signing material and lifetimes for a [TokenService].
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenService mints and verifies HS256 tokens with one key per token class.
type TokenService struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
}

/*
NewTokenService validates the configuration and builds a [TokenService].

Returns an error when either secret is empty, when both secrets are equal,
or when a lifetime is not positive.
*/
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("sec: access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("sec: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("sec: token lifetimes must be positive")
	}

	return &TokenService{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		issuer:     cfg.Issuer,
		now:        time.Now,
	}, nil
}

// WithClock replaces the time source used for issuing and verifying tokens.
func (service *TokenService) WithClock(now func() time.Time) *TokenService {
	service.now = now
	return service
}

// AccessTTL returns the configured access-token lifetime.
func (service *TokenService) AccessTTL() time.Duration { return service.accessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (service *TokenService) RefreshTTL() time.Duration { return service.refreshTTL }

// IssueAccessToken signs a short-lived access token for the given identity.
func (service *TokenService) IssueAccessToken(userID string, role UserRole) (string, error) {
	return service.sign(AuthClaims{UserID: userID, Role: string(role), Class: ClassAccess}, service.accessKey, service.accessTTL)
}

// IssueRefreshToken signs a long-lived refresh token for the given identity.
func (service *TokenService) IssueRefreshToken(userID string) (string, error) {
	return service.sign(AuthClaims{UserID: userID, Class: ClassRefresh}, service.refreshKey, service.refreshTTL)
}

func (service *TokenService) sign(claims AuthClaims, key []byte, timeToLive time.Duration) (string, error) {
	currentTime := service.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.New(),
		Subject:   claims.UserID,
		Issuer:    service.issuer,
		IssuedAt:  jwt.NewNumericDate(currentTime),
		ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
	}

	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}
	return signedToken, nil
}

/*
Verify checks signature, expiry and class of a signed token.

The key is chosen by the expected class, and the embedded class must match it
as well, so a token minted for one purpose is rejected for the other.

Returns:
  - *AuthClaims: the decoded payload
  - error: [ErrInvalidToken] wrapping the parser failure
*/
func (service *TokenService) Verify(tokenString string, expected TokenClass) (*AuthClaims, error) {
	key := service.accessKey
	if expected == ClassRefresh {
		key = service.refreshKey
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(service.now),
		jwt.WithExpirationRequired(),
	)

	claims := &AuthClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Class != expected || claims.UserID == "" {
		return nil, fmt.Errorf("%w: unexpected token class %q", ErrInvalidToken, claims.Class)
	}

	return claims, nil
}

// VerifyToken verifies an access token. It satisfies the middleware verifier contract.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	return service.Verify(tokenString, ClassAccess)
}
