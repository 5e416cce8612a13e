// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Identity is the signed-in account as reported by the server.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Credentials is the token pair of a signed-in session.
type Credentials struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	User         Identity `json:"user"`
}

// APIError is a failure envelope returned by the server.
type APIError struct {
	Status  int
	Message string
}

func (err *APIError) Error() string {
	return fmt.Sprintf("sprinto: %d %s", err.Status, err.Message)
}

// AuthClient calls the /api/auth endpoints of a Sprinto server.
type AuthClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAuthClient targets the server at baseURL (for example http://localhost:8080).
// A nil httpClient uses a client with a 10 second timeout.
func NewAuthClient(baseURL string, httpClient *http.Client) *AuthClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &AuthClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Credentials
}

func (client *AuthClient) post(ctx context.Context, path string, body any) (*envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("session_encode_failed: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("session_request_failed: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("session_request_failed: %w", err)
	}
	defer response.Body.Close()

	var decoded envelope
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("session_decode_failed: %w", err)
	}

	if response.StatusCode >= http.StatusBadRequest || !decoded.Success {
		return nil, &APIError{Status: response.StatusCode, Message: decoded.Message}
	}
	return &decoded, nil
}

// Login exchanges an email and password for a token pair.
func (client *AuthClient) Login(ctx context.Context, email, password string) (*Credentials, error) {
	decoded, err := client.post(ctx, "/api/auth/login", map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	return &decoded.Credentials, nil
}

// Refresh exchanges a refresh token for a new access token.
func (client *AuthClient) Refresh(ctx context.Context, refreshToken string) (string, error) {
	decoded, err := client.post(ctx, "/api/auth/refresh", map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return "", err
	}
	return decoded.AccessToken, nil
}
