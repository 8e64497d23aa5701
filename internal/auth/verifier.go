// Package auth validates bearer credentials against the main backend.
// Credential issuance lives upstream; this service only verifies.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrInvalidToken means the credential was rejected: the caller is not
// authorized.
var ErrInvalidToken = errors.New("auth: invalid token")

// ErrUnavailable means the verification backend could not be reached.
// It must never be reported to callers as an authorization failure.
var ErrUnavailable = errors.New("auth: verification service unavailable")

// Verifier resolves a bearer credential to a stable user identifier.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// BackendVerifier verifies tokens against the main backend's
// /api/auth/verify endpoint.
type BackendVerifier struct {
	baseURL string
	client  *http.Client
}

func NewBackendVerifier(baseURL string, timeout time.Duration) *BackendVerifier {
	return &BackendVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// verifyResponse covers the shapes the main backend returns for a
// valid token.
type verifyResponse struct {
	UserID string `json:"user_id"`
	User   struct {
		ID string `json:"id"`
	} `json:"user"`
}

// Verify returns the user ID for a valid token, ErrInvalidToken for a
// rejected one and ErrUnavailable when the backend cannot answer.
func (v *BackendVerifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/api/auth/verify", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return "", ErrUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrInvalidToken
	case resp.StatusCode >= 500:
		return "", ErrUnavailable
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("auth: unexpected verify status %d", resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode verify response: %w", err)
	}

	userID := body.UserID
	if userID == "" {
		userID = body.User.ID
	}
	if userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

// ExtractBearer pulls the token out of an Authorization header value.
func ExtractBearer(authorization string) (string, bool) {
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
