package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyValidToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/verify", r.URL.Path)
		assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"user": {"id": "user-42"}}`))
	}))
	defer server.Close()

	verifier := NewBackendVerifier(server.URL, time.Second)
	userID, err := verifier.Verify(context.Background(), "token-abc")
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestVerifyFlatUserIDField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user_id": "user-7"}`))
	}))
	defer server.Close()

	verifier := NewBackendVerifier(server.URL, time.Second)
	userID, err := verifier.Verify(context.Background(), "token-abc")
	require.NoError(t, err)
	assert.Equal(t, "user-7", userID)
}

func TestVerifyRejectedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	verifier := NewBackendVerifier(server.URL, time.Second)
	_, err := verifier.Verify(context.Background(), "expired")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyBackendErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	verifier := NewBackendVerifier(server.URL, time.Second)
	_, err := verifier.Verify(context.Background(), "token-abc")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestVerifyUnreachableBackendIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	verifier := NewBackendVerifier(server.URL, time.Second)
	_, err := verifier.Verify(context.Background(), "token-abc")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestVerifyEmptyToken(t *testing.T) {
	verifier := NewBackendVerifier("http://localhost:0", time.Second)
	_, err := verifier.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		name   string
		header string
		token  string
		ok     bool
	}{
		{"valid", "Bearer abc123", "abc123", true},
		{"lowercase scheme", "bearer abc123", "abc123", true},
		{"missing scheme", "abc123", "", false},
		{"wrong scheme", "Basic abc123", "", false},
		{"empty header", "", "", false},
		{"scheme only", "Bearer ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, ok := ExtractBearer(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.token, token)
		})
	}
}
