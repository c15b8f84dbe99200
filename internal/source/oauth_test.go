package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTokenSourceExchangesAndCaches(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "client-id", r.Form.Get("client_id"))
		assert.Equal(t, "refresh-me", r.Form.Get("refresh_token"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "token-123",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	}))
	defer srv.Close()

	ts := NewTokenSource(srv.URL, "client-id", "secret", "refresh-me", zap.NewNop())

	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-123", tok)

	// Second call is served from cache.
	tok, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-123", tok)
	assert.Equal(t, 1, calls)
}

func TestTokenSourceErrorPaths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	ts := NewTokenSource(srv.URL, "client-id", "secret", "bad", zap.NewNop())
	_, err := ts.Token(context.Background())
	require.ErrorIs(t, err, ErrSourceUnavailable)

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": ""})
	}))
	defer empty.Close()

	ts = NewTokenSource(empty.URL, "client-id", "secret", "refresh-me", zap.NewNop())
	_, err = ts.Token(context.Background())
	require.ErrorIs(t, err, ErrSourceUnavailable)
}
