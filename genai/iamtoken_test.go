package genai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenCache(t *testing.T, handler http.HandlerFunc) *tokenCache {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &tokenCache{apiKey: "secret", tokenURL: srv.URL, httpc: srv.Client()}
}

func TestTokenCache_FetchesAndCaches(t *testing.T) {
	calls := 0
	cache := newTestTokenCache(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "urn:ibm:params:oauth:grant-type:apikey", r.Form.Get("grant_type"))
		assert.Equal(t, "secret", r.Form.Get("apikey"))
		w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
	})

	tok, err := cache.token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	tok2, err := cache.token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok2)
	assert.Equal(t, 1, calls, "second call within expiry window should reuse the cached token")
}

func TestTokenCache_RefreshesWhenNearExpiry(t *testing.T) {
	calls := 0
	cache := newTestTokenCache(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"access_token":"tok-fresh","expires_in":3600}`))
	})
	cache.mu.Lock()
	cache.token = "tok-stale"
	cache.expiry = time.Now().Add(30 * time.Second) // within the 60s refresh window
	cache.mu.Unlock()

	tok, err := cache.token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-fresh", tok)
	assert.Equal(t, 1, calls)
}

func TestTokenCache_ErrorsOnNonOKStatus(t *testing.T) {
	cache := newTestTokenCache(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errorMessage":"invalid apikey"}`))
	})

	_, err := cache.token(context.Background())
	assert.Error(t, err)
}
