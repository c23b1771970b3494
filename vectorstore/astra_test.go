package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/krump3t/astra-graphrag/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*AstraClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewAstraClient(srv.URL, "test-token", "default_keyspace", srv.Client(), retry.Policy{MaxAttempts: 0}, nil)
	return client, srv
}

func TestVectorSearch_SinglePage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("X-Cassandra-Token"))
		w.Write([]byte(`{"data":{"documents":[{"_id":"d1","text":"hello"}]}}`))
	})

	docs, err := client.VectorSearch(context.Background(), "docs", []float32{0.1, 0.2}, SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "d1", docs[0].ID)
}

func TestVectorSearch_PaginatesUntilNoToken(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)

		if calls == 1 {
			w.Write([]byte(`{"data":{"documents":[{"_id":"d1"},{"_id":"d2"}],"nextPageState":"abc"}}`))
			return
		}
		w.Write([]byte(`{"data":{"documents":[{"_id":"d3"}]}}`))
	})

	docs, err := client.VectorSearch(context.Background(), "docs", nil, SearchOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, docs, 3)
}

func TestVectorSearch_StopsOnShortPageEvenWithToken(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"data":{"documents":[{"_id":"d1"}],"nextPageState":"abc"}}`))
	})

	docs, err := client.VectorSearch(context.Background(), "docs", nil, SearchOptions{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "a short page should terminate pagination even if a token is present")
	assert.Len(t, docs, 1)
}

func TestVectorSearch_RespectsMaxDocuments(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"documents":[{"_id":"d1"},{"_id":"d2"},{"_id":"d3"}],"nextPageState":"abc"}}`))
	})

	docs, err := client.VectorSearch(context.Background(), "docs", nil, SearchOptions{Limit: 3, MaxDocuments: 2})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestCountDocuments(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":{"count":42}}`))
	})

	n, err := client.CountDocuments(context.Background(), "docs", map[string]interface{}{"entity_type": "las_document"})
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestBatchFetchByIDs_EmptyInputNoRequest(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	docs, err := client.BatchFetchByIDs(context.Background(), "docs", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, docs)
	assert.False(t, called)
}

func TestPost_NonTransientErrorPropagatesImmediately(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":["bad filter"]}`))
	})

	_, err := client.CountDocuments(context.Background(), "docs", nil)
	assert.Error(t, err)
	assert.Equal(t, 1, calls, "non-transient errors must not be retried")
}

func TestPost_TransientErrorRetriesUpToPolicy(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	client.policy = retry.Policy{MaxAttempts: 2, BaseDelay: 0, MaxDelay: 0, BackoffFactor: 1}

	_, err := client.CountDocuments(context.Background(), "docs", nil)
	assert.Error(t, err)
	assert.Equal(t, 3, calls, "expected initial attempt plus 2 retries")
}
