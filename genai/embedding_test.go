package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krump3t/astra-graphrag/config"
	"github.com/krump3t/astra-graphrag/retry"
)

// newTestEmbeddingClient wires a client whose IAM token fetch and embeddings
// call both land on the same test server, keyed by path.
func newTestEmbeddingClient(t *testing.T, embedHandler http.HandlerFunc) *WatsonxEmbeddingClient {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/identity/token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	})
	mux.HandleFunc("/ml/v1/text/embeddings", embedHandler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.GenAIService{BaseURL: srv.URL, APIKey: "k", ProjectID: "proj", ModelID: "model", APIVersion: "2024-03-14"}
	client := NewWatsonxEmbeddingClient(cfg, srv.Client(), retry.Policy{MaxAttempts: 0})
	client.tokens = &tokenCache{apiKey: "k", tokenURL: srv.URL + "/identity/token", httpc: srv.Client()}
	return client
}

func TestEmbed_EmptyInputNoRequest(t *testing.T) {
	called := false
	client := newTestEmbeddingClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	vectors, err := client.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.False(t, called)
}

func TestEmbed_ReturnsVectorsInOrder(t *testing.T) {
	client := newTestEmbeddingClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "proj", body["project_id"])
		assert.Equal(t, "model", body["model_id"])
		w.Write([]byte(`{"results":[{"embedding":[0.1,0.2]},{"embedding":[0.3,0.4]}]}`))
	})

	vectors, err := client.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float32{0.3, 0.4}, vectors[1])
}

func TestEmbed_BatchesLargeInputs(t *testing.T) {
	calls := 0
	client := newTestEmbeddingClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		inputs := body["inputs"].([]interface{})
		results := make([]map[string]interface{}, len(inputs))
		for i := range inputs {
			results[i] = map[string]interface{}{"embedding": []float32{float32(i)}}
		}
		resp, _ := json.Marshal(map[string]interface{}{"results": results})
		w.Write(resp)
	})
	client.batch = 2

	texts := []string{"a", "b", "c", "d", "e"}
	vectors, err := client.Embed(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, vectors, 5)
	assert.Equal(t, 3, calls, "5 inputs at batch size 2 should take 3 requests")
}

func TestEmbed_CountMismatchIsError(t *testing.T) {
	client := newTestEmbeddingClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"embedding":[0.1]}]}`))
	})

	_, err := client.Embed(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestEmbed_TransientStatusRetriesUpToPolicy(t *testing.T) {
	calls := 0
	client := newTestEmbeddingClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	client.policy = retry.Policy{MaxAttempts: 2, BaseDelay: 0, MaxDelay: 0, BackoffFactor: 1}

	_, err := client.Embed(context.Background(), []string{"a"})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}
