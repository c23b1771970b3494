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

func newTestGenerationClient(t *testing.T, handler http.HandlerFunc) *WatsonxGenerationClient {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/identity/token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	})
	mux.HandleFunc("/ml/v1/text/generation", handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.GenAIService{BaseURL: srv.URL, APIKey: "k", ProjectID: "proj", ModelID: "model", APIVersion: "2024-03-14"}
	client := NewWatsonxGenerationClient(cfg, srv.Client(), retry.Policy{MaxAttempts: 0})
	client.tokens = &tokenCache{apiKey: "k", tokenURL: srv.URL + "/identity/token", httpc: srv.Client()}
	return client
}

func TestGenerate_DefaultsDecodingParameters(t *testing.T) {
	client := newTestGenerationClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		params := body["parameters"].(map[string]interface{})
		assert.Equal(t, "greedy", params["decoding_method"])
		w.Write([]byte(`{"results":[{"generated_text":"an answer","input_token_count":10,"generated_token_count":3}]}`))
	})

	result, err := client.Generate(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "an answer", result.Text)
	assert.Equal(t, 10, result.InputTokenCount)
	assert.Equal(t, 3, result.GeneratedTokenCount)
}

func TestGenerate_FallsBackToOutputText(t *testing.T) {
	client := newTestGenerationClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"output_text":"fallback"}]}`))
	})

	result, err := client.Generate(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "fallback", result.Text)
}

func TestGenerate_PassesCustomParameters(t *testing.T) {
	client := newTestGenerationClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		params := body["parameters"].(map[string]interface{})
		assert.Equal(t, float64(64), params["max_new_tokens"])
		w.Write([]byte(`{"results":[{"generated_text":"ok"}]}`))
	})

	_, err := client.Generate(context.Background(), "prompt", map[string]interface{}{"decoding_method": "greedy", "max_new_tokens": 64})
	require.NoError(t, err)
}

func TestGenerate_EmptyResultsIsError(t *testing.T) {
	client := newTestGenerationClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	})

	_, err := client.Generate(context.Background(), "prompt", nil)
	assert.Error(t, err)
}

func TestGenerate_NonTransientErrorPropagatesImmediately(t *testing.T) {
	calls := 0
	client := newTestGenerationClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.Generate(context.Background(), "prompt", nil)
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
