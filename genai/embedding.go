package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/krump3t/astra-graphrag/config"
	"github.com/krump3t/astra-graphrag/retry"
)

// defaultEmbedBatchSize is the batch size used when callers do not split
// requests themselves; the embedding endpoint hard-caps at 1000 inputs.
const (
	defaultEmbedBatchSize = 500
	maxEmbedBatchSize     = 1000
)

// EmbeddingClient turns text into vectors.
type EmbeddingClient interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// WatsonxEmbeddingClient calls a watsonx.ai-compatible text-embeddings
// endpoint, batching requests and caching its IAM bearer token.
type WatsonxEmbeddingClient struct {
	cfg     config.GenAIService
	httpc   *http.Client
	policy  retry.Policy
	tokens  *tokenCache
	batch   int
}

// NewWatsonxEmbeddingClient builds a client from cfg, retrying transient
// failures per policy.
func NewWatsonxEmbeddingClient(cfg config.GenAIService, httpc *http.Client, policy retry.Policy) *WatsonxEmbeddingClient {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &WatsonxEmbeddingClient{
		cfg:    cfg,
		httpc:  httpc,
		policy: policy,
		tokens: newTokenCache(cfg.APIKey, httpc),
		batch:  defaultEmbedBatchSize,
	}
}

// Embed returns one vector per input text, preserving order, by issuing as
// many batched requests as needed.
func (c *WatsonxEmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batchSize := c.batch
	if batchSize <= 0 || batchSize > maxEmbedBatchSize {
		batchSize = defaultEmbedBatchSize
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}

	return out, nil
}

func (c *WatsonxEmbeddingClient) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := map[string]interface{}{
		"inputs":     texts,
		"project_id": c.cfg.ProjectID,
		"model_id":   c.cfg.ModelID,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("genai: marshal embedding request: %w", err)
	}

	var payload struct {
		Results []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"results"`
	}

	err = retry.Do(ctx, c.policy, func() error {
		token, err := c.tokens.token(ctx)
		if err != nil {
			return err
		}

		url := fmt.Sprintf("%s/ml/v1/text/embeddings?version=%s", trimTrailingSlash(c.cfg.BaseURL), c.cfg.APIVersion)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-Project-Id", c.cfg.ProjectID)

		resp, err := c.httpc.Do(req)
		if err != nil {
			return retry.MarkRetryable(err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.MarkRetryable(err)
		}

		if isTransientStatus(resp.StatusCode) {
			return retry.MarkRetryable(fmt.Errorf("genai: transient embedding status %d: %s", resp.StatusCode, respBody))
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("genai: embedding request failed with status %d: %s", resp.StatusCode, respBody)
		}

		return json.Unmarshal(respBody, &payload)
	})
	if err != nil {
		return nil, err
	}

	if len(payload.Results) != len(texts) {
		return nil, fmt.Errorf("genai: expected %d embeddings, got %d", len(texts), len(payload.Results))
	}

	vectors := make([][]float32, len(payload.Results))
	for i, r := range payload.Results {
		if len(r.Embedding) == 0 {
			return nil, fmt.Errorf("genai: empty embedding at index %d", i)
		}
		vectors[i] = r.Embedding
	}

	return vectors, nil
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

func isTransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
