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

// GenerationResult is a completed text generation plus the token counts the
// upstream service reports, which callers use for cost accounting.
type GenerationResult struct {
	Text                string
	InputTokenCount     int
	GeneratedTokenCount int
}

// GenerationClient turns a prompt into text.
type GenerationClient interface {
	Generate(ctx context.Context, prompt string, parameters map[string]interface{}) (GenerationResult, error)
}

// WatsonxGenerationClient calls a watsonx.ai-compatible text-generation
// endpoint, caching its IAM bearer token. Each client owns its own token
// cache; the cache is not shared with an embedding client.
type WatsonxGenerationClient struct {
	cfg    config.GenAIService
	httpc  *http.Client
	policy retry.Policy
	tokens *tokenCache
}

// NewWatsonxGenerationClient builds a client from cfg, retrying transient
// failures per policy.
func NewWatsonxGenerationClient(cfg config.GenAIService, httpc *http.Client, policy retry.Policy) *WatsonxGenerationClient {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &WatsonxGenerationClient{
		cfg:    cfg,
		httpc:  httpc,
		policy: policy,
		tokens: newTokenCache(cfg.APIKey, httpc),
	}
}

var defaultGenerationParameters = map[string]interface{}{
	"decoding_method": "greedy",
	"max_new_tokens":  256,
}

// Generate submits prompt for completion, defaulting to greedy decoding
// capped at 256 new tokens when parameters is nil.
func (c *WatsonxGenerationClient) Generate(ctx context.Context, prompt string, parameters map[string]interface{}) (GenerationResult, error) {
	if parameters == nil {
		parameters = defaultGenerationParameters
	}

	reqBody := map[string]interface{}{
		"model_id":   c.cfg.ModelID,
		"input":      prompt,
		"parameters": parameters,
		"project_id": c.cfg.ProjectID,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return GenerationResult{}, fmt.Errorf("genai: marshal generation request: %w", err)
	}

	var payload struct {
		Results []struct {
			GeneratedText       string `json:"generated_text"`
			OutputText          string `json:"output_text"`
			InputTokenCount     int    `json:"input_token_count"`
			GeneratedTokenCount int    `json:"generated_token_count"`
		} `json:"results"`
	}

	err = retry.Do(ctx, c.policy, func() error {
		token, err := c.tokens.token(ctx)
		if err != nil {
			return err
		}

		url := fmt.Sprintf("%s/ml/v1/text/generation?version=%s", trimTrailingSlash(c.cfg.BaseURL), c.cfg.APIVersion)
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
			return retry.MarkRetryable(fmt.Errorf("genai: transient generation status %d: %s", resp.StatusCode, respBody))
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("genai: generation request failed with status %d: %s", resp.StatusCode, respBody)
		}

		return json.Unmarshal(respBody, &payload)
	})
	if err != nil {
		return GenerationResult{}, err
	}

	if len(payload.Results) == 0 {
		return GenerationResult{}, fmt.Errorf("genai: generation response had no results")
	}

	first := payload.Results[0]
	text := first.GeneratedText
	if text == "" {
		text = first.OutputText
	}

	return GenerationResult{
		Text:                text,
		InputTokenCount:     first.InputTokenCount,
		GeneratedTokenCount: first.GeneratedTokenCount,
	}, nil
}
