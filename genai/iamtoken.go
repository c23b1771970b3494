// Package genai provides thin HTTP contracts for batched text->vector
// embedding and prompt->text generation, each client fronted by its own
// IAM bearer-token cache.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const iamTokenURL = "https://iam.cloud.ibm.com/identity/token"

// tokenCache is the one legitimate bit of per-process mutable state in the
// genai clients; concurrent refresh attempts are serialized so only one
// request ever hits the IAM endpoint at a time.
type tokenCache struct {
	mu       sync.Mutex
	apiKey   string
	tokenURL string
	httpc    *http.Client
	token    string
	expiry   time.Time
}

func newTokenCache(apiKey string, httpc *http.Client) *tokenCache {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &tokenCache{apiKey: apiKey, tokenURL: iamTokenURL, httpc: httpc}
}

// token returns a cached access token, refreshing it if it is unset or
// within 60s of expiry.
func (c *tokenCache) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expiry.Add(-60*time.Second)) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ibm:params:oauth:grant-type:apikey")
	form.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("genai: build iam token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("genai: request iam token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("genai: read iam token response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("genai: iam token request failed with status %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("genai: decode iam token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("genai: iam token response missing access_token")
	}

	expiresIn := payload.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}

	c.token = payload.AccessToken
	c.expiry = time.Now().Add(time.Duration(expiresIn) * time.Second)

	return c.token, nil
}
