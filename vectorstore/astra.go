package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/krump3t/astra-graphrag/retry"
)

// astraPageLimit is AstraDB's hard per-request page-size limit.
const astraPageLimit = 1000

// AstraClient speaks the Astra Data API JSON wire contract:
// POST {base}/api/json/v1/{keyspace}[/{collection}] with an
// X-Cassandra-Token auth header and single-operation JSON envelopes
// (find/countDocuments/insertMany/createCollection).
type AstraClient struct {
	baseURL  string
	token    string
	keyspace string
	httpc    *http.Client
	policy   retry.Policy
	log      *slog.Logger
}

// NewAstraClient builds a client against base/keyspace, authenticating with
// token via the X-Cassandra-Token header.
func NewAstraClient(baseURL, token, keyspace string, httpc *http.Client, policy retry.Policy, log *slog.Logger) *AstraClient {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &AstraClient{
		baseURL:  trimTrailingSlash(baseURL),
		token:    token,
		keyspace: keyspace,
		httpc:    httpc,
		policy:   policy,
		log:      log,
	}
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

type astraResponse struct {
	Data struct {
		Documents     []Document `json:"documents"`
		NextPageState *string    `json:"nextPageState"`
	} `json:"data"`
	Status struct {
		Count      int      `json:"count"`
		InsertedIDs []string `json:"insertedIds"`
	} `json:"status"`
}

func (c *AstraClient) post(ctx context.Context, path string, payload map[string]interface{}) (*astraResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: marshal request: %w", err)
	}

	var result astraResponse

	err = retry.Do(ctx, c.policy, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Cassandra-Token", c.token)

		resp, err := c.httpc.Do(req)
		if err != nil {
			return retry.MarkRetryable(err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.MarkRetryable(err)
		}

		if isRetryableStatus(resp.StatusCode) {
			return retry.MarkRetryable(fmt.Errorf("vectorstore: transient status %d: %s", resp.StatusCode, respBody))
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("vectorstore: request failed with status %d: %s", resp.StatusCode, respBody)
		}

		return json.Unmarshal(respBody, &result)
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// VectorSearch issues a paginated $vector find, stopping when the server
// omits a continuation token, returns a short page, or MaxDocuments is hit.
func (c *AstraClient) VectorSearch(ctx context.Context, collection string, embedding []float32, opts SearchOptions) ([]Document, error) {
	pageSize := opts.Limit
	if pageSize <= 0 || pageSize > astraPageLimit {
		pageSize = astraPageLimit
	}

	var all []Document
	var pagingState *string

	for {
		findOpts := map[string]interface{}{"limit": pageSize}
		if pagingState != nil {
			findOpts["pagingState"] = *pagingState
		}

		find := map[string]interface{}{
			"filter":  nonNilFilter(opts.Filter),
			"options": findOpts,
		}
		if len(embedding) > 0 {
			find["sort"] = map[string]interface{}{"$vector": embedding}
		}

		resp, err := c.post(ctx, c.collectionPath(collection), map[string]interface{}{"find": find})
		if err != nil {
			return nil, err
		}

		all = append(all, resp.Data.Documents...)

		if opts.MaxDocuments > 0 && len(all) >= opts.MaxDocuments {
			return all[:opts.MaxDocuments], nil
		}

		if resp.Data.NextPageState == nil {
			break
		}
		if len(resp.Data.Documents) < pageSize {
			break
		}
		pagingState = resp.Data.NextPageState
	}

	return all, nil
}

// CountDocuments performs a server-side count, independent of similarity.
func (c *AstraClient) CountDocuments(ctx context.Context, collection string, filter map[string]interface{}) (int, error) {
	resp, err := c.post(ctx, c.collectionPath(collection), map[string]interface{}{
		"countDocuments": map[string]interface{}{"filter": nonNilFilter(filter)},
	})
	if err != nil {
		return 0, err
	}
	return resp.Status.Count, nil
}

// BatchFetchByIDs fetches documents by `_id $in [...]` in one request,
// optionally ordered by similarity to embedding.
func (c *AstraClient) BatchFetchByIDs(ctx context.Context, collection string, ids []string, embedding []float32) ([]Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	find := map[string]interface{}{
		"filter":  map[string]interface{}{"_id": map[string]interface{}{"$in": ids}},
		"options": map[string]interface{}{"limit": minInt(len(ids), astraPageLimit)},
	}
	if len(embedding) > 0 {
		find["sort"] = map[string]interface{}{"$vector": embedding}
	}

	resp, err := c.post(ctx, c.collectionPath(collection), map[string]interface{}{"find": find})
	if err != nil {
		return nil, err
	}
	return resp.Data.Documents, nil
}

// UpsertDocuments inserts docs via insertMany.
func (c *AstraClient) UpsertDocuments(ctx context.Context, collection string, docs []Document) error {
	_, err := c.post(ctx, c.collectionPath(collection), map[string]interface{}{
		"insertMany": map[string]interface{}{"documents": docs},
	})
	return err
}

// CreateCollection creates a plain (non-vector) collection.
func (c *AstraClient) CreateCollection(ctx context.Context, name string) error {
	_, err := c.post(ctx, c.keyspacePath(), map[string]interface{}{
		"createCollection": map[string]interface{}{"name": name},
	})
	return err
}

// CreateVectorCollection creates a collection configured for vector search.
func (c *AstraClient) CreateVectorCollection(ctx context.Context, name string, dimension int, metric string) error {
	if metric == "" {
		metric = "cosine"
	}
	_, err := c.post(ctx, c.keyspacePath(), map[string]interface{}{
		"createCollection": map[string]interface{}{
			"name": name,
			"options": map[string]interface{}{
				"vector": map[string]interface{}{
					"dimension": dimension,
					"metric":    metric,
				},
			},
		},
	})
	return err
}

func (c *AstraClient) keyspacePath() string {
	return fmt.Sprintf("/api/json/v1/%s", c.keyspace)
}

func (c *AstraClient) collectionPath(collection string) string {
	return fmt.Sprintf("/api/json/v1/%s/%s", c.keyspace, collection)
}

func nonNilFilter(filter map[string]interface{}) map[string]interface{} {
	if filter == nil {
		return map[string]interface{}{}
	}
	return filter
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

var _ Client = (*AstraClient)(nil)
