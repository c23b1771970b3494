//go:build hugot

package genai

import (
	"context"
	"fmt"

	"github.com/knights-analytics/hugot"

	"github.com/krump3t/astra-graphrag/helper"
)

// LocalEmbeddingClient runs a sentence-transformer model in-process via
// hugot's Go backend, for deployments that prefer not to call out to a
// hosted embeddings endpoint.
type LocalEmbeddingClient struct {
	session  *hugot.Session
	pipeline *hugot.FeatureExtractionPipeline
}

// NewLocalEmbeddingClient downloads (if needed) and loads modelName, then
// builds a feature-extraction pipeline over it.
func NewLocalEmbeddingClient(modelName string) (*LocalEmbeddingClient, error) {
	modelPath, err := helper.PrepareModel(modelName, "")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("genai: create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "local-embedder-pipeline",
	}
	p, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("genai: create local embedding pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("genai: create local embedding pipeline: %w", err)
	}

	return &LocalEmbeddingClient{session: session, pipeline: p}, nil
}

// Embed runs the local pipeline once over all texts and returns one vector
// per input, in input order.
func (c *LocalEmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	result, err := c.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("genai: run local embedding pipeline: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("genai: expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}

	return result.Embeddings, nil
}

// Close releases the underlying hugot session.
func (c *LocalEmbeddingClient) Close() error {
	return c.session.Destroy()
}

var _ EmbeddingClient = (*LocalEmbeddingClient)(nil)
