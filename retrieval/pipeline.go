package retrieval

import (
	"context"
	"fmt"

	"github.com/krump3t/astra-graphrag/genai"
	"github.com/krump3t/astra-graphrag/graphindex"
	"github.com/krump3t/astra-graphrag/vectorstore"
	"github.com/krump3t/astra-graphrag/workflow"
)

// Pipeline wires the embedding client, document store, and graph index the
// six retrieval stages need. It holds no per-query state; every Run call
// builds a fresh workflow.State.
type Pipeline struct {
	Embedder   genai.EmbeddingClient
	Store      vectorstore.Client
	Collection string
	Graph      *graphindex.Graph
}

// NewPipeline constructs a Pipeline from its dependencies.
func NewPipeline(embedder genai.EmbeddingClient, store vectorstore.Client, collection string, graph *graphindex.Graph) *Pipeline {
	return &Pipeline{Embedder: embedder, Store: store, Collection: collection, Graph: graph}
}

// Options lets a caller override retrieval parameters: an explicit
// entity-type filter and an initial page size.
type Options struct {
	Filter       string
	InitialLimit int
}

// Run executes the six-stage pipeline against query and returns the
// populated state, ready for the reasoning orchestrator.
func (p *Pipeline) Run(ctx context.Context, query string, opts Options, maxQueryLength int) (*workflow.State, error) {
	if maxQueryLength > 0 && len(query) > maxQueryLength {
		return nil, fmt.Errorf("retrieval: query exceeds maximum length of %d characters", maxQueryLength)
	}

	state := workflow.New(query)

	analysis := analyzeQuery(query, opts.Filter)
	applyAnalysis(state, analysis)

	embeddings, err := p.Embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("retrieval: embedding service returned no vectors")
	}
	state.Metadata["query_embedding"] = embeddings[0]

	docs, err := vectorSearch(ctx, p.Store, p.Collection, embeddings[0], query, analysis, state, opts.InitialLimit)
	if err != nil {
		state.RecordError("vector_search", err.Error())
		return state, fmt.Errorf("retrieval: vector search: %w", err)
	}

	reranked := rerank(query, docs, analysis.TopK, analysis.Relationship.Confidence)
	state.Metadata["reranked_documents"] = reranked

	filtered := applyFilters(query, reranked, analysis, state)
	finalizeState(state, filtered, len(docs))

	expandGraph(ctx, p.Graph, p.Store, p.Collection, analysis, filtered, state)

	return state, nil
}
