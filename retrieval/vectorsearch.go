package retrieval

import (
	"context"
	"strings"

	"github.com/krump3t/astra-graphrag/reasoning/aggregation"
	"github.com/krump3t/astra-graphrag/vectorstore"
	"github.com/krump3t/astra-graphrag/workflow"
)

const (
	aggregationInitialLimit = 1000
	aggregationMaxDocuments = 5000
	defaultInitialLimit     = 100
	countSampleLimit        = 100
)

// vectorSearch implements stage 4.3.2: picks retrieval parameters off the
// analysis, takes the COUNT fast path when eligible, and otherwise issues a
// normal paginated vector search.
func vectorSearch(ctx context.Context, store vectorstore.Client, collection string, embedding []float32, query string, a Analysis, state *workflow.State, callerLimit int) ([]vectorstore.Document, error) {
	filter := buildFilter(a)

	initialLimit := defaultInitialLimit
	maxDocuments := 0
	if a.IsAggregation {
		initialLimit = aggregationInitialLimit
		maxDocuments = aggregationMaxDocuments
	} else if callerLimit > 0 {
		initialLimit = callerLimit
	}

	if a.AggregationType == aggregation.TypeCount && a.WellIDFilter == "" && !mentionsSpecificWell(query) {
		count, err := store.CountDocuments(ctx, collection, filter)
		if err == nil {
			state.Metadata["direct_count"] = count
		} else {
			state.RecordError("count_documents", err.Error())
		}

		sampleLimit := initialLimit
		if sampleLimit > countSampleLimit {
			sampleLimit = countSampleLimit
		}
		docs, err := store.VectorSearch(ctx, collection, embedding, vectorstore.SearchOptions{Limit: sampleLimit, Filter: filter})
		if err != nil {
			return nil, err
		}
		finalizeVectorSearchMetadata(state, docs, filter)
		return docs, nil
	}

	docs, err := store.VectorSearch(ctx, collection, embedding, vectorstore.SearchOptions{
		Limit:        initialLimit,
		Filter:       filter,
		MaxDocuments: maxDocuments,
	})
	if err != nil {
		return nil, err
	}
	finalizeVectorSearchMetadata(state, docs, filter)
	return docs, nil
}

func finalizeVectorSearchMetadata(state *workflow.State, docs []vectorstore.Document, filter map[string]interface{}) {
	state.Metadata["vector_search_documents"] = docs
	state.Metadata["initial_retrieval_count"] = len(docs)
	state.Metadata["filter_applied"] = filter
}

func buildFilter(a Analysis) map[string]interface{} {
	if a.AutoFilter == "" {
		return nil
	}
	return map[string]interface{}{"entity_type": a.AutoFilter}
}

func mentionsSpecificWell(query string) bool {
	lower := strings.ToLower(query)
	return strings.Contains(lower, "well ") && wellIDPattern.MatchString(query)
}
