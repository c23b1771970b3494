package retrieval

import (
	"fmt"
	"strings"

	"github.com/krump3t/astra-graphrag/vectorstore"
	"github.com/krump3t/astra-graphrag/workflow"
)

const filterTruncationLimit = 15
const filterFallbackLimit = 5

func docContains(doc vectorstore.Document, keyword string) bool {
	haystack := strings.ToLower(doc.ResolvedText() + " " + doc.ID)
	for _, v := range doc.Fields {
		haystack += " " + strings.ToLower(fmt.Sprintf("%v", v))
	}
	return strings.Contains(haystack, strings.ToLower(keyword))
}

func applyKeywordFilter(docs []vectorstore.Document, keywords []string, useOR bool) []vectorstore.Document {
	if len(keywords) == 0 {
		return docs
	}
	var out []vectorstore.Document
	for _, d := range docs {
		if useOR {
			for _, kw := range keywords {
				if docContains(d, kw) {
					out = append(out, d)
					break
				}
			}
			continue
		}
		matchesAll := true
		for _, kw := range keywords {
			if !docContains(d, kw) {
				matchesAll = false
				break
			}
		}
		if matchesAll {
			out = append(out, d)
		}
	}
	return out
}

func applyWellIDFilter(docs []vectorstore.Document, wellID string) []vectorstore.Document {
	if wellID == "" {
		return docs
	}
	var out []vectorstore.Document
	for _, d := range docs {
		if docContains(d, wellID) {
			out = append(out, d)
		}
	}
	return out
}

func truncate(docs []vectorstore.Document, limit int) []vectorstore.Document {
	if len(docs) <= limit {
		return docs
	}
	return docs[:limit]
}

// applyFilters implements stage 4.3.4: keyword and well-id filters in
// sequence, truncation, and a rerank-and-take-5 fallback when filtering
// empties an otherwise non-empty result.
func applyFilters(query string, rerankedDocs []vectorstore.Document, a Analysis, state *workflow.State) []vectorstore.Document {
	filtered := rerankedDocs

	if len(a.CriticalKeywords) > 0 {
		useOR := a.Relationship.Confidence >= 0.85 || a.WellIDFilter != ""
		filtered = applyKeywordFilter(filtered, a.CriticalKeywords, useOR)
	}

	filtered = applyWellIDFilter(filtered, a.WellIDFilter)

	filterFired := len(a.CriticalKeywords) > 0 || a.WellIDFilter != ""
	if filterFired {
		filtered = truncate(filtered, filterTruncationLimit)
	}

	if filterFired && len(filtered) == 0 && len(rerankedDocs) > 0 {
		state.RecordError("filter_fallback", "filtering emptied the result, falling back to top reranked documents")
		state.Metadata["filter_fallback_applied"] = true
		filtered = rerank(query, rerankedDocs, filterFallbackLimit, a.Relationship.Confidence)
	}

	return filtered
}
