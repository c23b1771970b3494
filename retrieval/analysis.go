// Package retrieval turns a question into a ranked, optionally
// graph-expanded set of documents and leaves the pipeline-scoped state ready
// for the reasoning chain: embed, search, rerank, filter, finalize, expand.
package retrieval

import (
	"regexp"
	"strings"

	"github.com/krump3t/astra-graphrag/graphindex"
	"github.com/krump3t/astra-graphrag/reasoning/aggregation"
	"github.com/krump3t/astra-graphrag/reasoning/relationship"
	"github.com/krump3t/astra-graphrag/workflow"
)

// entityFilterKeywords maps a keyword to the entity type it implies when it
// appears in a query and no caller-supplied filter overrides it.
var entityFilterKeywords = map[string]string{
	"gamma ray":   string(graphindex.NodeLASCurve),
	"nphi":        string(graphindex.NodeLASCurve),
	"rhob":        string(graphindex.NodeLASCurve),
	"curve":       string(graphindex.NodeLASCurve),
	"mnemonic":    string(graphindex.NodeLASCurve),
	"well log":    string(graphindex.NodeLASDocument),
	"las file":    string(graphindex.NodeLASDocument),
	"streamflow":  string(graphindex.NodeUSGSMeasurement),
	"discharge":   string(graphindex.NodeUSGSMeasurement),
	"gage height": string(graphindex.NodeUSGSMeasurement),
	"monitoring site": string(graphindex.NodeUSGSSite),
	"production":  string(graphindex.NodeEIARecord),
	"barrels":     string(graphindex.NodeEIARecord),
}

var entityFilterOrder = []string{
	"gamma ray", "nphi", "rhob", "curve", "mnemonic",
	"well log", "las file",
	"streamflow", "discharge", "gage height", "monitoring site",
	"production", "barrels",
}

var wellIDPattern = regexp.MustCompile(`\b(\d+)[/_](\d+)[-_](\d+\w*)\b`)

func detectWellIDFilter(query string) (string, bool) {
	match := wellIDPattern.FindString(query)
	if match == "" {
		return "", false
	}
	return strings.ReplaceAll(match, "/", "_"), true
}

func detectEntityFilter(query string) (string, bool) {
	lower := strings.ToLower(query)
	for _, keyword := range entityFilterOrder {
		if strings.Contains(lower, keyword) {
			return entityFilterKeywords[keyword], true
		}
	}
	return "", false
}

var keywordExtractionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`contains?\s+(?:the\s+)?(?:word|text)\s+["']?([a-zA-Z0-9_\-]+)["']?`),
	regexp.MustCompile(`with\s+["']?([a-zA-Z0-9_\-]+)["']?\s+in\s+(?:the\s+)?(?:name|mnemonic)`),
	regexp.MustCompile(`called\s+["']?([a-zA-Z0-9_\-]+)["']?`),
	regexp.MustCompile(`named\s+["']?([a-zA-Z0-9_\-]+)["']?`),
}

func extractCriticalKeywords(query string) []string {
	lower := strings.ToLower(query)
	var keywords []string
	for _, pattern := range keywordExtractionPatterns {
		for _, match := range pattern.FindAllStringSubmatch(lower, -1) {
			if len(match) > 1 && match[1] != "" {
				keywords = append(keywords, match[1])
			}
		}
	}
	return keywords
}

// Analysis is the product of the QueryAnalysis stage.
type Analysis struct {
	AggregationType     aggregation.Type
	IsAggregation        bool
	Relationship         relationship.Detection
	AutoFilter           string
	WellIDFilter         string
	CriticalKeywords     []string
	TopK                 int
}

// analyzeQuery implements stage 4.3.1: detect aggregation intent,
// relationship shape, entity-type filter, well-id filter, and the
// reranking top_k implied by relationship confidence.
func analyzeQuery(query string, callerFilter string) Analysis {
	aggType, isAgg := aggregation.DetectType(query)

	det := relationship.Detect(query)

	autoFilter := callerFilter
	if autoFilter == "" {
		if filter, ok := detectEntityFilter(query); ok {
			autoFilter = filter
		}
	}

	wellID, _ := detectWellIDFilter(query)

	topK := 15
	switch {
	case det.Confidence >= 0.85:
		topK = 30
	case det.Confidence >= 0.6:
		topK = 18
	}

	return Analysis{
		AggregationType:  aggType,
		IsAggregation:    isAgg,
		Relationship:     det,
		AutoFilter:       autoFilter,
		WellIDFilter:     wellID,
		CriticalKeywords: extractCriticalKeywords(query),
		TopK:             topK,
	}
}

// applyAnalysis writes the QueryAnalysis stage's findings into the shared
// workflow state.
func applyAnalysis(state *workflow.State, a Analysis) {
	aggTypeLabel := string(a.AggregationType)
	if !a.IsAggregation {
		aggTypeLabel = "none"
	}
	state.Metadata["detected_aggregation_type"] = aggTypeLabel
	state.Metadata["is_aggregation"] = a.IsAggregation
	state.Metadata["relationship_detection"] = a.Relationship
	state.Metadata["auto_filter"] = a.AutoFilter
	if a.WellIDFilter != "" {
		state.Metadata["well_id_filter"] = a.WellIDFilter
	}
	state.Metadata["critical_keywords"] = a.CriticalKeywords
	state.Metadata["top_k"] = a.TopK
}
