// Package reasoning dispatches a question, together with the documents and
// graph context the retrieval pipeline gathered for it, through an ordered
// chain of strategies until one produces an answer. Strategies are tried
// from the most specific (out-of-scope defusion, exact counts) to the most
// general (free-form generation), mirroring a chain-of-responsibility.
package reasoning

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/krump3t/astra-graphrag/genai"
	"github.com/krump3t/astra-graphrag/graphindex"
	"github.com/krump3t/astra-graphrag/reasoning/aggregation"
	"github.com/krump3t/astra-graphrag/reasoning/domainrules"
	"github.com/krump3t/astra-graphrag/reasoning/extraction"
	"github.com/krump3t/astra-graphrag/reasoning/relationship"
	"github.com/krump3t/astra-graphrag/reasoning/scope"
	"github.com/krump3t/astra-graphrag/vectorstore"
	"github.com/krump3t/astra-graphrag/workflow"
)

// Strategy is the unit of the reasoning chain: CanHandle performs a cheap
// check against the query and state, Execute does the (possibly expensive)
// work of producing an answer.
type Strategy interface {
	Name() string
	CanHandle(query string, state *workflow.State) bool
	Execute(ctx context.Context, query string, state *workflow.State) (string, error)
}

// Orchestrator tries its strategies in order and returns the first answer
// produced. The last strategy registered is expected to always handle the
// query, acting as the generation fallback.
type Orchestrator struct {
	strategies []Strategy
}

// NewOrchestrator builds a chain from the given strategies, tried in the
// order given.
func NewOrchestrator(strategies ...Strategy) *Orchestrator {
	return &Orchestrator{strategies: strategies}
}

// Execute runs the query through the chain, recording which strategy
// answered in state.Metadata["strategy"].
func (o *Orchestrator) Execute(ctx context.Context, query string, state *workflow.State) (string, error) {
	for _, s := range o.strategies {
		if !s.CanHandle(query, state) {
			continue
		}
		answer, err := s.Execute(ctx, query, state)
		if err != nil {
			return "", fmt.Errorf("reasoning: strategy %s: %w", s.Name(), err)
		}
		state.Metadata["strategy"] = s.Name()
		state.Response = answer
		return answer, nil
	}
	return "", fmt.Errorf("reasoning: no strategy handled the query")
}

// toAggregationDocuments flattens the vectorstore documents the retrieval
// pipeline gathered into the aggregation package's Document shape.
func toAggregationDocuments(docs []vectorstore.Document) []aggregation.Document {
	out := make([]aggregation.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, aggregation.Document{
			EntityType:   d.EntityType,
			Fields:       d.Fields,
			SemanticText: d.SemanticText,
			Text:         d.Text,
		})
	}
	return out
}

// OutOfScopeStrategy defuses questions that fall outside the energy and
// subsurface domain before any retrieval work is wasted on them.
type OutOfScopeStrategy struct{}

func NewOutOfScopeStrategy() *OutOfScopeStrategy { return &OutOfScopeStrategy{} }

func (s *OutOfScopeStrategy) Name() string { return "out_of_scope" }

func (s *OutOfScopeStrategy) CanHandle(query string, state *workflow.State) bool {
	return !scope.Check(query).InScope
}

func (s *OutOfScopeStrategy) Execute(ctx context.Context, query string, state *workflow.State) (string, error) {
	result := scope.Check(query)
	state.Metadata["scope_category"] = result.Category
	return result.DefusionMessage, nil
}

// CurveCountStrategy answers direct "how many curves" style questions for a
// specific well by counting graph edges instead of asking a model to count
// retrieved text.
type CurveCountStrategy struct {
	Graph *graphindex.Graph
}

func NewCurveCountStrategy(graph *graphindex.Graph) *CurveCountStrategy {
	return &CurveCountStrategy{Graph: graph}
}

func (s *CurveCountStrategy) Name() string { return "curve_count" }

func (s *CurveCountStrategy) CanHandle(query string, state *workflow.State) bool {
	if s.Graph == nil {
		return false
	}
	lower := strings.ToLower(query)
	if !strings.Contains(lower, "how many") || !strings.Contains(lower, "curve") {
		return false
	}
	return state.MetaString("well_id_filter") != ""
}

func (s *CurveCountStrategy) Execute(ctx context.Context, query string, state *workflow.State) (string, error) {
	wellID := state.MetaString("well_id_filter")
	normalized, ok := normalizeWellNodeID(wellID)
	if !ok {
		return "", fmt.Errorf("curve count: invalid well id %q", wellID)
	}
	count := len(s.Graph.GetCurvesForWell(normalized))
	return strconv.Itoa(count), nil
}

// WellCountStrategy answers direct "how many wells" questions via a
// server-side count against the document store rather than scanning
// retrieved text.
type WellCountStrategy struct {
	Store      vectorstore.Client
	Collection string
}

func NewWellCountStrategy(store vectorstore.Client, collection string) *WellCountStrategy {
	return &WellCountStrategy{Store: store, Collection: collection}
}

func (s *WellCountStrategy) Name() string { return "well_count" }

func (s *WellCountStrategy) CanHandle(query string, state *workflow.State) bool {
	if s.Store == nil {
		return false
	}
	lower := strings.ToLower(query)
	if state.MetaString("well_id_filter") != "" {
		return false
	}
	return strings.Contains(lower, "how many") && (strings.Contains(lower, "well") || strings.Contains(lower, "document"))
}

func (s *WellCountStrategy) Execute(ctx context.Context, query string, state *workflow.State) (string, error) {
	count, err := s.Store.CountDocuments(ctx, s.Collection, map[string]interface{}{"entity_type": string(graphindex.NodeLASDocument)})
	if err != nil {
		return "", fmt.Errorf("well count: %w", err)
	}
	return fmt.Sprintf("There are %d wells.", count), nil
}

// RelationshipQueryStrategy handles graph-relationship questions: well
// curve-suite questions dispatch to the well-relationship handlers, curve
// mnemonic lookups fall back to a direct mnemonic scan.
type RelationshipQueryStrategy struct {
	Graph *graphindex.Graph
}

func NewRelationshipQueryStrategy(graph *graphindex.Graph) *RelationshipQueryStrategy {
	return &RelationshipQueryStrategy{Graph: graph}
}

func (s *RelationshipQueryStrategy) Name() string { return "relationship_query" }

func (s *RelationshipQueryStrategy) CanHandle(query string, state *workflow.State) bool {
	if s.Graph == nil {
		return false
	}
	detection := relationship.Detect(query)
	lower := strings.ToLower(query)
	if detection.IsRelationshipQuery && detection.Confidence >= 0.6 {
		return true
	}
	if state.MetaString("well_id_filter") != "" {
		return true
	}
	return strings.Contains(lower, "document") && strings.Contains(lower, "curve")
}

func (s *RelationshipQueryStrategy) Execute(ctx context.Context, query string, state *workflow.State) (string, error) {
	lower := strings.ToLower(query)

	if wellID := state.MetaString("well_id_filter"); wellID != "" {
		wellCtx, ok := buildWellContext(s.Graph, wellID)
		if ok {
			if answer, meta, handled := dispatchWellQuery(lower, wellCtx); handled {
				for k, v := range meta {
					state.Metadata[k] = v
				}
				return answer, nil
			}
		}
	}

	if answer, ok := handleCurveLookup(s.Graph, query); ok {
		return answer, nil
	}

	return "", fmt.Errorf("relationship query: no handler matched")
}

// StructuredExtractionStrategy pulls a single attribute value (state,
// operator, mnemonic description, and so on) directly out of retrieved text
// instead of asking a model to restate it.
type StructuredExtractionStrategy struct {
	Graph *graphindex.Graph
}

func NewStructuredExtractionStrategy(graph *graphindex.Graph) *StructuredExtractionStrategy {
	return &StructuredExtractionStrategy{Graph: graph}
}

func (s *StructuredExtractionStrategy) Name() string { return "structured_extraction" }

func (s *StructuredExtractionStrategy) CanHandle(query string, state *workflow.State) bool {
	_, ok := extraction.DetectAttributeQuery(query)
	if !ok {
		return false
	}
	return extraction.ShouldUseStructuredExtraction(query, state.MetaBool("is_aggregation"))
}

func (s *StructuredExtractionStrategy) Execute(ctx context.Context, query string, state *workflow.State) (string, error) {
	detection, _ := extraction.DetectAttributeQuery(query)
	answer, ok := extraction.Answer(query, state.Retrieved, detection, s.Graph)
	if !ok {
		return "", fmt.Errorf("structured extraction: no value found for %s", detection.AttributeName)
	}
	return answer, nil
}

// AggregationStrategy answers counting, listing, summing, and comparison
// questions by computing directly over the retrieved documents rather than
// delegating arithmetic to a model.
type AggregationStrategy struct {
	Graph *graphindex.Graph
}

func NewAggregationStrategy(graph *graphindex.Graph) *AggregationStrategy {
	return &AggregationStrategy{Graph: graph}
}

func (s *AggregationStrategy) Name() string { return "aggregation" }

func (s *AggregationStrategy) CanHandle(query string, state *workflow.State) bool {
	_, ok := aggregation.DetectType(query)
	return ok
}

func (s *AggregationStrategy) Execute(ctx context.Context, query string, state *workflow.State) (string, error) {
	docs, _ := state.Metadata["documents"].([]vectorstore.Document)
	aggDocs := toAggregationDocuments(docs)

	var directCount *int
	if n, ok := state.Metadata["direct_count"].(int); ok {
		directCount = &n
	}

	result := aggregation.HandleRelationshipAware(query, aggDocs, s.Graph)
	if result == nil {
		result = aggregation.Handle(query, aggDocs, directCount, s.Graph)
	}
	if result == nil {
		return "", fmt.Errorf("aggregation: query did not resolve to a result")
	}
	state.Metadata["is_aggregation"] = true
	state.Metadata["aggregation_context"] = aggregation.FormatForLLM(result)
	return result.Answer, nil
}

// DomainRulesStrategy answers fixed petrophysical-reasoning questions
// ("what does NPHI measure") from a small table of canned explanations.
type DomainRulesStrategy struct{}

func NewDomainRulesStrategy() *DomainRulesStrategy { return &DomainRulesStrategy{} }

func (s *DomainRulesStrategy) Name() string { return "domain_rules" }

func (s *DomainRulesStrategy) CanHandle(query string, state *workflow.State) bool {
	_, ok := domainrules.Apply(query)
	return ok
}

func (s *DomainRulesStrategy) Execute(ctx context.Context, query string, state *workflow.State) (string, error) {
	answer, ok := domainrules.Apply(query)
	if !ok {
		return "", fmt.Errorf("domain rules: no rule matched")
	}
	return answer, nil
}

// LLMGenerationStrategy is the catch-all fallback: it always claims to
// handle the query and asks the generation model to answer from retrieved
// context.
type LLMGenerationStrategy struct {
	Generation genai.GenerationClient
}

func NewLLMGenerationStrategy(generation genai.GenerationClient) *LLMGenerationStrategy {
	return &LLMGenerationStrategy{Generation: generation}
}

func (s *LLMGenerationStrategy) Name() string { return "llm_generation" }

func (s *LLMGenerationStrategy) CanHandle(query string, state *workflow.State) bool {
	return true
}

func (s *LLMGenerationStrategy) Execute(ctx context.Context, query string, state *workflow.State) (string, error) {
	prompt := formatPrompt(query, state.Retrieved)
	result, err := s.Generation.Generate(ctx, prompt, nil)
	if err != nil {
		return "", fmt.Errorf("llm generation: %w", err)
	}
	return result.Text, nil
}

func formatPrompt(query string, retrieved []string) string {
	return fmt.Sprintf("Question: %s\n\nContext:\n%s", query, strings.Join(retrieved, "\n\n"))
}

// NewDefaultOrchestrator assembles the standard strategy chain: defusion,
// exact counts, relationship traversal, structured extraction, aggregation,
// canned domain rules, and finally free-form generation.
func NewDefaultOrchestrator(graph *graphindex.Graph, store vectorstore.Client, collection string, generation genai.GenerationClient) *Orchestrator {
	return NewOrchestrator(
		NewOutOfScopeStrategy(),
		NewCurveCountStrategy(graph),
		NewWellCountStrategy(store, collection),
		NewRelationshipQueryStrategy(graph),
		NewStructuredExtractionStrategy(graph),
		NewAggregationStrategy(graph),
		NewDomainRulesStrategy(),
		NewLLMGenerationStrategy(generation),
	)
}
