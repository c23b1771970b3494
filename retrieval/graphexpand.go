package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/krump3t/astra-graphrag/graphindex"
	"github.com/krump3t/astra-graphrag/reasoning/relationship"
	"github.com/krump3t/astra-graphrag/vectorstore"
	"github.com/krump3t/astra-graphrag/workflow"
)

func buildSeeds(a Analysis, filtered []vectorstore.Document) []string {
	if a.Relationship.RelationshipType == relationship.WellToCurves && a.WellIDFilter != "" {
		if normalized, ok := normalizeWellID(a.WellIDFilter); ok {
			return []string{normalized}
		}
	}
	seeds := make([]string, 0, len(filtered))
	for _, d := range filtered {
		if d.ID != "" {
			seeds = append(seeds, d.ID)
		}
	}
	return seeds
}

func normalizeWellID(wellID string) (string, bool) {
	normalized := strings.TrimSpace(strings.ReplaceAll(wellID, "/", "_"))
	if normalized == "" {
		return "", false
	}
	if !strings.HasPrefix(normalized, "force2020-well-") {
		normalized = "force2020-well-" + normalized
	}
	return normalized, true
}

func expansionDirection(relType relationship.Type, seeds []string, graph *graphindex.Graph) *graphindex.Direction {
	switch relType {
	case relationship.WellToCurves:
		for _, id := range seeds {
			if node, ok := graph.GetNode(id); ok && node.Type == graphindex.NodeLASCurve {
				return nil // both directions
			}
		}
	case relationship.CurveToWell:
		for _, id := range seeds {
			if node, ok := graph.GetNode(id); ok && node.Type == graphindex.NodeLASDocument {
				return nil // both directions
			}
		}
	}
	out := graphindex.DirectionOutgoing
	return &out
}

func synthesizeNodeText(node *graphindex.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", node.ID, node.Type)
	keys := make([]string, 0, len(node.Attributes))
	for k := range node.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, node.Attributes[k])
	}
	return b.String()
}

// expandGraph implements stage 4.3.6: expands from seed nodes, batch-fetches
// rich documents for newly discovered nodes, and replaces state.Retrieved
// with the expanded set.
func expandGraph(ctx context.Context, graph *graphindex.Graph, store vectorstore.Client, collection string, a Analysis, filtered []vectorstore.Document, state *workflow.State) []vectorstore.Document {
	if graph == nil || !a.Relationship.Traversal.ApplyTraversal || a.Relationship.Confidence < 0.6 {
		return filtered
	}

	seeds := buildSeeds(a, filtered)
	if len(seeds) == 0 {
		return filtered
	}

	maxHops := a.Relationship.Traversal.MaxHops
	if maxHops == 0 {
		maxHops = 1
	}
	direction := a.Relationship.Traversal.Direction
	if direction == nil {
		direction = expansionDirection(a.Relationship.RelationshipType, seeds, graph)
	}

	expandedNodes := graph.Expand(seeds, direction, maxHops)

	known := make(map[string]struct{}, len(filtered))
	for _, d := range filtered {
		known[d.ID] = struct{}{}
	}

	var newIDs []string
	for _, n := range expandedNodes {
		if _, ok := known[n.ID]; !ok {
			newIDs = append(newIDs, n.ID)
		}
	}

	result := append([]vectorstore.Document{}, filtered...)
	if len(newIDs) > 0 {
		fetched, err := store.BatchFetchByIDs(ctx, collection, newIDs, nil)
		if err != nil {
			state.RecordError("graph_expansion_fetch", err.Error())
			fetched = nil
		}
		fetchedByID := make(map[string]vectorstore.Document, len(fetched))
		for _, d := range fetched {
			fetchedByID[d.ID] = d
		}
		for _, id := range newIDs {
			if d, ok := fetchedByID[id]; ok {
				result = append(result, d)
				continue
			}
			node, ok := graph.GetNode(id)
			if !ok {
				continue
			}
			result = append(result, vectorstore.Document{ID: id, EntityType: string(node.Type), Text: synthesizeNodeText(node)})
		}
	}

	initialCount := len(filtered)
	finalizeState(state, result, initialCount)
	state.Metadata["graph_traversal_applied"] = true
	state.Metadata["num_results_after_traversal"] = len(result)
	if initialCount > 0 {
		state.Metadata["expansion_ratio"] = float64(len(result)) / float64(initialCount)
	} else {
		state.Metadata["expansion_ratio"] = 0.0
	}

	return result
}
