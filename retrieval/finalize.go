package retrieval

import (
	"github.com/krump3t/astra-graphrag/vectorstore"
	"github.com/krump3t/astra-graphrag/workflow"
)

// finalizeState implements stage 4.3.5: projects filtered documents into
// state.Retrieved and records the bookkeeping fields later stages and
// strategies rely on.
func finalizeState(state *workflow.State, filtered []vectorstore.Document, initialCount int) {
	retrieved := make([]string, 0, len(filtered))
	nodeIDs := make([]string, 0, len(filtered))
	entityTypes := make([]string, 0, len(filtered))

	for _, d := range filtered {
		retrieved = append(retrieved, d.ResolvedText())
		nodeIDs = append(nodeIDs, d.ID)
		entityTypes = append(entityTypes, d.EntityType)
	}

	state.Retrieved = retrieved
	state.Metadata["documents"] = filtered
	state.Metadata["retrieved_documents"] = filtered
	state.Metadata["retrieved_node_ids"] = nodeIDs
	state.Metadata["retrieved_entity_types"] = entityTypes
	state.Metadata["num_results"] = len(filtered)
	state.Metadata["initial_results"] = initialCount
	state.Metadata["reranked"] = true
}
