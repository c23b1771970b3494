// Package vectorstore abstracts the external document/vector store the
// retrieval pipeline searches against. The default implementation speaks
// the Astra Data API JSON wire contract; an alternate Postgres+pgvector
// implementation is available for offline/self-hosted deployments.
package vectorstore

import "context"

// Document is the opaque mapping returned by the store: at minimum an id,
// optional embedding, human- and embedding-oriented text, an entity type,
// and flat copies of node attributes.
type Document struct {
	ID           string                 `json:"_id"`
	Vector       []float32              `json:"$vector,omitempty"`
	Text         string                 `json:"text,omitempty"`
	SemanticText string                 `json:"semantic_text,omitempty"`
	EntityType   string                 `json:"entity_type,omitempty"`
	Fields       map[string]interface{} `json:"-"`
}

// SearchOptions configures a VectorSearch call.
type SearchOptions struct {
	Limit         int
	Filter        map[string]interface{}
	MaxDocuments  int // 0 = no cap
}

// Client is the contract the retrieval pipeline and bootstrap code use to
// talk to the document store. AstraClient applies its retry policy to every
// request; PostgresClient does not retry.
type Client interface {
	// VectorSearch paginates transparently: page size is capped at 1000 by
	// the underlying store, continues while a continuation token is
	// returned and MaxDocuments is not exceeded, and stops early if a short
	// page comes back.
	VectorSearch(ctx context.Context, collection string, embedding []float32, opts SearchOptions) ([]Document, error)

	// CountDocuments performs a server-side count independent of vector
	// similarity.
	CountDocuments(ctx context.Context, collection string, filter map[string]interface{}) (int, error)

	// BatchFetchByIDs fetches multiple documents by id in a single request.
	// embedding is an optional similarity-ordering hint.
	BatchFetchByIDs(ctx context.Context, collection string, ids []string, embedding []float32) ([]Document, error)

	// UpsertDocuments, CreateCollection, CreateVectorCollection are used by
	// bootstrap/ingestion, not the query path.
	UpsertDocuments(ctx context.Context, collection string, docs []Document) error
	CreateCollection(ctx context.Context, name string) error
	CreateVectorCollection(ctx context.Context, name string, dimension int, metric string) error
}
