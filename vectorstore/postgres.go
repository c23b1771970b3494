package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/krump3t/astra-graphrag/helper"
)

// PostgresClient is an alternate, offline Client backed by Postgres and
// pgvector, for self-hosted deployments and integration tests that should
// not depend on an external Astra account. Collections map to tables named
// "<collection>_documents".
type PostgresClient struct {
	db *helper.Database
}

// NewPostgresClient wraps an already-connected database handle.
func NewPostgresClient(db *helper.Database) *PostgresClient {
	return &PostgresClient{db: db}
}

func tableName(collection string) string {
	return fmt.Sprintf("%s_documents", collection)
}

// EnsureSchema creates the collection's backing table if it does not exist,
// sized for dimension-wide embeddings, using a CREATE TABLE IF NOT EXISTS
// idiom.
func (c *PostgresClient) EnsureSchema(ctx context.Context, collection string, dimension int) error {
	stmt := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	text TEXT,
	semantic_text TEXT,
	entity_type TEXT,
	fields JSONB NOT NULL DEFAULT '{}',
	embedding vector(%d)
);`, pq.QuoteIdentifier(tableName(collection)), dimension)

	_, err := c.db.Instance.ExecContext(ctx, stmt)
	if err != nil {
		return helper.NewError("ensure vector store schema", err)
	}
	c.db.Logger.Info("Checked/created vector store table for collection " + collection)
	return nil
}

// VectorSearch orders by cosine distance to embedding and applies a
// simple equality filter over the fields JSONB column plus entity_type.
func (c *PostgresClient) VectorSearch(ctx context.Context, collection string, embedding []float32, opts SearchOptions) ([]Document, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	if opts.MaxDocuments > 0 && limit > opts.MaxDocuments {
		limit = opts.MaxDocuments
	}

	where, args := buildFilterClause(opts.Filter, 2)
	query := fmt.Sprintf(
		`SELECT id, text, semantic_text, entity_type, fields FROM %s %s ORDER BY embedding <=> $1 LIMIT $%d`,
		pq.QuoteIdentifier(tableName(collection)), where, len(args)+2,
	)

	vec := pgvector.NewVector(embedding)
	queryArgs := append([]interface{}{vec}, args...)
	queryArgs = append(queryArgs, limit)

	rows, err := c.db.Instance.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, helper.NewError("vector search", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// CountDocuments applies the same filter clause without ordering by
// similarity.
func (c *PostgresClient) CountDocuments(ctx context.Context, collection string, filter map[string]interface{}) (int, error) {
	where, args := buildFilterClause(filter, 1)
	query := fmt.Sprintf(`SELECT count(*) FROM %s %s`, pq.QuoteIdentifier(tableName(collection)), where)

	var n int
	if err := c.db.Instance.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, helper.NewError("count documents", err)
	}
	return n, nil
}

// BatchFetchByIDs fetches rows matching id = ANY($1); embedding ordering is
// applied when non-empty.
func (c *PostgresClient) BatchFetchByIDs(ctx context.Context, collection string, ids []string, embedding []float32) ([]Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	table := pq.QuoteIdentifier(tableName(collection))
	var rows *sql.Rows
	var err error

	if len(embedding) > 0 {
		query := fmt.Sprintf(`SELECT id, text, semantic_text, entity_type, fields FROM %s WHERE id = ANY($1) ORDER BY embedding <=> $2`, table)
		rows, err = c.db.Instance.QueryContext(ctx, query, pq.Array(ids), pgvector.NewVector(embedding))
	} else {
		query := fmt.Sprintf(`SELECT id, text, semantic_text, entity_type, fields FROM %s WHERE id = ANY($1)`, table)
		rows, err = c.db.Instance.QueryContext(ctx, query, pq.Array(ids))
	}
	if err != nil {
		return nil, helper.NewError("batch fetch by ids", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// UpsertDocuments inserts or replaces rows keyed by id.
func (c *PostgresClient) UpsertDocuments(ctx context.Context, collection string, docs []Document) error {
	table := pq.QuoteIdentifier(tableName(collection))

	for _, d := range docs {
		fieldsJSON, err := json.Marshal(d.Fields)
		if err != nil {
			return helper.NewError("marshal document fields", err)
		}

		var embeddingParam interface{}
		if len(d.Vector) > 0 {
			v := pgvector.NewVector(d.Vector)
			embeddingParam = &v
		}

		query := fmt.Sprintf(`
INSERT INTO %s (id, text, semantic_text, entity_type, fields, embedding)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
	text = EXCLUDED.text,
	semantic_text = EXCLUDED.semantic_text,
	entity_type = EXCLUDED.entity_type,
	fields = EXCLUDED.fields,
	embedding = EXCLUDED.embedding`, table)

		if _, err := c.db.Instance.ExecContext(ctx, query, d.ID, d.Text, d.SemanticText, d.EntityType, fieldsJSON, embeddingParam); err != nil {
			return helper.NewError("upsert document", err)
		}
	}

	return nil
}

// CreateCollection ensures a table exists with a vector column of the
// default dimension 384, a common sentence-transformer output width.
func (c *PostgresClient) CreateCollection(ctx context.Context, name string) error {
	return c.EnsureSchema(ctx, name, 384)
}

// CreateVectorCollection ensures a table exists sized for dimension. metric
// is accepted for interface parity with AstraClient; pgvector's <=> operator
// always computes cosine distance for this schema.
func (c *PostgresClient) CreateVectorCollection(ctx context.Context, name string, dimension int, metric string) error {
	_ = metric
	return c.EnsureSchema(ctx, name, dimension)
}

func buildFilterClause(filter map[string]interface{}, argStart int) (string, []interface{}) {
	if len(filter) == 0 {
		return "", nil
	}

	var clauses []string
	var args []interface{}
	idx := argStart

	for k, v := range filter {
		if k == "entity_type" {
			clauses = append(clauses, fmt.Sprintf("entity_type = $%d", idx))
		} else {
			clauses = append(clauses, fmt.Sprintf("fields->>%s = $%d", pq.QuoteLiteral(k), idx))
		}
		args = append(args, fmt.Sprintf("%v", v))
		idx++
	}

	return "WHERE " + joinAnd(clauses), args
}

func joinAnd(clauses []string) string {
	out := ""
	for i, c := range clauses {
		if i > 0 {
			out += " AND "
		}
		out += c
	}
	return out
}

func scanDocuments(rows *sql.Rows) ([]Document, error) {
	var docs []Document
	for rows.Next() {
		var id, text, semanticText, entityType string
		var fieldsJSON []byte

		if err := rows.Scan(&id, &text, &semanticText, &entityType, &fieldsJSON); err != nil {
			return nil, helper.NewError("scan document row", err)
		}

		fields := map[string]interface{}{}
		if len(fieldsJSON) > 0 {
			_ = json.Unmarshal(fieldsJSON, &fields)
		}

		docs = append(docs, Document{
			ID:           id,
			Text:         text,
			SemanticText: semanticText,
			EntityType:   entityType,
			Fields:       fields,
		})
	}
	return docs, rows.Err()
}

var _ Client = (*PostgresClient)(nil)
