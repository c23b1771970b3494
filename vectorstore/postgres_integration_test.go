//go:build integration

package vectorstore

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/krump3t/astra-graphrag/helper"
)

func TestPostgresClient_RoundTrip(t *testing.T) {
	cfg, cleanup := helper.MustStartPostgresContainer()
	defer cleanup()

	logger := slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{}))
	db, err := helper.NewDatabase("vectorstore-test", cfg, logger)
	require.NoError(t, err)
	defer db.Instance.Close()

	client := NewPostgresClient(db)
	ctx := context.Background()

	require.NoError(t, client.CreateVectorCollection(ctx, "wells", 3, "cosine"))

	require.NoError(t, client.UpsertDocuments(ctx, "wells", []Document{
		{ID: "w1", Text: "Well 15/9-13", EntityType: "las_document", Vector: []float32{1, 0, 0}, Fields: map[string]interface{}{"WELL": "15/9-13"}},
		{ID: "w2", Text: "Well 16/2-6", EntityType: "las_document", Vector: []float32{0, 1, 0}, Fields: map[string]interface{}{"WELL": "16/2-6"}},
	}))

	count, err := client.CountDocuments(ctx, "wells", map[string]interface{}{"entity_type": "las_document"})
	require.NoError(t, err)
	require.Equal(t, 2, count)

	docs, err := client.VectorSearch(ctx, "wells", []float32{1, 0, 0}, SearchOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "w1", docs[0].ID)

	fetched, err := client.BatchFetchByIDs(ctx, "wells", []string{"w1", "w2"}, nil)
	require.NoError(t, err)
	require.Len(t, fetched, 2)
}
