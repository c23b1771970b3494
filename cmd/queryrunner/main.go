// Command queryrunner builds the retrieval and reasoning stack once and
// answers a single question passed on the command line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/krump3t/astra-graphrag/config"
	"github.com/krump3t/astra-graphrag/genai"
	"github.com/krump3t/astra-graphrag/graphindex"
	"github.com/krump3t/astra-graphrag/helper"
	"github.com/krump3t/astra-graphrag/reasoning"
	"github.com/krump3t/astra-graphrag/retrieval"
	"github.com/krump3t/astra-graphrag/retry"
	"github.com/krump3t/astra-graphrag/vectorstore"
)

func main() {
	query := flag.String("query", "", "the question to answer")
	filterJSON := flag.String("filter", "", `optional filter JSON, e.g. {"entity_type":"las_curve"}`)
	flag.Parse()

	if *query == "" && flag.NArg() > 0 {
		*query = strings.Join(flag.Args(), " ")
	}
	if *query == "" {
		fmt.Fprintln(os.Stderr, "queryrunner: a query is required (use -query or a trailing argument)")
		os.Exit(1)
	}

	if err := run(*query, *filterJSON); err != nil {
		fmt.Fprintln(os.Stderr, "queryrunner:", err)
		os.Exit(1)
	}
}

func run(query, filterJSON string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := slog.New(helper.NewPrettyHandler(os.Stderr, helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: slog.LevelInfo},
	}))

	graph, err := graphindex.LoadGraph(cfg.GraphFilePath)
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.Retry.RequestTimeout}
	policy := retry.Policy{
		MaxAttempts:   cfg.Retry.MaxAttempts,
		BaseDelay:     cfg.Retry.BaseDelay,
		MaxDelay:      30 * time.Second,
		BackoffFactor: cfg.Retry.BackoffFactor,
	}

	store := vectorstore.NewAstraClient(cfg.VectorStore.Endpoint, cfg.VectorStore.Token, cfg.VectorStore.Keyspace, httpClient, policy, logger)
	embedder := genai.NewWatsonxEmbeddingClient(cfg.Embedding, httpClient, policy)
	generator := genai.NewWatsonxGenerationClient(cfg.Generation, httpClient, policy)

	pipeline := retrieval.NewPipeline(embedder, store, cfg.VectorStore.Collection, graph)
	orchestrator := reasoning.NewDefaultOrchestrator(graph, store, cfg.VectorStore.Collection, generator)

	opts := retrieval.Options{}
	if filterJSON != "" {
		var filter struct {
			EntityType string `json:"entity_type"`
		}
		if err := json.Unmarshal([]byte(filterJSON), &filter); err != nil {
			return fmt.Errorf("parse filter JSON: %w", err)
		}
		opts.Filter = filter.EntityType
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Retry.RequestTimeout)
	defer cancel()

	state, err := pipeline.Run(ctx, query, opts, cfg.MaxQueryLength)
	if err != nil {
		return fmt.Errorf("retrieval pipeline: %w", err)
	}
	logger.Info("retrieval complete", "query_id", state.ID, "query", truncateForDisplay(query, 200))

	answer, err := orchestrator.Execute(ctx, query, state)
	if err != nil {
		return fmt.Errorf("reasoning orchestrator: %w", err)
	}

	fmt.Println("Retrieved context:")
	for i, text := range state.Retrieved {
		fmt.Printf("[%d] %s\n", i+1, truncateForDisplay(text, 200))
	}
	fmt.Println()
	fmt.Println("Answer:", answer)

	return nil
}

func truncateForDisplay(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
