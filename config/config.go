// Package config loads runtime configuration for the retrieval and
// reasoning engine from the environment, optionally seeded by a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// VectorStore holds connection settings for the external document/vector
// store (Astra Data API by default, or a Postgres+pgvector backend).
type VectorStore struct {
	Backend    string // "astra" (default) or "postgres"
	Endpoint   string
	Token      string
	Keyspace   string
	Collection string
}

// GenAIService is the shape shared by the embedding and generation service
// configs: base URL, API key, project id, model id, API version.
type GenAIService struct {
	BaseURL    string
	APIKey     string
	ProjectID  string
	ModelID    string
	APIVersion string
}

// ContextCaps bounds how much retrieved text is folded into prompts.
type ContextCaps struct {
	MaxPromptChars        int
	CharsPerTokenEstimate int
	CompactionThreshold   int
}

// Retry is the exponential-backoff policy applied to every network call at
// the vector-store, embedding, and generation boundaries.
type Retry struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	BackoffFactor float64
	RequestTimeout time.Duration
}

// Config is the fully resolved runtime configuration.
type Config struct {
	VectorStore     VectorStore
	Embedding       GenAIService
	Generation      GenAIService
	Context         ContextCaps
	MaxQueryLength  int
	GraphFilePath   string
	PromptTemplatePath string
	Retry           Retry
}

// Load reads configuration from the environment, first merging in a .env
// file if one is present in the working directory (missing .env is not an
// error). Required settings that are missing cause a fatal, descriptive
// error so misconfiguration fails fast at startup rather than at query time.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		VectorStore: VectorStore{
			Backend:    getenvDefault("VECTOR_STORE_BACKEND", "astra"),
			Endpoint:   os.Getenv("ASTRA_DB_API_ENDPOINT"),
			Token:      os.Getenv("ASTRA_DB_APPLICATION_TOKEN"),
			Keyspace:   getenvDefault("ASTRA_DB_KEYSPACE", "default_keyspace"),
			Collection: getenvDefault("ASTRA_DB_COLLECTION", "graphrag_documents"),
		},
		Embedding: GenAIService{
			BaseURL:    os.Getenv("EMBEDDING_BASE_URL"),
			APIKey:     os.Getenv("EMBEDDING_API_KEY"),
			ProjectID:  os.Getenv("EMBEDDING_PROJECT_ID"),
			ModelID:    getenvDefault("EMBEDDING_MODEL_ID", "ibm/slate-125m-english-rtrvr"),
			APIVersion: getenvDefault("EMBEDDING_API_VERSION", "2024-03-14"),
		},
		Generation: GenAIService{
			BaseURL:    os.Getenv("GENERATION_BASE_URL"),
			APIKey:     os.Getenv("GENERATION_API_KEY"),
			ProjectID:  os.Getenv("GENERATION_PROJECT_ID"),
			ModelID:    getenvDefault("GENERATION_MODEL_ID", "ibm/granite-13b-instruct-v2"),
			APIVersion: getenvDefault("GENERATION_API_VERSION", "2024-03-14"),
		},
		Context: ContextCaps{
			MaxPromptChars:        getenvInt("MAX_PROMPT_CHARS", 8000),
			CharsPerTokenEstimate: getenvInt("CHARS_PER_TOKEN_ESTIMATE", 4),
			CompactionThreshold:   getenvInt("COMPACTION_THRESHOLD", 6000),
		},
		MaxQueryLength:     getenvInt("MAX_QUERY_LENGTH", 500),
		GraphFilePath:      getenvDefault("GRAPH_FILE_PATH", "./data/combined_graph.json"),
		PromptTemplatePath: getenvDefault("PROMPT_TEMPLATE_PATH", "./data/prompt_template.txt"),
		Retry: Retry{
			MaxAttempts:    getenvInt("RETRY_MAX_ATTEMPTS", 3),
			BaseDelay:      time.Duration(getenvInt("RETRY_BASE_DELAY_MS", 1000)) * time.Millisecond,
			BackoffFactor:  2.0,
			RequestTimeout: 60 * time.Second,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.VectorStore.Backend == "astra" {
		if c.VectorStore.Endpoint == "" {
			return fmt.Errorf("config: ASTRA_DB_API_ENDPOINT is required when VECTOR_STORE_BACKEND=astra")
		}
		if c.VectorStore.Token == "" {
			return fmt.Errorf("config: ASTRA_DB_APPLICATION_TOKEN is required when VECTOR_STORE_BACKEND=astra")
		}
	}
	if c.MaxQueryLength <= 0 {
		return fmt.Errorf("config: MAX_QUERY_LENGTH must be positive")
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
