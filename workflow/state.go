// Package workflow holds the in-memory per-query state threaded through
// retrieval and reasoning: the question, retrieved context, the answer once
// produced, and a free-form metadata bag the pipeline stages use to pass
// intermediate decisions to one another.
package workflow

import "github.com/google/uuid"

// State is constructed fresh for every query and never persisted.
type State struct {
	ID        string
	Query     string
	Retrieved []string
	Response  string
	Metadata  map[string]interface{}
}

// New returns a State ready for the retrieval pipeline, tagged with a fresh
// query id for log correlation across pipeline stages and strategies.
func New(query string) *State {
	return &State{
		ID:       uuid.NewString(),
		Query:    query,
		Metadata: make(map[string]interface{}),
	}
}

// RecordError appends a {type, message} entry to the "errors" metadata
// slice, used for observability without aborting the pipeline.
func (s *State) RecordError(errType, message string) {
	type errorEntry struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	raw, _ := s.Metadata["errors"].([]errorEntry)
	s.Metadata["errors"] = append(raw, errorEntry{Type: errType, Message: message})
}

// MetaString returns a string metadata value, or "" if absent or of the
// wrong type.
func (s *State) MetaString(key string) string {
	v, _ := s.Metadata[key].(string)
	return v
}

// MetaBool returns a bool metadata value, defaulting to false.
func (s *State) MetaBool(key string) bool {
	v, _ := s.Metadata[key].(bool)
	return v
}
