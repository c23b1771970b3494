// Package aggregation answers count/list/sum/range/comparison style queries
// directly from retrieved documents and the graph, without a generation
// round-trip when the answer can be computed exactly.
package aggregation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Document is the retrieval-pipeline's per-hit record. Fields mirrors the
// top-level keys a source put directly on the document (state, source_file,
// domain, ...); Attributes/Metadata/Data mirror the nested containers the
// original corpus stores structured values under.
type Document struct {
	EntityType   string
	Fields       map[string]interface{}
	Attributes   map[string]interface{}
	Metadata     map[string]interface{}
	Data         map[string]interface{}
	SemanticText string
	Text         string
}

var reservedFieldNames = map[string]struct{}{
	"id": {}, "_id": {}, "type": {}, "attributes": {}, "metadata": {}, "data": {},
}

func (d Document) containers() []map[string]interface{} {
	return []map[string]interface{}{d.Fields, d.Attributes, d.Metadata, d.Data}
}

func extractFieldValue(doc Document, field string) (interface{}, bool) {
	for _, c := range doc.containers() {
		if c == nil {
			continue
		}
		if v, ok := c[field]; ok && v != nil && v != "" {
			return v, true
		}
	}
	return nil, false
}

func coerceNumeric(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

var stopwords = map[string]struct{}{
	"what": {}, "show": {}, "list": {}, "all": {}, "the": {}, "does": {}, "many": {}, "how": {},
	"are": {}, "there": {}, "for": {}, "with": {}, "get": {}, "give": {}, "could": {}, "you": {},
	"unique": {}, "available": {}, "different": {}, "count": {}, "number": {}, "records": {},
	"total": {}, "per": {}, "of": {}, "in": {}, "and": {}, "to": {}, "from": {}, "find": {},
	"tell": {}, "me": {},
}

// keywordPriority orders domain keywords from most to least specific for the
// fallback field-matching strategy.
var keywordPriority = []string{
	"production", "oil", "gas", "mnemonic", "curve", "well", "region", "site",
	"operator", "county", "state", "unit", "value", "depth", "date", "year", "month",
}

var tokenPattern = regexp.MustCompile(`[a-z0-9_]+`)

func tokenizeQuery(query string) []string {
	var tokens []string
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(query), -1) {
		if _, skip := stopwords[tok]; skip {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func collectCandidateFields(documents []Document) map[string]struct{} {
	fields := make(map[string]struct{})
	for _, doc := range documents {
		for _, container := range doc.containers() {
			for key := range container {
				lower := strings.ToLower(key)
				if _, reserved := reservedFieldNames[lower]; reserved {
					continue
				}
				fields[key] = struct{}{}
			}
		}
	}
	return fields
}

func sortedByLenThenName(fields []string) {
	sort.Slice(fields, func(i, j int) bool {
		if len(fields[i]) != len(fields[j]) {
			return len(fields[i]) < len(fields[j])
		}
		return strings.ToLower(fields[i]) < strings.ToLower(fields[j])
	})
}

// ExtractFieldFromQuery infers the most relevant document field mentioned in
// the query: an exact token match, else the shortest field containing a
// query token as a substring, else the shortest field matching a
// domain-keyword the query mentions.
func ExtractFieldFromQuery(query string, documents []Document) (string, bool) {
	if query == "" || len(documents) == 0 {
		return "", false
	}

	candidates := collectCandidateFields(documents)
	if len(candidates) == 0 {
		return "", false
	}

	tokens := tokenizeQuery(query)
	queryLower := strings.ToLower(query)

	for _, token := range tokens {
		for field := range candidates {
			if strings.ToLower(field) == token {
				return field, true
			}
		}
	}

	for _, token := range tokens {
		if len(token) < 3 {
			continue
		}
		var matches []string
		for field := range candidates {
			if strings.Contains(strings.ToLower(field), token) {
				matches = append(matches, field)
			}
		}
		if len(matches) > 0 {
			sortedByLenThenName(matches)
			return matches[0], true
		}
	}

	for _, keyword := range keywordPriority {
		if !strings.Contains(queryLower, keyword) {
			continue
		}
		var matches []string
		for field := range candidates {
			if strings.Contains(strings.ToLower(field), keyword) {
				matches = append(matches, field)
			}
		}
		if len(matches) > 0 {
			sortedByLenThenName(matches)
			return matches[0], true
		}
	}

	return "", false
}
