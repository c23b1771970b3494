package aggregation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/krump3t/astra-graphrag/reasoning/extraction"
)

// entityLabels maps entity_type values to the plural noun phrase used in
// generated count answers; "" stands in for Python's untyped None case.
var entityLabels = map[string]string{
	"eia_record":       "EIA production records",
	"usgs_site":        "USGS monitoring sites",
	"usgs_measurement": "USGS measurements",
	"las_curve":        "LAS curves",
	"las_document":     "well log documents",
	"":                 "records",
}

func entityLabel(entityType string) string {
	if label, ok := entityLabels[entityType]; ok {
		return label
	}
	return entityLabels[""]
}

var stateNameToProper = buildStateNameToProper()

func buildStateNameToProper() map[string]string {
	m := make(map[string]string, len(extraction.USStateAbbrev))
	for _, name := range extraction.USStateAbbrev {
		m[strings.ToLower(name)] = name
	}
	return m
}

// Filters records which query-driven filters narrowed the document set
// before aggregation ran.
type Filters struct {
	States []string
}

func (f Filters) empty() bool {
	return len(f.States) == 0
}

func detectStateFilters(queryLower string) []string {
	var states []string
	seen := make(map[string]struct{})
	for lowerName, proper := range stateNameToProper {
		if !strings.Contains(queryLower, lowerName) {
			continue
		}
		if _, ok := seen[proper]; ok {
			continue
		}
		seen[proper] = struct{}{}
		states = append(states, proper)
	}
	sort.Strings(states)
	return states
}

var stateFilterFields = []string{"state", "site_state", "us_state", "state_code", "location", "location_info", "region", "source_file"}
var stateFilterAttrFields = []string{"state", "site_state", "us_state", "state_code", "location", "location_info", "region"}

func docMatchesState(doc Document, stateTokensLower []string) bool {
	if len(stateTokensLower) == 0 {
		return true
	}
	var parts []string
	for _, key := range stateFilterFields {
		if v, ok := doc.Fields[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
	}
	for _, key := range stateFilterAttrFields {
		if v, ok := doc.Attributes[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
	}
	parts = append(parts, doc.SemanticText, doc.Text)

	haystack := strings.ToLower(strings.Join(parts, " "))
	for _, token := range stateTokensLower {
		if strings.Contains(haystack, token) {
			return true
		}
	}
	return false
}

// applyQueryFilters narrows documents by any state names mentioned in the
// query. If no filter matched, the original slice is returned unchanged.
func applyQueryFilters(documents []Document, queryLower string) ([]Document, Filters) {
	states := detectStateFilters(queryLower)
	if len(states) == 0 {
		return documents, Filters{}
	}

	lowerStates := make([]string, len(states))
	for i, s := range states {
		lowerStates[i] = strings.ToLower(s)
	}

	var filtered []Document
	for _, doc := range documents {
		if docMatchesState(doc, lowerStates) {
			filtered = append(filtered, doc)
		}
	}
	return filtered, Filters{States: states}
}

func formatStatePhrase(states []string) string {
	switch len(states) {
	case 0:
		return ""
	case 1:
		return "in " + states[0]
	case 2:
		return fmt.Sprintf("in %s and %s", states[0], states[1])
	default:
		return "in " + strings.Join(states[:len(states)-1], ", ") + fmt.Sprintf(", and %s", states[len(states)-1])
	}
}

func pluralizeLabel(label string, count int) string {
	if count == 1 && strings.HasSuffix(label, "s") {
		return strings.TrimSuffix(label, "s")
	}
	return label
}

func formatCountAnswer(count int, entityType string, filters Filters) string {
	label := pluralizeLabel(entityLabel(entityType), count)
	parts := []string{fmt.Sprintf("There are %d %s", count, label)}
	if phrase := formatStatePhrase(filters.States); phrase != "" {
		parts = append(parts, phrase)
	}
	return strings.Join(parts, " ") + "."
}

func mergeFilterSuffix(answer string, filters Filters) string {
	base := strings.TrimSpace(answer)
	if base == "" {
		base = "No data found"
	}
	phrase := formatStatePhrase(filters.States)
	if phrase == "" {
		return strings.TrimRight(base, ".") + "."
	}
	if strings.Contains(base, phrase) {
		return strings.TrimRight(base, ".") + "."
	}
	return fmt.Sprintf("%s %s.", strings.TrimRight(base, "."), phrase)
}

// CountEntities counts documents, optionally restricted to a single
// entity_type.
func CountEntities(documents []Document, entityType string) int {
	if entityType == "" {
		return len(documents)
	}
	n := 0
	for _, d := range documents {
		if d.EntityType == entityType {
			n++
		}
	}
	return n
}

// ListUniqueValues returns the sorted, deduplicated string values of field
// across documents, capped at limit.
func ListUniqueValues(documents []Document, field string, limit int) []string {
	if len(documents) == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	for _, doc := range documents {
		if v, ok := extractFieldValue(doc, field); ok {
			seen[fmt.Sprintf("%v", v)] = struct{}{}
		}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	if limit > 0 && len(values) > limit {
		values = values[:limit]
	}
	return values
}

func formatExtreme(numeric float64, raw interface{}, numericSeen bool) interface{} {
	if numericSeen {
		if numeric == float64(int64(numeric)) {
			return int64(numeric)
		}
		return numeric
	}
	return raw
}

// MaxField returns the largest numeric value of field across documents,
// falling back to the lexicographically largest non-numeric value when no
// document carries a numeric value for field.
func MaxField(documents []Document, field string) (interface{}, bool) {
	var bestNumeric float64
	var bestValue interface{}
	numericSeen := false
	valueSeen := false

	for _, doc := range documents {
		value, ok := extractFieldValue(doc, field)
		if !ok {
			continue
		}
		if numeric, ok := coerceNumeric(value); ok {
			if !numericSeen || numeric > bestNumeric {
				bestNumeric = numeric
				numericSeen = true
			}
		} else if !numericSeen {
			sv := fmt.Sprintf("%v", value)
			if !valueSeen || sv > fmt.Sprintf("%v", bestValue) {
				bestValue = value
				valueSeen = true
			}
		}
	}

	if numericSeen {
		return formatExtreme(bestNumeric, nil, true), true
	}
	if valueSeen {
		return bestValue, true
	}
	return nil, false
}

// MinField is the MaxField analogue for smallest value.
func MinField(documents []Document, field string) (interface{}, bool) {
	var bestNumeric float64
	var bestValue interface{}
	numericSeen := false
	valueSeen := false

	for _, doc := range documents {
		value, ok := extractFieldValue(doc, field)
		if !ok {
			continue
		}
		if numeric, ok := coerceNumeric(value); ok {
			if !numericSeen || numeric < bestNumeric {
				bestNumeric = numeric
				numericSeen = true
			}
		} else if !numericSeen {
			sv := fmt.Sprintf("%v", value)
			if !valueSeen || sv < fmt.Sprintf("%v", bestValue) {
				bestValue = value
				valueSeen = true
			}
		}
	}

	if numericSeen {
		return formatExtreme(bestNumeric, nil, true), true
	}
	if valueSeen {
		return bestValue, true
	}
	return nil, false
}

// SumField numerically sums field across documents, ignoring values that do
// not coerce to a number.
func SumField(documents []Document, field string) float64 {
	var total float64
	for _, doc := range documents {
		if value, ok := extractFieldValue(doc, field); ok {
			if numeric, ok := coerceNumeric(value); ok {
				total += numeric
			}
		}
	}
	return total
}

// GroupByField counts documents per distinct value of field, returned as
// (keys, counts) sorted by count descending, stable by key for ties.
func GroupByField(documents []Document, field string) ([]string, []int) {
	if len(documents) == 0 {
		return nil, nil
	}
	counts := make(map[string]int)
	for _, doc := range documents {
		if value, ok := extractFieldValue(doc, field); ok {
			counts[fmt.Sprintf("%v", value)]++
		}
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	values := make([]int, len(keys))
	for i, k := range keys {
		values[i] = counts[k]
	}
	return keys, values
}

// FindMaxGroup returns the group with the highest count from GroupByField's
// output.
func FindMaxGroup(keys []string, counts []int) (string, int) {
	if len(keys) == 0 {
		return "", 0
	}
	bestIdx := 0
	for i, c := range counts {
		if c > counts[bestIdx] {
			bestIdx = i
		}
	}
	return keys[bestIdx], counts[bestIdx]
}
