package aggregation

import (
	"strings"
	"testing"
)

func docs() []Document {
	return []Document{
		{EntityType: "las_document", Fields: map[string]interface{}{"state": "Indiana", "operator": "Acme"}},
		{EntityType: "las_document", Fields: map[string]interface{}{"state": "Indiana", "operator": "Beta"}},
		{EntityType: "las_curve", Fields: map[string]interface{}{"state": "Texas", "operator": "Acme"}},
	}
}

func TestDetectType_CountPhrase(t *testing.T) {
	aggType, ok := DetectType("How many wells are there?")
	if !ok || aggType != TypeCount {
		t.Fatalf("got %v ok=%v", aggType, ok)
	}
}

func TestDetectType_WhatDataAvailableIsCount(t *testing.T) {
	aggType, ok := DetectType("What data is available for this site?")
	if !ok || aggType != TypeCount {
		t.Fatalf("got %v ok=%v", aggType, ok)
	}
}

func TestDetectType_RangeBeatsMaxKeyword(t *testing.T) {
	aggType, ok := DetectType("What is the range of years, from oldest to latest?")
	if !ok || aggType != TypeRange {
		t.Fatalf("got %v ok=%v", aggType, ok)
	}
}

func TestHandle_CountWithStateFilter(t *testing.T) {
	result := Handle("How many wells are in Indiana?", docs(), nil, nil)
	if result == nil {
		t.Fatal("expected a result")
	}
	if result.Count != 2 {
		t.Fatalf("expected 2 documents matched by state filter, got %d", result.Count)
	}
	want := "There are 2 well log documents in Indiana."
	if result.Answer != want {
		t.Fatalf("got %q want %q", result.Answer, want)
	}
}

func TestHandle_ComparisonGroupsByOperator(t *testing.T) {
	result := Handle("Which operator has more records?", docs(), nil, nil)
	if result == nil || result.Type != TypeComparison {
		t.Fatalf("expected comparison result, got %+v", result)
	}
	if result.MaxGroup != "Acme" || result.MaxCount != 2 {
		t.Fatalf("expected Acme with 2 records, got %s/%d", result.MaxGroup, result.MaxCount)
	}
}

func TestHandle_UnknownQueryReturnsNil(t *testing.T) {
	if Handle("Tell me a story", docs(), nil, nil) != nil {
		t.Fatal("expected nil for a non-aggregation query")
	}
}

func TestExtractFieldFromQuery_ExactTokenMatch(t *testing.T) {
	field, ok := ExtractFieldFromQuery("what is the operator", docs())
	if !ok || field != "operator" {
		t.Fatalf("got %q ok=%v", field, ok)
	}
}

func TestGroupByField_OrdersByCountDescending(t *testing.T) {
	keys, counts := GroupByField(docs(), "operator")
	if len(keys) == 0 || keys[0] != "Acme" || counts[0] != 2 {
		t.Fatalf("got keys=%v counts=%v", keys, counts)
	}
}

func TestFormatForLLM_CountIncludesFilter(t *testing.T) {
	result := Handle("How many las curves are there?", docs(), nil, nil)
	if result == nil {
		t.Fatal("expected a result")
	}
	formatted := FormatForLLM(result)
	if !strings.Contains(formatted, "AGGREGATION RESULT (COUNT)") {
		t.Fatalf("unexpected formatted output: %s", formatted)
	}
	if !strings.Contains(formatted, "Filtered by entity type: las_curve") {
		t.Fatalf("expected entity-type filter in formatted output: %s", formatted)
	}
}
