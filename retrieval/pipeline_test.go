package retrieval

import (
	"testing"

	"github.com/krump3t/astra-graphrag/vectorstore"
	"github.com/krump3t/astra-graphrag/workflow"
)

func TestDetectWellIDFilter_NormalizesSlashToUnderscore(t *testing.T) {
	got, ok := detectWellIDFilter("what curves does well 15/9-13 have")
	if !ok || got != "15_9-13" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
}

func TestDetectEntityFilter_MatchesCurveKeyword(t *testing.T) {
	got, ok := detectEntityFilter("what does the gamma ray curve measure")
	if !ok || got != "las_curve" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
}

func TestExtractCriticalKeywords_CalledPattern(t *testing.T) {
	got := extractCriticalKeywords(`find the well called "sleipner"`)
	if len(got) != 1 || got[0] != "sleipner" {
		t.Fatalf("got %v", got)
	}
}

func TestRerank_KeepsVectorOrderWithoutOverlapAndRespectsTopK(t *testing.T) {
	docs := []vectorstore.Document{
		{ID: "a", Text: "alpha"},
		{ID: "b", Text: "beta"},
		{ID: "c", Text: "gamma"},
	}
	got := rerank("irrelevant query", docs, 2, 0.2)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("got %+v", got)
	}
}

func TestApplyFilters_FallsBackWhenKeywordFilterEmptiesResult(t *testing.T) {
	docs := []vectorstore.Document{{ID: "well-1", Text: "unrelated content"}}
	a := Analysis{CriticalKeywords: []string{"nonexistent"}}
	state := workflow.New("query")

	got := applyFilters("query", docs, a, state)
	if len(got) == 0 {
		t.Fatal("expected fallback to keep at least one document")
	}
	if state.MetaBool("filter_fallback_applied") != true {
		t.Fatal("expected fallback flag to be set")
	}
}

func TestTruncate_CapsAtLimit(t *testing.T) {
	docs := make([]vectorstore.Document, 20)
	got := truncate(docs, filterTruncationLimit)
	if len(got) != filterTruncationLimit {
		t.Fatalf("got %d", len(got))
	}
}
