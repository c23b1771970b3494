package reasoning

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/krump3t/astra-graphrag/graphindex"
	"github.com/krump3t/astra-graphrag/vectorstore"
	"github.com/krump3t/astra-graphrag/workflow"
)

const sampleGraphJSON = `{
  "nodes": [
    {"id": "force2020-well-15_9-13", "type": "las_document", "attributes": {"WELL": "15/9-13"}},
    {"id": "force2020-curve-1", "type": "las_curve", "attributes": {"mnemonic": "GR"}},
    {"id": "force2020-curve-2", "type": "las_curve", "attributes": {"mnemonic": "NPHI"}}
  ],
  "edges": [
    {"id": "e1", "source": "force2020-curve-1", "target": "force2020-well-15_9-13", "type": "describes"},
    {"id": "e2", "source": "force2020-curve-2", "target": "force2020-well-15_9-13", "type": "describes"}
  ]
}`

func mustLoadSampleGraph(t *testing.T) *graphindex.Graph {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := os.WriteFile(path, []byte(sampleGraphJSON), 0o644); err != nil {
		t.Fatalf("write sample graph: %v", err)
	}
	g, err := graphindex.LoadGraph(path)
	if err != nil {
		t.Fatalf("load sample graph: %v", err)
	}
	return g
}

type fakeCountStore struct {
	count int
}

func (f *fakeCountStore) VectorSearch(ctx context.Context, collection string, embedding []float32, opts vectorstore.SearchOptions) ([]vectorstore.Document, error) {
	return nil, nil
}
func (f *fakeCountStore) CountDocuments(ctx context.Context, collection string, filter map[string]interface{}) (int, error) {
	return f.count, nil
}
func (f *fakeCountStore) BatchFetchByIDs(ctx context.Context, collection string, ids []string, embedding []float32) ([]vectorstore.Document, error) {
	return nil, nil
}
func (f *fakeCountStore) UpsertDocuments(ctx context.Context, collection string, docs []vectorstore.Document) error {
	return nil
}
func (f *fakeCountStore) CreateCollection(ctx context.Context, name string) error { return nil }
func (f *fakeCountStore) CreateVectorCollection(ctx context.Context, name string, dimension int, metric string) error {
	return nil
}

type stubStrategy struct {
	name    string
	handles bool
	answer  string
}

func (s *stubStrategy) Name() string { return s.name }
func (s *stubStrategy) CanHandle(query string, state *workflow.State) bool { return s.handles }
func (s *stubStrategy) Execute(ctx context.Context, query string, state *workflow.State) (string, error) {
	return s.answer, nil
}

func TestOrchestrator_StopsAtFirstHandler(t *testing.T) {
	o := NewOrchestrator(
		&stubStrategy{name: "skip", handles: false},
		&stubStrategy{name: "match", handles: true, answer: "handled"},
		&stubStrategy{name: "fallback", handles: true, answer: "should not run"},
	)

	state := workflow.New("does it matter")
	answer, err := o.Execute(context.Background(), "does it matter", state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "handled" {
		t.Fatalf("got %q", answer)
	}
	if state.MetaString("strategy") != "match" {
		t.Fatalf("expected strategy metadata to record the winner, got %q", state.MetaString("strategy"))
	}
}

func TestOutOfScopeStrategy_DefusesWeatherQuery(t *testing.T) {
	s := NewOutOfScopeStrategy()
	state := workflow.New("what's the weather forecast today?")
	if !s.CanHandle("what's the weather forecast today?", state) {
		t.Fatal("expected weather query to be out of scope")
	}
	answer, err := s.Execute(context.Background(), "what's the weather forecast today?", state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer == "" {
		t.Fatal("expected a defusion message")
	}
}

func TestDomainRulesStrategy_HandlesKnownRule(t *testing.T) {
	s := NewDomainRulesStrategy()
	state := workflow.New("what does NPHI measure")
	if !s.CanHandle("what does NPHI measure", state) {
		t.Fatal("expected NPHI rule to match")
	}
	if _, err := s.Execute(context.Background(), "what does NPHI measure", state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLLMGenerationStrategy_AlwaysHandles(t *testing.T) {
	s := NewLLMGenerationStrategy(nil)
	if !s.CanHandle("anything at all", workflow.New("anything at all")) {
		t.Fatal("expected generation fallback to always handle")
	}
}

func TestCurveCountStrategy_ExecuteReturnsBareCount(t *testing.T) {
	graph := mustLoadSampleGraph(t)
	s := NewCurveCountStrategy(graph)
	state := workflow.New("how many curves does well 15/9-13 have")
	state.Metadata["well_id_filter"] = "15_9-13"

	if !s.CanHandle("how many curves does well 15/9-13 have", state) {
		t.Fatal("expected curve count strategy to handle the query")
	}
	answer, err := s.Execute(context.Background(), "how many curves does well 15/9-13 have", state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "2" {
		t.Fatalf("got %q, want the bare count \"2\"", answer)
	}
}

func TestWellCountStrategy_ExecuteUsesExactWording(t *testing.T) {
	s := NewWellCountStrategy(&fakeCountStore{count: 7}, "documents")
	state := workflow.New("how many wells are there")
	answer, err := s.Execute(context.Background(), "how many wells are there", state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "There are 7 wells." {
		t.Fatalf("got %q", answer)
	}
}

func TestWellCountStrategy_CanHandleDefersWhenWellIDFilterSet(t *testing.T) {
	s := NewWellCountStrategy(&fakeCountStore{count: 7}, "documents")
	state := workflow.New("how many wells are there")
	state.Metadata["well_id_filter"] = "15_9-13"
	if s.CanHandle("how many wells are there", state) {
		t.Fatal("expected well count strategy to defer when a well id filter is set")
	}
}
