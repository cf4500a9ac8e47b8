package agents

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/junzhij/zhimo/internal/gateway"
	"github.com/junzhij/zhimo/internal/knowledge"
	"github.com/junzhij/zhimo/pkg/models"
)

const sampleText = `Raft is a consensus algorithm designed for understandability.
Raft decomposes consensus into leader election and log replication.
Every Quorum decision requires a majority, and Quorum intersection
guarantees safety across terms. The protocol tolerates crash failures.`

func openTestStore(t *testing.T) *knowledge.Store {
	t.Helper()
	store, err := knowledge.Open(filepath.Join(t.TempDir(), "knowledge.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func depsWithText(text string) map[string]models.StepResult {
	return map[string]models.StepResult{
		"ingest-step": {
			TaskID: "task-1",
			Data:   map[string]any{"document_id": "doc-1", "title": "Raft Notes", "text": text},
		},
	}
}

func TestIngestionAgentPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raft.txt")
	if err := os.WriteFile(path, []byte(sampleText), 0o644); err != nil {
		t.Fatal(err)
	}

	agent := NewIngestionAgent(80, 10)
	result, err := agent.Execute(context.Background(), gateway.TaskDefinition{
		Type:    models.TaskProcessDocument,
		Payload: models.IngestionPayload{DocumentID: "doc-1", Source: path},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result["title"] != "raft" {
		t.Errorf("title = %v, want raft", result["title"])
	}
	if result["word_count"].(int) == 0 {
		t.Error("expected a nonzero word count")
	}
	chunks, ok := result["chunks"].([]string)
	if !ok || len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %v", result["chunks"])
	}
	if result["chunk_count"] != len(chunks) {
		t.Errorf("chunk_count = %v, want %d", result["chunk_count"], len(chunks))
	}
}

func TestIngestionAgentFastModeSkipsChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raft.txt")
	if err := os.WriteFile(path, []byte(sampleText), 0o644); err != nil {
		t.Fatal(err)
	}

	agent := NewIngestionAgent(80, 10)
	result, err := agent.Execute(context.Background(), gateway.TaskDefinition{
		Type:    models.TaskProcessDocument,
		Payload: models.IngestionPayload{DocumentID: "doc-1", Source: path, FastMode: true},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, present := result["chunks"]; present {
		t.Error("fast mode should not chunk")
	}
}

func TestIngestionAgentMissingSource(t *testing.T) {
	agent := NewIngestionAgent(80, 10)
	_, err := agent.Execute(context.Background(), gateway.TaskDefinition{
		Type:    models.TaskProcessDocument,
		Payload: models.IngestionPayload{DocumentID: "doc-1"},
	})
	if err == nil {
		t.Fatal("expected an error for an empty source")
	}
}

func TestAnalysisAgentFallbackSavesSummary(t *testing.T) {
	store := openTestStore(t)
	agent := NewAnalysisAgent(nil, store)

	result, err := agent.Execute(context.Background(), gateway.TaskDefinition{
		Type:         models.TaskAnalyzeDocument,
		Payload:      models.AnalysisPayload{DocumentID: "doc-1", SummaryLength: 20},
		Dependencies: depsWithText(sampleText),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	summary, _ := result["summary"].(string)
	if summary == "" {
		t.Fatal("expected a summary")
	}
	if got := result["summary_words"].(int); got > 20 {
		t.Errorf("summary has %d words, want <= 20", got)
	}

	elements, err := store.ListByDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(elements) != 1 || elements[0].ElementType != "summary" {
		t.Fatalf("expected one summary element, got %v", elements)
	}
}

func TestAnalysisAgentRequiresText(t *testing.T) {
	agent := NewAnalysisAgent(nil, nil)
	_, err := agent.Execute(context.Background(), gateway.TaskDefinition{
		Type:    models.TaskAnalyzeDocument,
		Payload: models.AnalysisPayload{DocumentID: "doc-1"},
	})
	if err == nil {
		t.Fatal("expected an error without ingested text")
	}
}

func TestExtractionAgentHeuristicElements(t *testing.T) {
	store := openTestStore(t)
	agent := NewExtractionAgent(nil, store)

	result, err := agent.Execute(context.Background(), gateway.TaskDefinition{
		Type:         models.TaskExtractKnowledge,
		Payload:      models.ExtractionPayload{DocumentID: "doc-1"},
		Dependencies: depsWithText(sampleText),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result["element_count"].(int) == 0 {
		t.Fatal("expected heuristic entities from repeated capitalized terms")
	}

	elements, err := store.ListByDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	for _, el := range elements {
		if el.ElementType != "entity" {
			t.Errorf("heuristic path should only emit entities, got %q", el.ElementType)
		}
	}
}

func TestTaggedElements(t *testing.T) {
	raw := `DEF: quorum = a majority of the cluster
FORMULA: n = 2f + 1
THEOREM: Two quorums always intersect.
ENTITY: Raft
noise line`

	elements := taggedElements(raw, "doc-9")
	if len(elements) != 4 {
		t.Fatalf("got %d elements, want 4", len(elements))
	}
	types := map[string]bool{}
	for _, el := range elements {
		types[el.ElementType] = true
		if el.DocumentID != "doc-9" {
			t.Errorf("element document = %q, want doc-9", el.DocumentID)
		}
	}
	for _, want := range []string{"definition", "formula", "theorem", "entity"} {
		if !types[want] {
			t.Errorf("missing element type %q", want)
		}
	}
}

func TestPedagogyAgentTemplates(t *testing.T) {
	store := openTestStore(t)
	agent := NewPedagogyAgent(nil, store, 3)

	deps := depsWithText(sampleText)
	deps["analyze-step"] = models.StepResult{
		TaskID: "task-2",
		Data: map[string]any{
			"summary": "Raft splits consensus into election and replication.",
			"topics":  []string{"Leader election", "Log replication"},
		},
	}

	result, err := agent.Execute(context.Background(), gateway.TaskDefinition{
		Type:         models.TaskStudyMaterials,
		Payload:      models.PedagogyPayload{DocumentID: "doc-1"},
		Dependencies: deps,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	questions, _ := result["questions"].([]string)
	if len(questions) == 0 || len(questions) > 3 {
		t.Fatalf("got %d questions, want 1..3", len(questions))
	}
	if _, present := result["flashcards"]; !present {
		t.Error("expected flashcards when no output filter is set")
	}
}

func TestPedagogyAgentOutputFilter(t *testing.T) {
	agent := NewPedagogyAgent(nil, nil, 3)
	deps := map[string]models.StepResult{
		"analyze-step": {Data: map[string]any{
			"summary": "A summary.",
			"topics":  []string{"Topic one"},
		}},
	}

	result, err := agent.Execute(context.Background(), gateway.TaskDefinition{
		Type:         models.TaskStudyMaterials,
		Payload:      models.PedagogyPayload{DocumentID: "doc-1", OutputTypes: []string{"flashcards"}},
		Dependencies: deps,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, present := result["questions"]; present {
		t.Error("questions should be filtered out")
	}
	if _, present := result["flashcards"]; !present {
		t.Error("flashcards should be present")
	}
}

func TestSynthesisAgentCompilesNotebook(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if _, err := store.Save(ctx, knowledge.Element{
		DocumentID:  "doc-1",
		AgentType:   string(models.AgentAnalysis),
		ElementType: "summary",
		Content:     "Raft in one paragraph.",
	}); err != nil {
		t.Fatal(err)
	}

	agent := NewSynthesisAgent(store)
	result, err := agent.Execute(ctx, gateway.TaskDefinition{
		Type:    models.TaskCompileNotebook,
		Payload: models.SynthesisPayload{DocumentID: "doc-1", UserID: "user-1", Title: "Raft Notebook"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	notebook, _ := result["notebook"].(string)
	if !strings.Contains(notebook, "Raft Notebook") {
		t.Errorf("notebook missing title: %q", notebook)
	}
	if result["element_count"].(int) != 1 {
		t.Errorf("element_count = %v, want 1", result["element_count"])
	}
}

func TestAllBuildsFullPool(t *testing.T) {
	pool := All(nil, nil, DefaultOptions())
	if len(pool) != 5 {
		t.Fatalf("got %d agents, want 5", len(pool))
	}
	seen := map[models.AgentType]bool{}
	for _, agent := range pool {
		seen[agent.AgentType()] = true
	}
	for _, want := range []models.AgentType{
		models.AgentIngestion, models.AgentAnalysis, models.AgentExtraction,
		models.AgentPedagogy, models.AgentSynthesis,
	} {
		if !seen[want] {
			t.Errorf("pool missing %s agent", want)
		}
	}
}
