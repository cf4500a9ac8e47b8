package knowledge

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "knowledge.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, Element{
		DocumentID:  "doc-1",
		AgentType:   "extraction",
		ElementType: "definition",
		Content:     "Entropy: a measure of disorder.",
		Metadata:    map[string]string{"term": "Entropy"},
	})
	if err != nil {
		t.Fatalf("saving element: %v", err)
	}
	if id == "" {
		t.Error("expected generated element ID")
	}

	if _, err := s.Save(ctx, Element{DocumentID: "doc-2", AgentType: "extraction", ElementType: "formula", Content: "E = mc^2"}); err != nil {
		t.Fatalf("saving second element: %v", err)
	}

	elements, err := s.ListByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("listing elements: %v", err)
	}
	if len(elements) != 1 {
		t.Fatalf("expected 1 element for doc-1, got %d", len(elements))
	}
	if elements[0].Metadata["term"] != "Entropy" {
		t.Errorf("expected metadata round-trip, got %v", elements[0].Metadata)
	}
}

func TestCompileNotebook(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saves := []Element{
		{DocumentID: "doc-1", AgentType: "extraction", ElementType: "definition", Content: "Entropy: a measure of disorder."},
		{DocumentID: "doc-1", AgentType: "extraction", ElementType: "formula", Content: "S = k log W"},
		{DocumentID: "doc-1", AgentType: "analysis", ElementType: "summary", Content: "The document covers thermodynamics."},
	}
	for _, el := range saves {
		if _, err := s.Save(ctx, el); err != nil {
			t.Fatalf("saving element: %v", err)
		}
	}

	notebook, err := s.CompileNotebook(ctx, "doc-1", "Thermodynamics Notes")
	if err != nil {
		t.Fatalf("compiling notebook: %v", err)
	}

	if !strings.HasPrefix(notebook, "# Thermodynamics Notes") {
		t.Errorf("expected notebook title heading, got %q", notebook)
	}
	for _, want := range []string{"## Definitions", "## Formulas", "## Summary", "S = k log W"} {
		if !strings.Contains(notebook, want) {
			t.Errorf("expected notebook to contain %q", want)
		}
	}
}

func TestCompileNotebookEmptyDocument(t *testing.T) {
	s := openTestStore(t)

	notebook, err := s.CompileNotebook(context.Background(), "doc-none", "")
	if err != nil {
		t.Fatalf("compiling empty notebook: %v", err)
	}
	if !strings.HasPrefix(notebook, "# doc-none") {
		t.Errorf("expected document ID as fallback title, got %q", notebook)
	}
}
