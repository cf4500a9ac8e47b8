package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestWatchModelTracksSteps(t *testing.T) {
	m := NewWatchModel("wf-1")

	next, _ := m.Update(StepEventMsg{StepID: "s1", AgentType: "ingestion", TaskType: "process_document", State: "running"})
	m = next.(WatchModel)
	next, _ = m.Update(StepEventMsg{StepID: "s1", AgentType: "ingestion", TaskType: "process_document", State: "done"})
	m = next.(WatchModel)
	next, _ = m.Update(StepEventMsg{StepID: "s2", AgentType: "analysis", TaskType: "analyze_document", State: "failed", Error: "timeout"})
	m = next.(WatchModel)

	if len(m.steps) != 2 {
		t.Fatalf("got %d step rows, want 2", len(m.steps))
	}
	view := m.View()
	if !strings.Contains(view, "wf-1") {
		t.Error("view should include the workflow ID")
	}
	if !strings.Contains(view, "✓") || !strings.Contains(view, "✗") {
		t.Errorf("view missing state markers:\n%s", view)
	}
	if !strings.Contains(view, "timeout") {
		t.Error("failed rows should show the error message")
	}
}

func TestWatchModelDone(t *testing.T) {
	m := NewWatchModel("wf-1")
	next, _ := m.Update(WorkflowDoneMsg{Success: true})
	m = next.(WatchModel)
	if !strings.Contains(m.View(), "workflow completed") {
		t.Error("done view should report completion")
	}

	// Any key quits once done.
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	if cmd == nil {
		t.Fatal("expected a quit command after completion")
	}
}
