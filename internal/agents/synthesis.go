package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/junzhij/zhimo/internal/gateway"
	"github.com/junzhij/zhimo/internal/knowledge"
	"github.com/junzhij/zhimo/pkg/models"
)

// SynthesisAgent compiles the persisted knowledge elements of a document
// into a markdown notebook.
type SynthesisAgent struct {
	store *knowledge.Store
}

// NewSynthesisAgent creates a synthesis agent over the given store.
func NewSynthesisAgent(store *knowledge.Store) *SynthesisAgent {
	return &SynthesisAgent{store: store}
}

// AgentType implements gateway.Executor.
func (a *SynthesisAgent) AgentType() models.AgentType { return models.AgentSynthesis }

// Execute compiles the notebook for the payload document.
func (a *SynthesisAgent) Execute(ctx context.Context, task gateway.TaskDefinition) (map[string]any, error) {
	payload, ok := task.Payload.(models.SynthesisPayload)
	if !ok {
		return nil, fmt.Errorf("unexpected payload type %T", task.Payload)
	}
	if a.store == nil {
		return nil, fmt.Errorf("no knowledge store configured for notebook compilation")
	}

	title := payload.Title
	if title == "" {
		title = depString(task, "title")
	}

	elements, err := a.store.ListByDocument(ctx, payload.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("listing elements for %s: %w", payload.DocumentID, err)
	}
	notebook, err := a.store.CompileNotebook(ctx, payload.DocumentID, title)
	if err != nil {
		return nil, fmt.Errorf("compiling notebook for %s: %w", payload.DocumentID, err)
	}

	return map[string]any{
		"document_id":   payload.DocumentID,
		"user_id":       payload.UserID,
		"notebook":      notebook,
		"element_count": len(elements),
		"section_count": strings.Count(notebook, "\n## "),
	}, nil
}
