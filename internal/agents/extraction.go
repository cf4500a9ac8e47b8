package agents

import (
	"context"
	"fmt"
	"log"

	"github.com/junzhij/zhimo/internal/gateway"
	"github.com/junzhij/zhimo/internal/knowledge"
	"github.com/junzhij/zhimo/pkg/models"
)

const extractionSystemPrompt = `You are a knowledge extraction engine. From the given
document, extract definitions, formulas, theorems, and named entities. Use one line
per item with these exact formats:
DEF: <term> = <definition>
FORMULA: <formula>
THEOREM: <statement>
ENTITY: <name>`

// ExtractionAgent pulls structured knowledge elements out of document text
// and persists them to the knowledge store.
type ExtractionAgent struct {
	llm   *LLMClient
	store *knowledge.Store
}

// NewExtractionAgent creates an extraction agent.
func NewExtractionAgent(llm *LLMClient, store *knowledge.Store) *ExtractionAgent {
	return &ExtractionAgent{llm: llm, store: store}
}

// AgentType implements gateway.Executor.
func (a *ExtractionAgent) AgentType() models.AgentType { return models.AgentExtraction }

// Execute extracts knowledge elements from the ingested text.
func (a *ExtractionAgent) Execute(ctx context.Context, task gateway.TaskDefinition) (map[string]any, error) {
	payload, ok := task.Payload.(models.ExtractionPayload)
	if !ok {
		return nil, fmt.Errorf("unexpected payload type %T", task.Payload)
	}

	text := depString(task, "text")
	if text == "" {
		return nil, fmt.Errorf("document %s has no ingested text to extract from", payload.DocumentID)
	}

	var elements []knowledge.Element
	if a.llm != nil {
		prompt := fmt.Sprintf("Extract knowledge elements from this document.\n\n%s",
			truncateWords(text, 6000))
		if payload.Detailed {
			prompt = "Be exhaustive.\n" + prompt
		}
		raw, err := a.llm.Complete(ctx, extractionSystemPrompt, prompt)
		if err != nil {
			return nil, fmt.Errorf("extraction completion: %w", err)
		}
		elements = taggedElements(raw, payload.DocumentID)
	} else {
		log.Printf("[extraction] no llm configured, using term heuristics for %s", payload.DocumentID)
		for _, term := range keyTerms(text, 10) {
			elements = append(elements, knowledge.Element{
				DocumentID:  payload.DocumentID,
				AgentType:   string(models.AgentExtraction),
				ElementType: "entity",
				Content:     term,
			})
		}
	}

	if a.store != nil {
		for i := range elements {
			if _, err := a.store.Save(ctx, elements[i]); err != nil {
				return nil, fmt.Errorf("saving element: %w", err)
			}
		}
	}

	counts := make(map[string]int)
	contents := make([]string, 0, len(elements))
	for _, el := range elements {
		counts[el.ElementType]++
		contents = append(contents, el.Content)
	}

	return map[string]any{
		"document_id":   payload.DocumentID,
		"element_count": len(elements),
		"element_types": counts,
		"elements":      contents,
		"for_pedagogy":  payload.ForPedagogy,
		"detailed":      payload.Detailed,
	}, nil
}

// taggedElements maps DEF/FORMULA/THEOREM/ENTITY lines to store elements.
func taggedElements(raw, documentID string) []knowledge.Element {
	tags := []struct {
		tag         string
		elementType string
	}{
		{"DEF", "definition"},
		{"FORMULA", "formula"},
		{"THEOREM", "theorem"},
		{"ENTITY", "entity"},
	}
	var elements []knowledge.Element
	for _, t := range tags {
		for _, content := range parseTaggedLines(raw, t.tag) {
			elements = append(elements, knowledge.Element{
				DocumentID:  documentID,
				AgentType:   string(models.AgentExtraction),
				ElementType: t.elementType,
				Content:     content,
			})
		}
	}
	return elements
}
