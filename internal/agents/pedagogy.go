package agents

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/junzhij/zhimo/internal/gateway"
	"github.com/junzhij/zhimo/internal/knowledge"
	"github.com/junzhij/zhimo/pkg/models"
)

const pedagogySystemPrompt = `You are a study-material author. Given a document summary
and its key concepts, write practice questions and flashcards. Use these exact line
formats:
Q: <question>
A: <answer>
FRONT: <flashcard front>
BACK: <flashcard back>`

// PedagogyAgent generates practice questions and flashcards from upstream
// analysis and extraction results.
type PedagogyAgent struct {
	llm           *LLMClient
	store         *knowledge.Store
	questionCount int
}

// NewPedagogyAgent creates a pedagogy agent producing questionCount
// questions per document.
func NewPedagogyAgent(llm *LLMClient, store *knowledge.Store, questionCount int) *PedagogyAgent {
	if questionCount <= 0 {
		questionCount = 5
	}
	return &PedagogyAgent{llm: llm, store: store, questionCount: questionCount}
}

// AgentType implements gateway.Executor.
func (a *PedagogyAgent) AgentType() models.AgentType { return models.AgentPedagogy }

// Execute produces study materials from the dependency results.
func (a *PedagogyAgent) Execute(ctx context.Context, task gateway.TaskDefinition) (map[string]any, error) {
	payload, ok := task.Payload.(models.PedagogyPayload)
	if !ok {
		return nil, fmt.Errorf("unexpected payload type %T", task.Payload)
	}

	summary := depString(task, "summary")
	topics := depStrings(task, "topics")
	concepts := depStrings(task, "elements")
	if summary == "" && len(concepts) == 0 {
		return nil, fmt.Errorf("document %s has no analysis or extraction results for study materials", payload.DocumentID)
	}

	count := payload.QuestionCount
	if count <= 0 {
		count = a.questionCount
	}
	wantQuestions := wantOutput(payload.OutputTypes, "questions")
	wantFlashcards := wantOutput(payload.OutputTypes, "flashcards")

	var questions, flashcards [][2]string
	if a.llm != nil {
		prompt := fmt.Sprintf("Write %d practice questions and %d flashcards.\n\nSummary:\n%s\n\nKey concepts:\n%s",
			count, count, summary, strings.Join(append(topics, concepts...), "\n"))
		raw, err := a.llm.Complete(ctx, pedagogySystemPrompt, prompt)
		if err != nil {
			return nil, fmt.Errorf("pedagogy completion: %w", err)
		}
		questions = parsePairedLines(raw, "Q", "A")
		flashcards = parsePairedLines(raw, "FRONT", "BACK")
	} else {
		log.Printf("[pedagogy] no llm configured, using template materials for %s", payload.DocumentID)
		questions, flashcards = templateMaterials(append(topics, concepts...), summary, count)
	}
	if len(questions) > count {
		questions = questions[:count]
	}
	if len(flashcards) > count {
		flashcards = flashcards[:count]
	}

	result := map[string]any{
		"document_id": payload.DocumentID,
	}
	if wantQuestions {
		qs := make([]string, 0, len(questions))
		for _, q := range questions {
			qs = append(qs, q[0])
			if a.store != nil {
				if _, err := a.store.Save(ctx, knowledge.Element{
					DocumentID:  payload.DocumentID,
					AgentType:   string(models.AgentPedagogy),
					ElementType: "question",
					Content:     q[0],
					Metadata:    map[string]string{"answer": q[1]},
				}); err != nil {
					return nil, fmt.Errorf("saving question: %w", err)
				}
			}
		}
		result["questions"] = qs
		result["question_count"] = len(qs)
	}
	if wantFlashcards {
		fronts := make([]string, 0, len(flashcards))
		for _, f := range flashcards {
			fronts = append(fronts, f[0])
			if a.store != nil {
				if _, err := a.store.Save(ctx, knowledge.Element{
					DocumentID:  payload.DocumentID,
					AgentType:   string(models.AgentPedagogy),
					ElementType: "flashcard",
					Content:     f[0],
					Metadata:    map[string]string{"back": f[1]},
				}); err != nil {
					return nil, fmt.Errorf("saving flashcard: %w", err)
				}
			}
		}
		result["flashcards"] = fronts
		result["flashcard_count"] = len(fronts)
	}

	return result, nil
}

// wantOutput reports whether the requested output types include name. An
// empty list means everything.
func wantOutput(types []string, name string) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if strings.EqualFold(t, name) {
			return true
		}
	}
	return false
}

// templateMaterials builds deterministic questions and flashcards from
// concepts when no LLM is available.
func templateMaterials(concepts []string, summary string, count int) (questions, flashcards [][2]string) {
	for _, c := range concepts {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		questions = append(questions, [2]string{
			fmt.Sprintf("What is %s and why does it matter in this document?", c),
			fmt.Sprintf("Review the document's discussion of %s.", c),
		})
		flashcards = append(flashcards, [2]string{c, fmt.Sprintf("Key concept: %s", c)})
		if len(questions) >= count {
			break
		}
	}
	if len(questions) == 0 && summary != "" {
		questions = append(questions, [2]string{
			"What are the main points of this document?",
			truncateWords(summary, 60),
		})
		flashcards = append(flashcards, [2]string{"Main idea", truncateWords(summary, 30)})
	}
	return questions, flashcards
}
