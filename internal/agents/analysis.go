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

const analysisSystemPrompt = `You are an expert document analyst. Given a document,
produce a concise summary and list its main topics. Format your answer as the
summary text followed by lines of the form "TOPIC: <topic>".`

// AnalysisAgent summarizes ingested text and identifies topics. It uses the
// LLM client when one is configured and falls back to extractive
// summarization otherwise.
type AnalysisAgent struct {
	llm   *LLMClient
	store *knowledge.Store
}

// NewAnalysisAgent creates an analysis agent.
func NewAnalysisAgent(llm *LLMClient, store *knowledge.Store) *AnalysisAgent {
	return &AnalysisAgent{llm: llm, store: store}
}

// AgentType implements gateway.Executor.
func (a *AnalysisAgent) AgentType() models.AgentType { return models.AgentAnalysis }

// Execute summarizes the text produced by the ingestion dependency.
func (a *AnalysisAgent) Execute(ctx context.Context, task gateway.TaskDefinition) (map[string]any, error) {
	payload, ok := task.Payload.(models.AnalysisPayload)
	if !ok {
		return nil, fmt.Errorf("unexpected payload type %T", task.Payload)
	}

	text := depString(task, "text")
	if text == "" {
		return nil, fmt.Errorf("document %s has no ingested text to analyze", payload.DocumentID)
	}
	title := depString(task, "title")

	maxWords := payload.SummaryLength
	if maxWords <= 0 {
		maxWords = 150
	}

	var (
		summary string
		topics  []string
	)
	if a.llm != nil {
		prompt := fmt.Sprintf("Document title: %s\n\nSummarize in at most %d words, then list topics.\n\n%s",
			title, maxWords, truncateWords(text, 6000))
		raw, err := a.llm.Complete(ctx, analysisSystemPrompt, prompt)
		if err != nil {
			return nil, fmt.Errorf("analysis completion: %w", err)
		}
		topics = parseTaggedLines(raw, "TOPIC")
		summary = strings.TrimSpace(stripTaggedLines(raw, "TOPIC"))
	} else {
		log.Printf("[analysis] no llm configured, using extractive summary for %s", payload.DocumentID)
		summary = extractiveSummary(text, maxWords)
		topics = keyTerms(text, 5)
	}
	if summary == "" {
		summary = extractiveSummary(text, maxWords)
	}

	if a.store != nil {
		if _, err := a.store.Save(ctx, knowledge.Element{
			DocumentID:  payload.DocumentID,
			AgentType:   string(models.AgentAnalysis),
			ElementType: "summary",
			Content:     summary,
			Metadata:    map[string]string{"title": title},
		}); err != nil {
			return nil, fmt.Errorf("saving summary: %w", err)
		}
	}

	return map[string]any{
		"document_id":   payload.DocumentID,
		"summary":       summary,
		"topics":        topics,
		"summary_only":  payload.SummaryOnly,
		"for_pedagogy":  payload.ForPedagogy,
		"summary_words": len(strings.Fields(summary)),
	}, nil
}

// stripTaggedLines removes "TAG:" lines so the remainder is the free text.
func stripTaggedLines(text, tag string) string {
	prefix := strings.ToUpper(tag) + ":"
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		trimmed = strings.TrimPrefix(trimmed, "- ")
		trimmed = strings.TrimPrefix(trimmed, "* ")
		if len(trimmed) >= len(prefix) && strings.ToUpper(trimmed[:len(prefix)]) == prefix {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
