package agents

import (
	"github.com/junzhij/zhimo/internal/gateway"
	"github.com/junzhij/zhimo/internal/knowledge"
)

// Options tunes agent behavior.
type Options struct {
	// ChunkSize is the ingestion chunk size in characters.
	ChunkSize int
	// ChunkOverlap is the overlap between consecutive chunks.
	ChunkOverlap int
	// QuestionCount is the default number of questions to generate.
	QuestionCount int
}

// DefaultOptions returns the standard agent tuning.
func DefaultOptions() Options {
	return Options{ChunkSize: 2000, ChunkOverlap: 200, QuestionCount: 5}
}

// All constructs the full agent pool. The LLM client may be nil, in which
// case agents fall back to their deterministic heuristics; the knowledge
// store may be nil, in which case nothing is persisted (and the synthesis
// agent will refuse to compile).
func All(llm *LLMClient, store *knowledge.Store, opts Options) []gateway.Executor {
	if opts.ChunkSize <= 0 {
		opts = DefaultOptions()
	}
	return []gateway.Executor{
		NewIngestionAgent(opts.ChunkSize, opts.ChunkOverlap),
		NewAnalysisAgent(llm, store),
		NewExtractionAgent(llm, store),
		NewPedagogyAgent(llm, store, opts.QuestionCount),
		NewSynthesisAgent(store),
	}
}

// depString returns the first non-empty string stored under key in any of
// the task's dependency results.
func depString(task gateway.TaskDefinition, key string) string {
	for _, res := range task.Dependencies {
		if v, ok := res.Data[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// depStrings returns the first string slice stored under key in any of the
// task's dependency results. Handles both []string and []any values.
func depStrings(task gateway.TaskDefinition, key string) []string {
	for _, res := range task.Dependencies {
		v, ok := res.Data[key]
		if !ok {
			continue
		}
		switch vv := v.(type) {
		case []string:
			if len(vv) > 0 {
				return vv
			}
		case []any:
			var out []string
			for _, item := range vv {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}
