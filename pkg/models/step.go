package models

import "time"

// AgentType identifies the agent capability that owns a workflow step.
type AgentType string

const (
	// AgentIngestion converts raw document sources into normalized text.
	AgentIngestion AgentType = "ingestion"
	// AgentAnalysis produces summaries, topics, and sentiment.
	AgentAnalysis AgentType = "analysis"
	// AgentExtraction pulls structured knowledge elements out of documents.
	AgentExtraction AgentType = "extraction"
	// AgentPedagogy generates study materials (questions, flashcards).
	AgentPedagogy AgentType = "pedagogy"
	// AgentSynthesis compiles stored knowledge into notebooks.
	AgentSynthesis AgentType = "synthesis"
)

// Valid returns true if the agent type is a known value.
func (a AgentType) Valid() bool {
	switch a {
	case AgentIngestion, AgentAnalysis, AgentExtraction, AgentPedagogy, AgentSynthesis:
		return true
	default:
		return false
	}
}

// WorkflowStep is one unit of work inside a workflow plan. Steps are created
// once by the plan builder and never mutated afterwards.
type WorkflowStep struct {
	// ID is the unique identifier for this step.
	ID string `json:"id"`
	// AgentType is the capability tag of the owning agent.
	AgentType AgentType `json:"agent_type"`
	// TaskType names the operation the agent should perform.
	TaskType string `json:"task_type"`
	// DependsOn lists step IDs that must complete before this step runs.
	DependsOn []string `json:"depends_on,omitempty"`
	// Payload carries the typed data the agent needs.
	Payload TaskPayload `json:"payload"`
	// Priority is informational only; scheduling order is driven purely by
	// dependency satisfaction.
	Priority int `json:"priority"`
	// Timeout overrides the default per-step completion timeout when > 0.
	Timeout time.Duration `json:"timeout,omitempty"`
	// RetryPolicy overrides the gateway-side retry behavior when set.
	RetryPolicy *RetryPolicy `json:"retry_policy,omitempty"`
}

// StepResult is the recorded output of one completed step.
type StepResult struct {
	// TaskID is the gateway task that produced this result.
	TaskID string `json:"task_id"`
	// Data is the result payload returned by the agent.
	Data map[string]any `json:"data"`
	// CompletedAt is when the result was recorded.
	CompletedAt time.Time `json:"completed_at"`
}
