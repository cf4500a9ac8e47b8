package models

import "time"

// WorkflowError is an immutable record of one failure. Errors are appended
// to a plan's error log and never mutated or removed.
type WorkflowError struct {
	// WorkflowID is the owning workflow.
	WorkflowID string `json:"workflow_id"`
	// StepID is the failed step, if the failure is attributable to one.
	StepID string `json:"step_id,omitempty"`
	// TaskID is the underlying gateway task, if one was submitted.
	TaskID string `json:"task_id,omitempty"`
	// Message is the human-readable failure description.
	Message string `json:"message"`
	// Timestamp is when the failure was recorded.
	Timestamp time.Time `json:"timestamp"`
	// Retryable classifies whether the failure looks transient.
	Retryable bool `json:"retryable"`
	// Context carries free-form diagnostic detail.
	Context string `json:"context,omitempty"`
}
