package orchestrator

import (
	"time"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventWorkflowCreated indicates a plan was built and registered.
	EventWorkflowCreated EventType = "workflow_created"
	// EventWorkflowStarted indicates execution began.
	EventWorkflowStarted EventType = "workflow_started"
	// EventStepStarted indicates a step was submitted to the gateway.
	EventStepStarted EventType = "step_started"
	// EventStepCompleted indicates a step finished and its result was recorded.
	EventStepCompleted EventType = "step_completed"
	// EventStepFailed indicates a step failed.
	EventStepFailed EventType = "step_failed"
	// EventWorkflowCompleted indicates every step finished.
	EventWorkflowCompleted EventType = "workflow_completed"
	// EventWorkflowFailed indicates the workflow reached the failed state.
	EventWorkflowFailed EventType = "workflow_failed"
	// EventWorkflowCancelled indicates the workflow was cancelled by request.
	EventWorkflowCancelled EventType = "workflow_cancelled"
	// EventWorkflowRetrying indicates a failed workflow is being re-driven.
	EventWorkflowRetrying EventType = "workflow_retrying"
)

// Event represents an event emitted by the orchestrator. Events feed the
// watch TUI and progress logging.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// WorkflowID is the owning workflow.
	WorkflowID string
	// StepID is the related step, if applicable.
	StepID string
	// AgentType is the capability handling the step, if applicable.
	AgentType string
	// Message provides additional context.
	Message string
	// Err contains error details for failure events.
	Err error
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// Completed and Total describe plan progress at emission time.
	Completed int
	Total     int
}
