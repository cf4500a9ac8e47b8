// Package gateway defines the task submission and status-polling contract
// between the workflow orchestrator and the agent pool.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/junzhij/zhimo/pkg/models"
)

// ErrUnknownTask indicates a status query for a task ID the gateway has
// never seen.
var ErrUnknownTask = errors.New("unknown task")

// TaskState is the gateway-side lifecycle state of a submitted task.
type TaskState string

const (
	// TaskQueued means the task is accepted but not yet running.
	TaskQueued TaskState = "queued"
	// TaskProcessing means an agent is working on the task.
	TaskProcessing TaskState = "processing"
	// TaskCompleted means the task finished and a result is available.
	TaskCompleted TaskState = "completed"
	// TaskFailed means the task failed after exhausting its retry policy.
	TaskFailed TaskState = "failed"
	// TaskTimeout means the task exceeded its execution timeout.
	TaskTimeout TaskState = "timeout"
)

// TaskDefinition is the unit of work handed to the gateway.
type TaskDefinition struct {
	// Type names the operation to perform.
	Type string
	// AgentType selects the agent capability that owns this task.
	AgentType models.AgentType
	// Payload is the typed data the agent needs.
	Payload models.TaskPayload
	// Dependencies carries the results of the step's direct dependencies,
	// keyed by dependency step ID.
	Dependencies map[string]models.StepResult
	// Priority is informational.
	Priority int
	// Timeout bounds task execution when > 0.
	Timeout time.Duration
	// RetryPolicy controls gateway-side attempts. Nil means one attempt.
	RetryPolicy *models.RetryPolicy
}

// StatusReport is one poll's view of a task.
type StatusReport struct {
	// State is the task's current lifecycle state.
	State TaskState
	// Result is the agent's output, present once completed.
	Result map[string]any
	// Error is the failure message, present on failed or timeout.
	Error string
}

// TaskGateway accepts task definitions and answers status polls. The
// orchestration core treats implementations as a black box; submission is
// asynchronous dispatch, not synchronous completion.
type TaskGateway interface {
	SubmitTask(ctx context.Context, def TaskDefinition) (string, error)
	TaskStatus(ctx context.Context, taskID string) (StatusReport, error)
}
