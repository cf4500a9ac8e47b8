package models

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// WorkflowStatus is the lifecycle state of a workflow plan.
type WorkflowStatus string

const (
	// StatusPending means the plan is registered but not yet executing.
	StatusPending WorkflowStatus = "pending"
	// StatusProcessing means the scheduling loop is draining the plan.
	StatusProcessing WorkflowStatus = "processing"
	// StatusCompleted means every step finished successfully.
	StatusCompleted WorkflowStatus = "completed"
	// StatusFailed means execution stopped on an error or cancellation.
	StatusFailed WorkflowStatus = "failed"
)

// Terminal returns true for completed and failed. A failed plan can still
// transition back to processing through an explicit retry.
func (s WorkflowStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// WorkflowPlan is the aggregate root for one instruction's execution.
// Identity fields and the step list are immutable after construction;
// runtime state (status, results, errors, retry counter) is guarded by an
// internal mutex because step completions land from concurrently executing
// waves.
//
// Invariants:
//   - results only grows; an entry is removed only immediately before that
//     specific step is retried.
//   - results are recorded only while the plan is processing, so a
//     cancelled or completed plan is never mutated by stragglers.
//   - errors is append-only.
type WorkflowPlan struct {
	// ID is the unique identifier for this plan.
	ID string
	// InstructionID is the originating instruction.
	InstructionID string
	// Steps is the ordered step list forming the dependency graph.
	Steps []*WorkflowStep
	// CreatedAt is when the plan was built.
	CreatedAt time.Time

	mu          sync.RWMutex
	status      WorkflowStatus
	completedAt *time.Time
	results     map[string]StepResult
	errors      []WorkflowError
	retryCount  int
}

// NewWorkflowPlan creates a pending plan with a generated ID.
func NewWorkflowPlan(instructionID string, steps []*WorkflowStep) *WorkflowPlan {
	return &WorkflowPlan{
		ID:            uuid.NewString(),
		InstructionID: instructionID,
		Steps:         steps,
		CreatedAt:     time.Now(),
		status:        StatusPending,
		results:       make(map[string]StepResult),
	}
}

// Step returns the step with the given ID, or nil.
func (p *WorkflowPlan) Step(stepID string) *WorkflowStep {
	for _, s := range p.Steps {
		if s.ID == stepID {
			return s
		}
	}
	return nil
}

// Status returns the current lifecycle state.
func (p *WorkflowPlan) Status() WorkflowStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// SetStatus transitions the plan to the given state.
func (p *WorkflowPlan) SetStatus(s WorkflowStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = s
}

// MarkCompleted transitions the plan to completed and stamps the completion
// time. The timestamp is set once.
func (p *WorkflowPlan) MarkCompleted() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = StatusCompleted
	if p.completedAt == nil {
		now := time.Now()
		p.completedAt = &now
	}
}

// CompletedAt returns the completion timestamp, or nil if not completed.
func (p *WorkflowPlan) CompletedAt() *time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.completedAt
}

// RecordResult stores a step result. Results are only accepted while the
// plan is processing; late completions from cancelled or already-terminal
// workflows are discarded. Returns whether the result was recorded.
func (p *WorkflowPlan) RecordResult(stepID string, r StepResult) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != StatusProcessing {
		return false
	}
	p.results[stepID] = r
	return true
}

// ClearResult removes one step's recorded result. Called only immediately
// before that step is retried.
func (p *WorkflowPlan) ClearResult(stepID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.results, stepID)
}

// Result returns the recorded result for a step.
func (p *WorkflowPlan) Result(stepID string) (StepResult, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.results[stepID]
	return r, ok
}

// ResultCount returns the number of recorded step results.
func (p *WorkflowPlan) ResultCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.results)
}

// Results returns a copy of the results map.
func (p *WorkflowPlan) Results() map[string]StepResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]StepResult, len(p.results))
	for k, v := range p.results {
		out[k] = v
	}
	return out
}

// AppendError appends one failure record to the plan's error log.
func (p *WorkflowPlan) AppendError(e WorkflowError) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors = append(p.errors, e)
}

// LastError returns a copy of the most recent error, or nil.
func (p *WorkflowPlan) LastError() *WorkflowError {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.errors) == 0 {
		return nil
	}
	e := p.errors[len(p.errors)-1]
	return &e
}

// Errors returns a copy of the error log.
func (p *WorkflowPlan) Errors() []WorkflowError {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]WorkflowError, len(p.errors))
	copy(out, p.errors)
	return out
}

// ErrorsForStep returns the errors recorded against one step, oldest first.
func (p *WorkflowPlan) ErrorsForStep(stepID string) []WorkflowError {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []WorkflowError
	for _, e := range p.errors {
		if e.StepID == stepID {
			out = append(out, e)
		}
	}
	return out
}

// IncrementRetry bumps the whole-plan retry counter and returns the new
// value.
func (p *WorkflowPlan) IncrementRetry() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.retryCount++
	return p.retryCount
}

// Retries returns the whole-plan retry count.
func (p *WorkflowPlan) Retries() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.retryCount
}

// PlanSnapshot is a point-in-time, render-friendly copy of a plan.
type PlanSnapshot struct {
	ID            string                `json:"id" yaml:"id"`
	InstructionID string                `json:"instruction_id" yaml:"instruction_id"`
	Status        WorkflowStatus        `json:"status" yaml:"status"`
	CreatedAt     time.Time             `json:"created_at" yaml:"created_at"`
	CompletedAt   *time.Time            `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Steps         []StepSummary         `json:"steps" yaml:"steps"`
	Results       map[string]StepResult `json:"results" yaml:"results"`
	Errors        []WorkflowError       `json:"errors,omitempty" yaml:"errors,omitempty"`
	RetryCount    int                   `json:"retry_count" yaml:"retry_count"`
}

// StepSummary is the render-friendly shape of one step.
type StepSummary struct {
	ID        string    `json:"id" yaml:"id"`
	AgentType AgentType `json:"agent_type" yaml:"agent_type"`
	TaskType  string    `json:"task_type" yaml:"task_type"`
	DependsOn []string  `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	Priority  int       `json:"priority" yaml:"priority"`
}

// Snapshot returns a consistent copy of the plan's current state.
func (p *WorkflowPlan) Snapshot() PlanSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	steps := make([]StepSummary, 0, len(p.Steps))
	for _, s := range p.Steps {
		steps = append(steps, StepSummary{
			ID:        s.ID,
			AgentType: s.AgentType,
			TaskType:  s.TaskType,
			DependsOn: append([]string(nil), s.DependsOn...),
			Priority:  s.Priority,
		})
	}

	results := make(map[string]StepResult, len(p.results))
	for k, v := range p.results {
		results[k] = v
	}
	errs := make([]WorkflowError, len(p.errors))
	copy(errs, p.errors)

	return PlanSnapshot{
		ID:            p.ID,
		InstructionID: p.InstructionID,
		Status:        p.status,
		CreatedAt:     p.CreatedAt,
		CompletedAt:   p.completedAt,
		Steps:         steps,
		Results:       results,
		Errors:        errs,
		RetryCount:    p.retryCount,
	}
}
