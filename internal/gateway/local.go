package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/junzhij/zhimo/pkg/models"
)

// Executor is one agent capability the local gateway can dispatch to.
type Executor interface {
	// AgentType is the capability this executor serves.
	AgentType() models.AgentType
	// Execute performs the task and returns its result payload.
	Execute(ctx context.Context, task TaskDefinition) (map[string]any, error)
}

// taskRecord tracks one submitted task's state.
type taskRecord struct {
	state  TaskState
	result map[string]any
	err    string
}

// LocalGateway runs agents in-process. Each submitted task executes on its
// own goroutine; callers observe progress through TaskStatus polls. The
// per-task RetryPolicy and Timeout from the TaskDefinition are honored here,
// independent of whatever waiting policy the caller applies.
type LocalGateway struct {
	mu        sync.RWMutex
	executors map[models.AgentType]Executor
	tasks     map[string]*taskRecord
	wg        sync.WaitGroup
}

// NewLocalGateway creates a gateway dispatching to the given executors.
func NewLocalGateway(executors ...Executor) *LocalGateway {
	g := &LocalGateway{
		executors: make(map[models.AgentType]Executor, len(executors)),
		tasks:     make(map[string]*taskRecord),
	}
	for _, e := range executors {
		g.executors[e.AgentType()] = e
	}
	return g
}

// SubmitTask accepts a task and returns its opaque identifier immediately.
// Execution happens in the background; task lifetime is decoupled from the
// caller's context, only the task's own timeout bounds it.
func (g *LocalGateway) SubmitTask(ctx context.Context, def TaskDefinition) (string, error) {
	g.mu.RLock()
	exec, ok := g.executors[def.AgentType]
	g.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("no agent registered for capability %q", def.AgentType)
	}

	taskID := uuid.NewString()
	g.mu.Lock()
	g.tasks[taskID] = &taskRecord{state: TaskQueued}
	g.mu.Unlock()

	taskCtx := context.WithoutCancel(ctx)
	g.wg.Add(1)
	go g.run(taskCtx, taskID, def, exec)

	return taskID, nil
}

// TaskStatus reports the current state of a task.
func (g *LocalGateway) TaskStatus(ctx context.Context, taskID string) (StatusReport, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.tasks[taskID]
	if !ok {
		return StatusReport{}, fmt.Errorf("task %s: %w", taskID, ErrUnknownTask)
	}
	return StatusReport{State: rec.state, Result: rec.result, Error: rec.err}, nil
}

// Drain blocks until all in-flight tasks have finished.
func (g *LocalGateway) Drain() {
	g.wg.Wait()
}

// run executes one task, applying its retry policy and timeout.
func (g *LocalGateway) run(ctx context.Context, taskID string, def TaskDefinition, exec Executor) {
	defer g.wg.Done()

	if def.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, def.Timeout)
		defer cancel()
	}

	g.setState(taskID, TaskProcessing, nil, "")

	// MaxRetries counts total attempts; nil policy means a single attempt.
	attempts := 1
	if def.RetryPolicy != nil && def.RetryPolicy.MaxRetries > 0 {
		attempts = def.RetryPolicy.MaxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := exec.Execute(ctx, def)
		if err == nil {
			g.setState(taskID, TaskCompleted, result, "")
			return
		}
		lastErr = err
		log.Printf("[gateway] task %s attempt %d/%d failed: %v", taskID, attempt, attempts, err)

		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			g.setState(taskID, TaskTimeout, nil, fmt.Sprintf("task timed out: %v", err))
			return
		}
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			g.setState(taskID, TaskTimeout, nil, fmt.Sprintf("task timed out: %v", ctx.Err()))
			return
		case <-time.After(def.RetryPolicy.Delay(attempt)):
		}
	}

	g.setState(taskID, TaskFailed, nil, lastErr.Error())
}

func (g *LocalGateway) setState(taskID string, state TaskState, result map[string]any, errMsg string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if rec, ok := g.tasks[taskID]; ok {
		rec.state = state
		rec.result = result
		rec.err = errMsg
	}
}
