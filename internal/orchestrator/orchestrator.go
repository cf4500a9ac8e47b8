package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/junzhij/zhimo/internal/gateway"
	"github.com/junzhij/zhimo/internal/graph"
	"github.com/junzhij/zhimo/internal/notify"
	"github.com/junzhij/zhimo/internal/store"
	"github.com/junzhij/zhimo/pkg/models"
)

// errHalted signals that the workflow left the processing state while a
// wave was in flight (cancellation). The results of in-flight tasks are
// discarded and the plan's state is left untouched.
var errHalted = errors.New("workflow halted")

// Orchestrator turns user instructions into workflow plans and drives them
// through the task gateway. All workflow state lives in the store; the
// orchestrator itself only holds configuration and collaborators.
type Orchestrator struct {
	// gateway executes tasks.
	gateway gateway.TaskGateway
	// store holds every registered workflow plan.
	store *store.WorkflowStore
	// notifier delivers terminal workflow notifications.
	notifier notify.Notifier
	// emitter publishes progress events for subscribers.
	emitter *EventEmitter

	// stepTimeout bounds how long a step poll loop waits for completion.
	stepTimeout time.Duration
	// pollBaseDelay is the floor of the poll backoff curve.
	pollBaseDelay time.Duration
	// pollMaxDelay caps the poll backoff curve.
	pollMaxDelay time.Duration
	// maxWorkflowRetries bounds whole-workflow retry attempts.
	maxWorkflowRetries int
	// maxStepRetries bounds single-step retry attempts.
	maxStepRetries int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStepTimeout sets the default per-step completion timeout.
func WithStepTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.stepTimeout = d }
}

// WithPollDelays sets the base and maximum poll delays. The actual delay
// grows with elapsed wait time: base + elapsed/10, capped at max.
func WithPollDelays(base, max time.Duration) Option {
	return func(o *Orchestrator) {
		o.pollBaseDelay = base
		o.pollMaxDelay = max
	}
}

// WithMaxWorkflowRetries bounds how often a failed workflow may be retried.
func WithMaxWorkflowRetries(n int) Option {
	return func(o *Orchestrator) { o.maxWorkflowRetries = n }
}

// WithMaxStepRetries bounds how often a single step may be retried.
func WithMaxStepRetries(n int) Option {
	return func(o *Orchestrator) { o.maxStepRetries = n }
}

// WithEventBuffer sets the emitter's channel buffer size.
func WithEventBuffer(n int) Option {
	return func(o *Orchestrator) { o.emitter = NewEventEmitter(n) }
}

// NewOrchestrator creates an orchestrator over the given collaborators.
// A nil notifier falls back to log-based notifications.
func NewOrchestrator(gw gateway.TaskGateway, st *store.WorkflowStore, notifier notify.Notifier, opts ...Option) *Orchestrator {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	o := &Orchestrator{
		gateway:            gw,
		store:              st,
		notifier:           notifier,
		emitter:            NewEventEmitter(128),
		stepTimeout:        5 * time.Minute,
		pollBaseDelay:      time.Second,
		pollMaxDelay:       5 * time.Second,
		maxWorkflowRetries: 3,
		maxStepRetries:     3,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Events returns the orchestrator's progress event stream.
func (o *Orchestrator) Events() <-chan Event {
	return o.emitter.Events()
}

// Close releases the event stream. No workflows may be started afterwards.
func (o *Orchestrator) Close() {
	o.emitter.Close()
}

// CreateWorkflowPlan classifies the instruction, expands it into steps, and
// registers the resulting plan. The plan starts in the pending state.
func (o *Orchestrator) CreateWorkflowPlan(_ context.Context, instr *models.UserInstruction) (*models.WorkflowPlan, error) {
	workflow := ClassifyInstruction(instr.Text)
	steps := buildSteps(instr, workflow)

	// Validate the step graph up front so a malformed plan never reaches
	// execution.
	g := graph.New()
	if err := g.Build(steps); err != nil {
		return nil, fmt.Errorf("building %s plan: %w", workflow, err)
	}

	plan := models.NewWorkflowPlan(instr.ID, steps)
	o.store.Register(plan, instr)

	log.Printf("[orchestrator] created %s workflow %s with %d steps for instruction %q",
		workflow, plan.ID, len(steps), instr.Text)
	o.emitter.Emit(Event{
		Type:       EventWorkflowCreated,
		WorkflowID: plan.ID,
		Message:    string(workflow),
		Total:      len(steps),
	})
	return plan, nil
}

// ProcessInstruction creates a plan for the instruction and starts executing
// it in the background. It returns the workflow ID immediately; progress is
// observable through Events, the store, and the notifier.
func (o *Orchestrator) ProcessInstruction(ctx context.Context, instr *models.UserInstruction) (string, error) {
	plan, err := o.CreateWorkflowPlan(ctx, instr)
	if err != nil {
		return "", err
	}

	// Execution outlives the submitting request.
	bg := context.WithoutCancel(ctx)
	go func() {
		if err := o.ExecuteWorkflow(bg, plan.ID); err != nil {
			log.Printf("[orchestrator] workflow %s failed: %v", plan.ID, err)
		}
	}()
	return plan.ID, nil
}

// ExecuteWorkflow runs a pending workflow to a terminal state. It returns
// the terminal error, if any; the same information is recorded on the plan.
func (o *Orchestrator) ExecuteWorkflow(ctx context.Context, workflowID string) error {
	plan, err := o.store.Get(workflowID)
	if err != nil {
		return err
	}
	if status := plan.Status(); status != models.StatusPending {
		return fmt.Errorf("workflow %s is %s, expected %s", workflowID, status, models.StatusPending)
	}

	plan.SetStatus(models.StatusProcessing)
	o.emitter.Emit(Event{Type: EventWorkflowStarted, WorkflowID: plan.ID, Total: len(plan.Steps)})
	log.Printf("[orchestrator] executing workflow %s (%d steps)", plan.ID, len(plan.Steps))

	return o.finish(ctx, plan, o.executeWorkflowSteps(ctx, plan))
}

// finish records the outcome of a run on the plan and notifies the user.
func (o *Orchestrator) finish(ctx context.Context, plan *models.WorkflowPlan, runErr error) error {
	if errors.Is(runErr, errHalted) {
		// The plan was cancelled mid-wave; its state was already set by
		// CancelWorkflow and in-flight results were discarded.
		return runErr
	}

	instr, _ := o.store.Instruction(plan.ID)
	userID := ""
	if instr != nil {
		userID = instr.UserID
	}

	if runErr == nil {
		plan.MarkCompleted()
		o.emitter.Emit(Event{
			Type:       EventWorkflowCompleted,
			WorkflowID: plan.ID,
			Completed:  plan.ResultCount(),
			Total:      len(plan.Steps),
		})
		log.Printf("[orchestrator] workflow %s completed with %d results", plan.ID, plan.ResultCount())
		if err := o.notifier.Notify(ctx, notify.Event{
			Kind:       notify.KindComplete,
			UserID:     userID,
			WorkflowID: plan.ID,
			Details:    map[string]any{"results": plan.ResultCount()},
		}); err != nil {
			log.Printf("[orchestrator] completion notification for %s failed: %v", plan.ID, err)
		}
		return nil
	}

	// Step failures were already appended by the wave; workflow-level
	// failures (deadlock, submission errors) are appended here.
	if last := plan.LastError(); last == nil || last.Message != runErr.Error() {
		plan.AppendError(models.WorkflowError{
			WorkflowID: plan.ID,
			Message:    runErr.Error(),
			Timestamp:  time.Now(),
			Retryable:  isRetryable(runErr.Error()),
		})
	}
	plan.SetStatus(models.StatusFailed)

	last := plan.LastError()
	o.emitter.Emit(Event{Type: EventWorkflowFailed, WorkflowID: plan.ID, Err: runErr})
	log.Printf("[orchestrator] workflow %s failed: %v (retryable=%t)", plan.ID, runErr, last.Retryable)
	if err := o.notifier.Notify(ctx, notify.Event{
		Kind:       notify.KindError,
		UserID:     userID,
		WorkflowID: plan.ID,
		Details:    map[string]any{"message": last.Message, "retryable": last.Retryable},
	}); err != nil {
		log.Printf("[orchestrator] failure notification for %s failed: %v", plan.ID, err)
	}
	return runErr
}

// executeWorkflowSteps drives the plan's steps in dependency waves: every
// step whose dependencies are satisfied runs concurrently, and the next
// wave starts only after the whole wave finishes.
func (o *Orchestrator) executeWorkflowSteps(ctx context.Context, plan *models.WorkflowPlan) error {
	g := graph.New()
	if err := g.Build(plan.Steps); err != nil {
		return err
	}
	// Steps that already have results (from a previous attempt) are done.
	for stepID := range plan.Results() {
		g.MarkComplete(stepID)
	}

	for g.CompletedCount() < g.Size() {
		ready := g.GetReady()
		if len(ready) == 0 {
			return fmt.Errorf("deadlock detected in workflow %s: %d of %d steps complete and none executable",
				plan.ID, g.CompletedCount(), g.Size())
		}

		eg, waveCtx := errgroup.WithContext(ctx)
		for _, stepID := range ready {
			step := g.GetStep(stepID)
			eg.Go(func() error {
				if err := o.executeStep(waveCtx, plan, step); err != nil {
					return err
				}
				g.MarkComplete(step.ID)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// executeStep submits one step to the gateway, waits for it to finish, and
// records the result on the plan.
func (o *Orchestrator) executeStep(ctx context.Context, plan *models.WorkflowPlan, step *models.WorkflowStep) error {
	deps := make(map[string]models.StepResult, len(step.DependsOn))
	for _, depID := range step.DependsOn {
		if r, ok := plan.Result(depID); ok {
			deps[depID] = r
		}
	}

	taskID, err := o.gateway.SubmitTask(ctx, gateway.TaskDefinition{
		Type:         step.TaskType,
		AgentType:    step.AgentType,
		Payload:      step.Payload,
		Dependencies: deps,
		Priority:     step.Priority,
		Timeout:      step.Timeout,
		RetryPolicy:  step.RetryPolicy,
	})
	if err != nil {
		appendErr := models.WorkflowError{
			WorkflowID: plan.ID,
			StepID:     step.ID,
			Message:    err.Error(),
			Timestamp:  time.Now(),
			Retryable:  isRetryable(err.Error()),
			Context:    "task submission",
		}
		plan.AppendError(appendErr)
		o.emitter.Emit(Event{Type: EventStepFailed, WorkflowID: plan.ID, StepID: step.ID, Err: err})
		return fmt.Errorf("submitting step %s: %w", step.ID, err)
	}

	o.emitter.Emit(Event{
		Type:       EventStepStarted,
		WorkflowID: plan.ID,
		StepID:     step.ID,
		AgentType:  string(step.AgentType),
		Message:    step.TaskType,
	})

	timeout := o.stepTimeout
	if step.Timeout > 0 {
		timeout = step.Timeout
	}
	report, err := o.waitForTaskCompletion(ctx, taskID, timeout)
	if err == nil && report.State != gateway.TaskCompleted {
		err = errors.New(report.Error)
		if report.Error == "" {
			err = fmt.Errorf("task %s finished in state %s", taskID, report.State)
		}
	}
	if err != nil {
		plan.AppendError(models.WorkflowError{
			WorkflowID: plan.ID,
			StepID:     step.ID,
			TaskID:     taskID,
			Message:    err.Error(),
			Timestamp:  time.Now(),
			Retryable:  isRetryable(err.Error()),
		})
		o.emitter.Emit(Event{Type: EventStepFailed, WorkflowID: plan.ID, StepID: step.ID, Err: err})
		log.Printf("[orchestrator] step %s of workflow %s failed: %v", step.ID, plan.ID, err)
		return fmt.Errorf("step %s: %w", step.ID, err)
	}

	recorded := plan.RecordResult(step.ID, models.StepResult{
		TaskID:      taskID,
		Data:        report.Result,
		CompletedAt: time.Now(),
	})
	if !recorded {
		// The workflow left the processing state (cancellation) while the
		// task ran. Its result is discarded.
		log.Printf("[orchestrator] discarding late result for step %s of workflow %s", step.ID, plan.ID)
		return errHalted
	}

	o.emitter.Emit(Event{
		Type:       EventStepCompleted,
		WorkflowID: plan.ID,
		StepID:     step.ID,
		AgentType:  string(step.AgentType),
		Completed:  plan.ResultCount(),
		Total:      len(plan.Steps),
	})
	return nil
}

// waitForTaskCompletion polls the gateway until the task reaches a terminal
// state or the timeout elapses. The poll delay grows with the wait: base
// plus a tenth of the elapsed time, capped at the configured maximum.
func (o *Orchestrator) waitForTaskCompletion(ctx context.Context, taskID string, timeout time.Duration) (gateway.StatusReport, error) {
	start := time.Now()
	for {
		report, err := o.gateway.TaskStatus(ctx, taskID)
		if err != nil {
			return gateway.StatusReport{}, fmt.Errorf("polling task %s: %w", taskID, err)
		}
		switch report.State {
		case gateway.TaskCompleted, gateway.TaskFailed, gateway.TaskTimeout:
			return report, nil
		}

		elapsed := time.Since(start)
		if elapsed >= timeout {
			return gateway.StatusReport{}, fmt.Errorf("task %s timed out after %dms", taskID, timeout.Milliseconds())
		}

		delay := o.pollBaseDelay + elapsed/10
		if delay > o.pollMaxDelay {
			delay = o.pollMaxDelay
		}
		select {
		case <-ctx.Done():
			return gateway.StatusReport{}, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// CancelWorkflow stops a processing workflow. In-flight tasks are not
// interrupted; their results are discarded when they finish.
func (o *Orchestrator) CancelWorkflow(ctx context.Context, workflowID string) error {
	plan, err := o.store.Get(workflowID)
	if err != nil {
		return err
	}
	if plan.Status() != models.StatusProcessing {
		return fmt.Errorf("cancelling workflow %s: %w", workflowID, ErrNotCancellable)
	}

	plan.SetStatus(models.StatusFailed)
	plan.AppendError(models.WorkflowError{
		WorkflowID: plan.ID,
		Message:    "workflow cancelled by user",
		Timestamp:  time.Now(),
		Retryable:  false,
	})
	o.emitter.Emit(Event{Type: EventWorkflowCancelled, WorkflowID: plan.ID})
	log.Printf("[orchestrator] workflow %s cancelled", plan.ID)

	instr, _ := o.store.Instruction(plan.ID)
	userID := ""
	if instr != nil {
		userID = instr.UserID
	}
	if err := o.notifier.Notify(ctx, notify.Event{
		Kind:       notify.KindError,
		UserID:     userID,
		WorkflowID: plan.ID,
		Details:    map[string]any{"message": "workflow cancelled by user", "retryable": false},
	}); err != nil {
		log.Printf("[orchestrator] cancellation notification for %s failed: %v", plan.ID, err)
	}
	return nil
}

// RetryWorkflow re-drives a failed workflow. The retry is allowed only when
// the workflow is failed, its retry budget is not exhausted, and the most
// recent error is classified retryable. Steps that already completed keep
// their results; steps that errored run again.
func (o *Orchestrator) RetryWorkflow(ctx context.Context, workflowID string) error {
	plan, err := o.store.Get(workflowID)
	if err != nil {
		return err
	}

	if status := plan.Status(); status != models.StatusFailed {
		return fmt.Errorf("workflow %s is %s: %w", workflowID, status, ErrRetryNotAllowed)
	}
	if plan.Retries() >= o.maxWorkflowRetries {
		return fmt.Errorf("workflow %s exhausted %d retries: %w", workflowID, o.maxWorkflowRetries, ErrRetryNotAllowed)
	}
	last := plan.LastError()
	if last == nil || !last.Retryable {
		return fmt.Errorf("workflow %s last error is not retryable: %w", workflowID, ErrRetryNotAllowed)
	}

	// Only steps that errored lose their results; completed work is kept.
	for _, step := range plan.Steps {
		if len(plan.ErrorsForStep(step.ID)) > 0 {
			plan.ClearResult(step.ID)
		}
	}

	attempt := plan.IncrementRetry()
	plan.SetStatus(models.StatusProcessing)
	o.emitter.Emit(Event{
		Type:       EventWorkflowRetrying,
		WorkflowID: plan.ID,
		Message:    fmt.Sprintf("attempt %d of %d", attempt, o.maxWorkflowRetries),
		Completed:  plan.ResultCount(),
		Total:      len(plan.Steps),
	})
	log.Printf("[orchestrator] retrying workflow %s (attempt %d/%d, %d results kept)",
		plan.ID, attempt, o.maxWorkflowRetries, plan.ResultCount())

	return o.finish(ctx, plan, o.executeWorkflowSteps(ctx, plan))
}

// RetryWorkflowStep re-runs a single failed step. The retry is allowed only
// when the step has failed fewer times than the per-step budget and its
// most recent error is classified retryable. If the retried step was the
// last missing result, the workflow completes.
func (o *Orchestrator) RetryWorkflowStep(ctx context.Context, workflowID, stepID string) error {
	plan, err := o.store.Get(workflowID)
	if err != nil {
		return err
	}
	step := plan.Step(stepID)
	if step == nil {
		return fmt.Errorf("workflow %s has no step %s", workflowID, stepID)
	}

	stepErrors := plan.ErrorsForStep(stepID)
	if len(stepErrors) == 0 {
		return fmt.Errorf("step %s has never failed: %w", stepID, ErrRetryNotAllowed)
	}
	if len(stepErrors) >= o.maxStepRetries {
		return fmt.Errorf("step %s exhausted %d retries: %w", stepID, o.maxStepRetries, ErrRetryNotAllowed)
	}
	if !stepErrors[len(stepErrors)-1].Retryable {
		return fmt.Errorf("step %s last error is not retryable: %w", stepID, ErrRetryNotAllowed)
	}

	policy := step.RetryPolicy
	if policy == nil {
		policy = models.DefaultRetryPolicy()
	}
	retryStep := *step
	retryStep.RetryPolicy = policy

	prior := plan.Status()
	plan.ClearResult(stepID)
	plan.SetStatus(models.StatusProcessing)
	log.Printf("[orchestrator] retrying step %s of workflow %s (%d prior failures)",
		stepID, workflowID, len(stepErrors))

	if err := o.executeStep(ctx, plan, &retryStep); err != nil {
		plan.SetStatus(models.StatusFailed)
		return err
	}

	if plan.ResultCount() == len(plan.Steps) {
		return o.finish(ctx, plan, nil)
	}
	plan.SetStatus(prior)
	return nil
}
