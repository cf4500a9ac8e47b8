// Package notify delivers workflow lifecycle notifications and watches for
// external cancel signals.
package notify

import (
	"context"
	"log"
)

// Kind is the notification category.
type Kind string

const (
	// KindComplete signals a successfully completed workflow.
	KindComplete Kind = "complete"
	// KindError signals a terminal workflow failure.
	KindError Kind = "error"
)

// Event is one workflow notification.
type Event struct {
	// Kind is complete or error.
	Kind Kind
	// UserID is the user that submitted the instruction.
	UserID string
	// WorkflowID is the workflow the event belongs to.
	WorkflowID string
	// Details carries event-specific data; failure events include the
	// message and the retryable classification.
	Details map[string]any
}

// Notifier delivers events to users. Delivery is fire-and-forget from the
// orchestrator's point of view: errors are logged by the caller, never
// propagated into workflow state.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// LogNotifier writes notifications to the process log. It is the default
// collaborator when no delivery channel is configured.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(_ context.Context, event Event) error {
	log.Printf("[notify] %s workflow=%s user=%s details=%v", event.Kind, event.WorkflowID, event.UserID, event.Details)
	return nil
}
