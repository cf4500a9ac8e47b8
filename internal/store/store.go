// Package store provides in-memory workflow state tracking. Plans and their
// originating instructions live here for the lifetime of the process;
// nothing is persisted across restarts.
package store

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/junzhij/zhimo/pkg/models"
)

// ErrWorkflowNotFound indicates a lookup for an unregistered workflow ID.
var ErrWorkflowNotFound = errors.New("workflow not found")

// WorkflowStore maps workflow IDs to plans and to their originating
// instructions.
type WorkflowStore struct {
	mu           sync.RWMutex
	plans        map[string]*models.WorkflowPlan
	instructions map[string]*models.UserInstruction
}

// New creates an empty store.
func New() *WorkflowStore {
	return &WorkflowStore{
		plans:        make(map[string]*models.WorkflowPlan),
		instructions: make(map[string]*models.UserInstruction),
	}
}

// Register records a plan and the instruction that produced it.
func (s *WorkflowStore) Register(plan *models.WorkflowPlan, instr *models.UserInstruction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.ID] = plan
	if instr != nil {
		s.instructions[plan.ID] = instr
	}
}

// Get returns the plan for a workflow ID.
func (s *WorkflowStore) Get(workflowID string) (*models.WorkflowPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan, ok := s.plans[workflowID]
	if !ok {
		return nil, ErrWorkflowNotFound
	}
	return plan, nil
}

// Instruction returns the originating instruction for a workflow ID.
func (s *WorkflowStore) Instruction(workflowID string) (*models.UserInstruction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	instr, ok := s.instructions[workflowID]
	if !ok {
		return nil, ErrWorkflowNotFound
	}
	return instr, nil
}

// ListActive returns all plans that are pending or processing.
func (s *WorkflowStore) ListActive() []*models.WorkflowPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []*models.WorkflowPlan
	for _, plan := range s.plans {
		if !plan.Status().Terminal() {
			active = append(active, plan)
		}
	}
	return active
}

// Len returns the number of registered plans.
func (s *WorkflowStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.plans)
}

// Cleanup removes terminal plans (and their instructions) older than maxAge,
// measured from plan creation. Active plans are never removed regardless of
// age. Returns the number of plans removed.
func (s *WorkflowStore) Cleanup(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, plan := range s.plans {
		if !plan.Status().Terminal() {
			continue
		}
		if plan.CreatedAt.After(cutoff) {
			continue
		}
		delete(s.plans, id)
		delete(s.instructions, id)
		removed++
	}
	if removed > 0 {
		log.Printf("[store] cleanup removed %d terminal workflows older than %s", removed, maxAge)
	}
	return removed
}

// StartJanitor runs Cleanup every interval until the context is cancelled.
func (s *WorkflowStore) StartJanitor(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup(maxAge)
			}
		}
	}()
}
