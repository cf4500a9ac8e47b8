package store

import (
	"errors"
	"testing"
	"time"

	"github.com/junzhij/zhimo/pkg/models"
)

func planWithStatus(status models.WorkflowStatus, age time.Duration) *models.WorkflowPlan {
	plan := models.NewWorkflowPlan("instr-1", []*models.WorkflowStep{
		{ID: "step-1", AgentType: models.AgentIngestion, TaskType: models.TaskProcessDocument},
	})
	plan.CreatedAt = time.Now().Add(-age)
	plan.SetStatus(status)
	return plan
}

func TestRegisterAndGet(t *testing.T) {
	s := New()
	instr := models.NewUserInstruction("user-1", "doc-1", "summarize", models.InstructionOptions{})
	plan := planWithStatus(models.StatusPending, 0)

	s.Register(plan, instr)

	got, err := s.Get(plan.ID)
	if err != nil {
		t.Fatalf("getting plan: %v", err)
	}
	if got.ID != plan.ID {
		t.Errorf("expected plan %s, got %s", plan.ID, got.ID)
	}

	gotInstr, err := s.Instruction(plan.ID)
	if err != nil {
		t.Fatalf("getting instruction: %v", err)
	}
	if gotInstr.ID != instr.ID {
		t.Errorf("expected instruction %s, got %s", instr.ID, gotInstr.ID)
	}
}

func TestGetNotFound(t *testing.T) {
	s := New()
	if _, err := s.Get("missing"); !errors.Is(err, ErrWorkflowNotFound) {
		t.Errorf("expected ErrWorkflowNotFound, got %v", err)
	}
	if _, err := s.Instruction("missing"); !errors.Is(err, ErrWorkflowNotFound) {
		t.Errorf("expected ErrWorkflowNotFound, got %v", err)
	}
}

func TestListActive(t *testing.T) {
	s := New()
	s.Register(planWithStatus(models.StatusPending, 0), nil)
	s.Register(planWithStatus(models.StatusProcessing, 0), nil)
	s.Register(planWithStatus(models.StatusCompleted, 0), nil)
	s.Register(planWithStatus(models.StatusFailed, 0), nil)

	active := s.ListActive()
	if len(active) != 2 {
		t.Errorf("expected 2 active plans, got %d", len(active))
	}
}

func TestCleanupRemovesOldTerminalPlans(t *testing.T) {
	s := New()

	oldCompleted := planWithStatus(models.StatusCompleted, 2*time.Hour)
	oldProcessing := planWithStatus(models.StatusProcessing, 2*time.Hour)
	freshCompleted := planWithStatus(models.StatusCompleted, time.Minute)
	instr := models.NewUserInstruction("user-1", "doc-1", "summarize", models.InstructionOptions{})

	s.Register(oldCompleted, instr)
	s.Register(oldProcessing, nil)
	s.Register(freshCompleted, nil)

	removed := s.Cleanup(time.Hour)
	if removed != 1 {
		t.Fatalf("expected 1 plan removed, got %d", removed)
	}

	if _, err := s.Get(oldCompleted.ID); !errors.Is(err, ErrWorkflowNotFound) {
		t.Error("old completed plan should have been removed")
	}
	if _, err := s.Instruction(oldCompleted.ID); !errors.Is(err, ErrWorkflowNotFound) {
		t.Error("old completed plan's instruction should have been removed")
	}

	// An equally old but still-processing plan survives.
	if _, err := s.Get(oldProcessing.ID); err != nil {
		t.Error("processing plan should never be cleaned up")
	}
	if _, err := s.Get(freshCompleted.ID); err != nil {
		t.Error("fresh terminal plan should survive cleanup")
	}
}

func TestCleanupOldFailedPlans(t *testing.T) {
	s := New()
	oldFailed := planWithStatus(models.StatusFailed, 2*time.Hour)
	s.Register(oldFailed, nil)

	if removed := s.Cleanup(time.Hour); removed != 1 {
		t.Errorf("expected failed plan to be removed, got %d removals", removed)
	}
}
