// Package graph provides the dependency graph used for workflow step
// scheduling.
package graph

import (
	"errors"
	"fmt"
	"sync"

	"github.com/junzhij/zhimo/pkg/models"
)

// ErrCycleDetected indicates a circular dependency was found in the plan.
var ErrCycleDetected = errors.New("circular dependency detected")

// ErrUnknownDependency indicates a step references a dependency ID that does
// not correspond to any step in the plan.
var ErrUnknownDependency = errors.New("unknown dependency")

// DependencyGraph is a directed acyclic graph of workflow steps. Edges
// represent "blocked by" relationships.
type DependencyGraph struct {
	mu sync.RWMutex
	// nodes maps step ID to the step itself.
	nodes map[string]*models.WorkflowStep
	// edges maps step ID to the IDs of steps it depends on.
	edges map[string][]string
	// completed tracks which steps have been marked complete.
	completed map[string]bool
}

// New creates an empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		nodes:     make(map[string]*models.WorkflowStep),
		edges:     make(map[string][]string),
		completed: make(map[string]bool),
	}
}

// Build constructs the graph from a plan's steps. It fails when a step
// depends on an ID that is not part of the plan, or when the dependencies
// form a cycle. Either defect makes the plan structurally unexecutable.
func (g *DependencyGraph) Build(steps []*models.WorkflowStep) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, step := range steps {
		g.nodes[step.ID] = step
		g.edges[step.ID] = nil
	}

	for _, step := range steps {
		for _, depID := range step.DependsOn {
			if _, exists := g.nodes[depID]; !exists {
				return fmt.Errorf("step %s depends on %s: %w", step.ID, depID, ErrUnknownDependency)
			}
			g.edges[step.ID] = append(g.edges[step.ID], depID)
		}
	}

	if g.hasCycleLocked() {
		return ErrCycleDetected
	}
	return nil
}

// hasCycleLocked runs a colored depth-first search looking for back edges.
// Caller must hold g.mu.
func (g *DependencyGraph) hasCycleLocked() bool {
	// 0 = unvisited, 1 = in progress, 2 = done.
	colors := make(map[string]int, len(g.nodes))

	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = 1
		for _, depID := range g.edges[id] {
			switch colors[depID] {
			case 1:
				return true
			case 0:
				if visit(depID) {
					return true
				}
			}
		}
		colors[id] = 2
		return false
	}

	for id := range g.nodes {
		if colors[id] == 0 && visit(id) {
			return true
		}
	}
	return false
}

// GetReady returns the IDs of steps that are not yet complete and whose
// every dependency has been marked complete. These form one execution wave.
func (g *DependencyGraph) GetReady() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var ready []string
	for id := range g.nodes {
		if g.completed[id] {
			continue
		}
		satisfied := true
		for _, depID := range g.edges[id] {
			if !g.completed[depID] {
				satisfied = false
				break
			}
		}
		if satisfied {
			ready = append(ready, id)
		}
	}
	return ready
}

// MarkComplete records a step as completed, unblocking its dependents in
// subsequent GetReady calls.
func (g *DependencyGraph) MarkComplete(stepID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed[stepID] = true
}

// CompletedCount returns the number of steps marked complete.
func (g *DependencyGraph) CompletedCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.completed)
}

// GetStep returns the step for a given ID, or nil.
func (g *DependencyGraph) GetStep(stepID string) *models.WorkflowStep {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[stepID]
}

// Size returns the number of steps in the graph.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// GetDependencies returns the IDs of steps the given step depends on.
func (g *DependencyGraph) GetDependencies(stepID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges[stepID]
}

// GetDependents returns the IDs of steps that depend on the given step.
func (g *DependencyGraph) GetDependents(stepID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var dependents []string
	for id, deps := range g.edges {
		for _, depID := range deps {
			if depID == stepID {
				dependents = append(dependents, id)
				break
			}
		}
	}
	return dependents
}
