// Package tui renders live workflow progress in the terminal.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	footerStyle  = lipgloss.NewStyle().Faint(true)
)

// StepEventMsg reports a step lifecycle change to the watch model.
type StepEventMsg struct {
	StepID    string
	AgentType string
	TaskType  string
	// State is one of "running", "done", "failed".
	State string
	Error string
}

// WorkflowDoneMsg reports workflow completion or failure.
type WorkflowDoneMsg struct {
	Success bool
	Message string
}

type stepRow struct {
	id        string
	agentType string
	taskType  string
	state     string
	errMsg    string
}

// WatchModel is a bubbletea model showing one workflow's step progress.
type WatchModel struct {
	workflowID string
	spin       spinner.Model
	steps      []stepRow
	index      map[string]int
	done       bool
	success    bool
	message    string
}

// NewWatchModel creates a watch model for the given workflow.
func NewWatchModel(workflowID string) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = runningStyle
	return WatchModel{
		workflowID: workflowID,
		spin:       s,
		index:      make(map[string]int),
	}
}

// Init implements tea.Model.
func (m WatchModel) Init() tea.Cmd {
	return m.spin.Tick
}

// Update implements tea.Model.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		if m.done {
			return m, tea.Quit
		}
		return m, nil

	case StepEventMsg:
		if i, ok := m.index[msg.StepID]; ok {
			m.steps[i].state = msg.State
			m.steps[i].errMsg = msg.Error
			if msg.TaskType != "" {
				m.steps[i].taskType = msg.TaskType
			}
		} else {
			m.index[msg.StepID] = len(m.steps)
			m.steps = append(m.steps, stepRow{
				id:        msg.StepID,
				agentType: msg.AgentType,
				taskType:  msg.TaskType,
				state:     msg.State,
				errMsg:    msg.Error,
			})
		}
		return m, nil

	case WorkflowDoneMsg:
		m.done = true
		m.success = msg.Success
		m.message = msg.Message
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m WatchModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("workflow %s", m.workflowID)))
	b.WriteString("\n\n")

	for _, row := range m.steps {
		label := fmt.Sprintf("%-12s %s", row.agentType, row.taskType)
		switch row.state {
		case "done":
			b.WriteString(doneStyle.Render("✓ " + label))
		case "failed":
			b.WriteString(failStyle.Render("✗ " + label))
			if row.errMsg != "" {
				b.WriteString(failStyle.Render("  " + row.errMsg))
			}
		default:
			b.WriteString(m.spin.View() + stepStyle.Render(label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		if m.success {
			b.WriteString(doneStyle.Render("workflow completed"))
		} else {
			b.WriteString(failStyle.Render("workflow failed: " + m.message))
		}
		b.WriteString(footerStyle.Render("  (press any key to exit)"))
	} else {
		b.WriteString(footerStyle.Render("q to quit"))
	}
	b.WriteString("\n")
	return b.String()
}
