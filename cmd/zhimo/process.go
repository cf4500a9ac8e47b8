package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/junzhij/zhimo/internal/agents"
	"github.com/junzhij/zhimo/internal/config"
	"github.com/junzhij/zhimo/internal/gateway"
	"github.com/junzhij/zhimo/internal/knowledge"
	"github.com/junzhij/zhimo/internal/notify"
	"github.com/junzhij/zhimo/internal/orchestrator"
	"github.com/junzhij/zhimo/internal/store"
	"github.com/junzhij/zhimo/internal/tui"
	"github.com/junzhij/zhimo/pkg/models"
)

var (
	processSource        string
	processDocument      string
	processUser          string
	processOutput        string
	processWatch         bool
	processSummaryLength string
	processQuestions     int
	processOutputTypes   []string
)

var processCmd = &cobra.Command{
	Use:   "process [instruction]",
	Short: "Run a document instruction through the agent pipeline",
	Long: `Process a natural-language instruction against a document.

The instruction is classified into a workflow plan, the plan's steps run
through the agent pool in dependency order, and the results are printed
when the workflow finishes.

Examples:
  zhimo process "Please summarize this document" --source notes.txt
  zhimo process "Extract the key concepts" --source paper.html --output yaml
  zhimo process "Make flashcards" --source lecture.txt --questions 10 --watch
  zhimo process "Compile my notebook" --document doc-42`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&processSource, "source", "s", "", "Document source (file path or URL)")
	processCmd.Flags().StringVarP(&processDocument, "document", "d", "", "Document ID (defaults to a generated one)")
	processCmd.Flags().StringVarP(&processUser, "user", "u", "local", "User ID for notifications")
	processCmd.Flags().StringVarP(&processOutput, "output", "o", "text", "Output format: text or yaml")
	processCmd.Flags().BoolVarP(&processWatch, "watch", "w", false, "Show live step progress in a TUI")
	processCmd.Flags().StringVar(&processSummaryLength, "summary-length", "", "Summary length hint: short, medium, or long")
	processCmd.Flags().IntVar(&processQuestions, "questions", 0, "Number of practice questions to generate")
	processCmd.Flags().StringSliceVar(&processOutputTypes, "output-types", nil, "Study material kinds to produce (questions, flashcards)")
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load()
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	kstore, err := knowledge.Open(cfg.Knowledge.DBPath)
	if err != nil {
		return fmt.Errorf("opening knowledge store: %w", err)
	}
	defer kstore.Close()

	var llm *agents.LLMClient
	if cfg.Anthropic.APIKey != "" || cfg.Anthropic.UseBedrock {
		llm, err = agents.NewLLMClient(agents.LLMConfig{
			Model:         cfg.Anthropic.Model,
			APIKey:        cfg.Anthropic.APIKey,
			UseAWSBedrock: cfg.Anthropic.UseBedrock,
			AWSRegion:     cfg.Anthropic.AWSRegion,
			AWSProfile:    cfg.Anthropic.AWSProfile,
		})
		if err != nil {
			return fmt.Errorf("creating LLM client: %w", err)
		}
	} else {
		fmt.Println(color.YellowString("⚠") + " no Anthropic credentials configured; agents use heuristic fallbacks")
	}

	gw := gateway.NewLocalGateway(agents.All(llm, kstore, agents.Options{
		ChunkSize:     cfg.Ingestion.ChunkSize,
		ChunkOverlap:  cfg.Ingestion.ChunkOverlap,
		QuestionCount: agents.DefaultOptions().QuestionCount,
	})...)
	defer gw.Drain()

	wstore := store.New()
	orch := orchestrator.NewOrchestrator(gw, wstore, notify.LogNotifier{},
		orchestrator.WithStepTimeout(cfg.Orchestrator.StepTimeout),
		orchestrator.WithPollDelays(cfg.Orchestrator.PollBaseDelay, cfg.Orchestrator.PollMaxDelay),
		orchestrator.WithMaxWorkflowRetries(cfg.Orchestrator.MaxWorkflowRetries),
		orchestrator.WithMaxStepRetries(cfg.Orchestrator.MaxStepRetries),
	)
	defer orch.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	wstore.StartJanitor(ctx, cfg.Cleanup.Interval, cfg.Cleanup.MaxAge)

	if cfg.SignalsDir != "" {
		watcher, err := notify.NewSignalWatcher(cfg.SignalsDir, func(workflowID string) {
			if err := orch.CancelWorkflow(ctx, workflowID); err != nil {
				log.Printf("[zhimo] cancel signal for %s: %v", workflowID, err)
			}
		})
		if err != nil {
			log.Printf("[zhimo] signal watcher disabled: %v", err)
		} else {
			defer watcher.Close()
		}
	}

	documentID := processDocument
	if documentID == "" {
		documentID = fmt.Sprintf("doc-%d", time.Now().Unix())
	}
	instr := models.NewUserInstruction(processUser, documentID, args[0], models.InstructionOptions{
		OutputTypes:   processOutputTypes,
		SummaryLength: processSummaryLength,
		QuestionCount: processQuestions,
		SourcePath:    processSource,
	})

	plan, err := orch.CreateWorkflowPlan(ctx, instr)
	if err != nil {
		return err
	}

	if processWatch {
		err = runWatched(ctx, orch, plan)
	} else {
		err = orch.ExecuteWorkflow(ctx, plan.ID)
	}

	if printErr := printPlan(plan); printErr != nil {
		return printErr
	}
	return err
}

// runWatched executes the workflow behind a live TUI.
func runWatched(ctx context.Context, orch *orchestrator.Orchestrator, plan *models.WorkflowPlan) error {
	// Suppress log output while TUI is active (it corrupts the display)
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	program := tea.NewProgram(tui.NewWatchModel(plan.ID))

	go forwardEvents(program, orch.Events())

	done := make(chan error, 1)
	go func() { done <- orch.ExecuteWorkflow(ctx, plan.ID) }()
	go func() {
		err := <-done
		if err != nil {
			program.Send(tui.WorkflowDoneMsg{Success: false, Message: err.Error()})
		} else {
			program.Send(tui.WorkflowDoneMsg{Success: true})
		}
	}()

	if _, err := program.Run(); err != nil {
		return err
	}
	if plan.Status() == models.StatusFailed {
		if last := plan.LastError(); last != nil {
			return fmt.Errorf("workflow failed: %s", last.Message)
		}
	}
	return nil
}

// forwardEvents converts orchestrator events to TUI messages.
func forwardEvents(program *tea.Program, events <-chan orchestrator.Event) {
	for event := range events {
		switch event.Type {
		case orchestrator.EventStepStarted:
			program.Send(tui.StepEventMsg{
				StepID:    event.StepID,
				AgentType: event.AgentType,
				TaskType:  event.Message,
				State:     "running",
			})
		case orchestrator.EventStepCompleted:
			program.Send(tui.StepEventMsg{
				StepID:    event.StepID,
				AgentType: event.AgentType,
				State:     "done",
			})
		case orchestrator.EventStepFailed:
			errStr := ""
			if event.Err != nil {
				errStr = event.Err.Error()
			}
			program.Send(tui.StepEventMsg{
				StepID: event.StepID,
				State:  "failed",
				Error:  errStr,
			})
		}
	}
}

// printPlan renders the finished plan in the requested output format.
func printPlan(plan *models.WorkflowPlan) error {
	snapshot := plan.Snapshot()

	if processOutput == "yaml" {
		out, err := yaml.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("rendering yaml: %w", err)
		}
		fmt.Print(string(out))
		return nil
	}

	switch snapshot.Status {
	case models.StatusCompleted:
		fmt.Printf("%s workflow %s completed (%d steps)\n", color.GreenString("✓"), snapshot.ID, len(snapshot.Steps))
	case models.StatusFailed:
		fmt.Printf("%s workflow %s failed\n", color.RedString("✗"), snapshot.ID)
		if len(snapshot.Errors) > 0 {
			last := snapshot.Errors[len(snapshot.Errors)-1]
			fmt.Printf("  %s (retryable: %t)\n", last.Message, last.Retryable)
		}
	default:
		fmt.Printf("%s workflow %s is %s\n", color.YellowString("⚠"), snapshot.ID, snapshot.Status)
	}

	for _, step := range snapshot.Steps {
		result, ok := snapshot.Results[step.ID]
		if !ok {
			fmt.Printf("  %s %-12s %s\n", color.RedString("-"), step.AgentType, step.TaskType)
			continue
		}
		fmt.Printf("  %s %-12s %s\n", color.GreenString("✓"), step.AgentType, step.TaskType)
		printResultData(result.Data)
	}
	return nil
}

// printResultData shows scalar result fields, then any notebook in full.
func printResultData(data map[string]any) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if k == "notebook" || k == "text" || k == "chunks" || k == "content_html" {
			continue
		}
		switch v := data[k].(type) {
		case string, int, bool, float64:
			fmt.Printf("      %s: %v\n", k, v)
		case []string:
			if len(v) > 0 {
				fmt.Printf("      %s: %d items\n", k, len(v))
			}
		}
	}
	if notebook, ok := data["notebook"].(string); ok && notebook != "" {
		fmt.Println()
		fmt.Println(notebook)
	}
}
