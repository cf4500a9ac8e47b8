package orchestrator

import (
	"github.com/google/uuid"

	"github.com/junzhij/zhimo/pkg/models"
)

// summaryWords maps the instruction's summary length hint to a word budget.
// Zero lets the analysis agent pick its own default.
func summaryWords(hint string) int {
	switch hint {
	case "short":
		return 75
	case "medium":
		return 150
	case "long":
		return 300
	default:
		return 0
	}
}

// buildSteps expands a workflow type into concrete steps for an instruction.
// Step IDs are generated; dependencies reference IDs within the same plan.
func buildSteps(instr *models.UserInstruction, workflow WorkflowType) []*models.WorkflowStep {
	docID := instr.DocumentID
	opts := instr.Options

	ingest := func(fastMode bool) *models.WorkflowStep {
		return &models.WorkflowStep{
			ID:        uuid.NewString(),
			AgentType: models.AgentIngestion,
			TaskType:  models.TaskProcessDocument,
			Payload: models.IngestionPayload{
				DocumentID:        docID,
				Source:            opts.SourcePath,
				FastMode:          fastMode,
				PreserveStructure: !fastMode,
			},
			Priority: 10,
		}
	}
	analyze := func(dep string, summaryOnly, forPedagogy bool) *models.WorkflowStep {
		return &models.WorkflowStep{
			ID:        uuid.NewString(),
			AgentType: models.AgentAnalysis,
			TaskType:  models.TaskAnalyzeDocument,
			DependsOn: []string{dep},
			Payload: models.AnalysisPayload{
				DocumentID:    docID,
				SummaryLength: summaryWords(opts.SummaryLength),
				SummaryOnly:   summaryOnly,
				ForPedagogy:   forPedagogy,
			},
			Priority: 5,
		}
	}
	extract := func(dep string, forPedagogy bool) *models.WorkflowStep {
		return &models.WorkflowStep{
			ID:        uuid.NewString(),
			AgentType: models.AgentExtraction,
			TaskType:  models.TaskExtractKnowledge,
			DependsOn: []string{dep},
			Payload: models.ExtractionPayload{
				DocumentID:  docID,
				Detailed:    workflow == WorkflowExtractionOnly,
				ForPedagogy: forPedagogy,
			},
			Priority: 5,
		}
	}
	pedagogy := func(deps ...string) *models.WorkflowStep {
		return &models.WorkflowStep{
			ID:        uuid.NewString(),
			AgentType: models.AgentPedagogy,
			TaskType:  models.TaskStudyMaterials,
			DependsOn: deps,
			Payload: models.PedagogyPayload{
				DocumentID:    docID,
				OutputTypes:   opts.OutputTypes,
				QuestionCount: opts.QuestionCount,
			},
			Priority: 3,
		}
	}
	synthesize := func(deps ...string) *models.WorkflowStep {
		return &models.WorkflowStep{
			ID:        uuid.NewString(),
			AgentType: models.AgentSynthesis,
			TaskType:  models.TaskCompileNotebook,
			DependsOn: deps,
			Payload: models.SynthesisPayload{
				DocumentID: docID,
				UserID:     instr.UserID,
			},
			Priority: 1,
		}
	}

	switch workflow {
	case WorkflowSummaryOnly:
		in := ingest(true)
		return []*models.WorkflowStep{in, analyze(in.ID, true, false)}

	case WorkflowExtractionOnly:
		in := ingest(false)
		return []*models.WorkflowStep{in, extract(in.ID, false)}

	case WorkflowStudyMaterials:
		in := ingest(false)
		an := analyze(in.ID, false, true)
		ex := extract(in.ID, true)
		return []*models.WorkflowStep{in, an, ex, pedagogy(an.ID, ex.ID)}

	case WorkflowNotebookCompile:
		// Compiles whatever the knowledge store already holds for the
		// document; no upstream steps.
		return []*models.WorkflowStep{synthesize()}

	default: // WorkflowFullProcessing
		in := ingest(false)
		an := analyze(in.ID, false, false)
		ex := extract(in.ID, false)
		steps := []*models.WorkflowStep{in, an, ex}
		synthDeps := []string{an.ID, ex.ID}
		if len(opts.OutputTypes) > 0 || opts.QuestionCount > 0 {
			ped := pedagogy(an.ID, ex.ID)
			steps = append(steps, ped)
			synthDeps = append(synthDeps, ped.ID)
		}
		return append(steps, synthesize(synthDeps...))
	}
}
