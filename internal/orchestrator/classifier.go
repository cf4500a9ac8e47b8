// Package orchestrator coordinates multi-step document workflows: it turns
// user instructions into dependency-ordered plans and drives them through
// the task gateway to completion.
package orchestrator

import (
	"strings"
)

// WorkflowType names a plan template.
type WorkflowType string

const (
	// WorkflowFullProcessing runs the whole pipeline: ingest, analyze,
	// extract, optionally generate study materials, compile a notebook.
	WorkflowFullProcessing WorkflowType = "full_processing"
	// WorkflowSummaryOnly ingests and summarizes.
	WorkflowSummaryOnly WorkflowType = "summary_only"
	// WorkflowExtractionOnly ingests and extracts knowledge elements.
	WorkflowExtractionOnly WorkflowType = "extraction_only"
	// WorkflowStudyMaterials produces questions and flashcards.
	WorkflowStudyMaterials WorkflowType = "study_materials"
	// WorkflowNotebookCompile compiles previously extracted knowledge.
	WorkflowNotebookCompile WorkflowType = "notebook_compile"
)

// classifierRule maps instruction keywords to a workflow type. Rules are
// checked in order; the first match wins.
type classifierRule struct {
	keywords []string
	workflow WorkflowType
}

var classifierRules = []classifierRule{
	{[]string{"process", "analyze", "analyse"}, WorkflowFullProcessing},
	{[]string{"summary", "summarize", "summarise"}, WorkflowSummaryOnly},
	{[]string{"extract", "knowledge", "concepts"}, WorkflowExtractionOnly},
	{[]string{"flashcard", "question", "quiz", "study"}, WorkflowStudyMaterials},
	{[]string{"notebook", "compile", "export"}, WorkflowNotebookCompile},
}

// ClassifyInstruction maps free-form instruction text to a workflow type.
// Unrecognized instructions get the full pipeline.
func ClassifyInstruction(text string) WorkflowType {
	lowered := strings.ToLower(text)
	for _, rule := range classifierRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return rule.workflow
			}
		}
	}
	return WorkflowFullProcessing
}
