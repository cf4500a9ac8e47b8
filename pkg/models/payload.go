package models

// Task type names understood by the agent pool.
const (
	TaskProcessDocument  = "process_document"
	TaskAnalyzeDocument  = "analyze_document"
	TaskExtractKnowledge = "extract_knowledge"
	TaskStudyMaterials   = "generate_study_materials"
	TaskCompileNotebook  = "compile_notebook"
)

// TaskPayload is the closed union of per-task-type payload shapes. Each
// variant knows the task type it belongs to, so a step's payload and its
// TaskType field can never drift apart.
type TaskPayload interface {
	PayloadTaskType() string
}

// IngestionPayload configures document ingestion.
type IngestionPayload struct {
	// DocumentID identifies the document being ingested.
	DocumentID string `json:"document_id"`
	// Source is the file path or URL of the raw document.
	Source string `json:"source,omitempty"`
	// FastMode skips structure analysis for latency-sensitive workflows.
	FastMode bool `json:"fast_mode,omitempty"`
	// PreserveStructure keeps headings and lists intact for extraction.
	PreserveStructure bool `json:"preserve_structure,omitempty"`
}

// PayloadTaskType implements TaskPayload.
func (IngestionPayload) PayloadTaskType() string { return TaskProcessDocument }

// AnalysisPayload configures document analysis.
type AnalysisPayload struct {
	DocumentID string `json:"document_id"`
	// SummaryLength is the summary word budget. Zero lets the analysis
	// agent pick its default.
	SummaryLength int `json:"summary_length,omitempty"`
	// SummaryOnly limits analysis to summary generation.
	SummaryOnly bool `json:"summary_only,omitempty"`
	// ForPedagogy tunes the output for downstream study-material generation.
	ForPedagogy bool `json:"for_pedagogy,omitempty"`
}

// PayloadTaskType implements TaskPayload.
func (AnalysisPayload) PayloadTaskType() string { return TaskAnalyzeDocument }

// ExtractionPayload configures knowledge extraction.
type ExtractionPayload struct {
	DocumentID string `json:"document_id"`
	// Detailed requests formula and theorem extraction in addition to
	// entities and definitions.
	Detailed bool `json:"detailed,omitempty"`
	// ForPedagogy tunes the output for downstream study-material generation.
	ForPedagogy bool `json:"for_pedagogy,omitempty"`
}

// PayloadTaskType implements TaskPayload.
func (ExtractionPayload) PayloadTaskType() string { return TaskExtractKnowledge }

// PedagogyPayload configures study-material generation.
type PedagogyPayload struct {
	DocumentID string `json:"document_id"`
	// OutputTypes lists the requested material kinds ("questions",
	// "flashcards"). Empty means both.
	OutputTypes []string `json:"output_types,omitempty"`
	// QuestionCount is the number of questions to generate (0 = default).
	QuestionCount int `json:"question_count,omitempty"`
}

// PayloadTaskType implements TaskPayload.
func (PedagogyPayload) PayloadTaskType() string { return TaskStudyMaterials }

// SynthesisPayload configures notebook compilation.
type SynthesisPayload struct {
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
	// Title is the notebook title. Defaults to the document ID when empty.
	Title string `json:"title,omitempty"`
}

// PayloadTaskType implements TaskPayload.
func (SynthesisPayload) PayloadTaskType() string { return TaskCompileNotebook }
