package models

import (
	"time"

	"github.com/google/uuid"
)

// InstructionOptions carries optional structured hints supplied alongside
// the free-form instruction text.
type InstructionOptions struct {
	// OutputTypes lists the study-material kinds the user asked for
	// (e.g. "questions", "flashcards").
	OutputTypes []string `json:"output_types,omitempty"`
	// SummaryLength is the desired summary length ("short", "medium", "long").
	SummaryLength string `json:"summary_length,omitempty"`
	// QuestionCount is the number of questions to generate, if requested.
	QuestionCount int `json:"question_count,omitempty"`
	// SourcePath points at the document source (file path or URL) for
	// ingestion. Empty when the document is already ingested.
	SourcePath string `json:"source_path,omitempty"`
}

// UserInstruction is a single natural-language request against one document.
// Instructions are immutable once created.
type UserInstruction struct {
	// ID is the unique identifier for this instruction.
	ID string `json:"id"`
	// UserID identifies the requesting user.
	UserID string `json:"user_id"`
	// DocumentID identifies the target document.
	DocumentID string `json:"document_id"`
	// Text is the raw instruction as the user typed it.
	Text string `json:"text"`
	// Options holds optional structured hints.
	Options InstructionOptions `json:"options"`
	// SubmittedAt is when the instruction was received.
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewUserInstruction creates an instruction with a generated ID and the
// current time as its submission timestamp.
func NewUserInstruction(userID, documentID, text string, opts InstructionOptions) *UserInstruction {
	return &UserInstruction{
		ID:          uuid.NewString(),
		UserID:      userID,
		DocumentID:  documentID,
		Text:        text,
		Options:     opts,
		SubmittedAt: time.Now(),
	}
}
