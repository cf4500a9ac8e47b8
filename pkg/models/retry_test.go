package models

import (
	"testing"
	"time"
)

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()

	if p.MaxRetries != 3 {
		t.Errorf("expected 3 max retries, got %d", p.MaxRetries)
	}
	if p.BackoffMultiplier != 2.0 {
		t.Errorf("expected multiplier 2.0, got %f", p.BackoffMultiplier)
	}
	if p.InitialDelay != time.Second {
		t.Errorf("expected 1s initial delay, got %s", p.InitialDelay)
	}
}

func TestRetryPolicyDelay(t *testing.T) {
	p := &RetryPolicy{MaxRetries: 3, BackoffMultiplier: 2.0, InitialDelay: 100 * time.Millisecond}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond}, // clamped to attempt 1
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := p.Delay(tc.attempt); got != tc.want {
			t.Errorf("Delay(%d) = %s, want %s", tc.attempt, got, tc.want)
		}
	}
}

func TestAgentTypeValid(t *testing.T) {
	valid := []AgentType{AgentIngestion, AgentAnalysis, AgentExtraction, AgentPedagogy, AgentSynthesis}
	for _, a := range valid {
		if !a.Valid() {
			t.Errorf("expected %s to be valid", a)
		}
	}
	if AgentType("translation").Valid() {
		t.Error("expected unknown agent type to be invalid")
	}
}

func TestPayloadTaskTypes(t *testing.T) {
	cases := []struct {
		payload TaskPayload
		want    string
	}{
		{IngestionPayload{}, TaskProcessDocument},
		{AnalysisPayload{}, TaskAnalyzeDocument},
		{ExtractionPayload{}, TaskExtractKnowledge},
		{PedagogyPayload{}, TaskStudyMaterials},
		{SynthesisPayload{}, TaskCompileNotebook},
	}
	for _, tc := range cases {
		if got := tc.payload.PayloadTaskType(); got != tc.want {
			t.Errorf("PayloadTaskType() = %q, want %q", got, tc.want)
		}
	}
}
