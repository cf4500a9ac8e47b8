package agents

import (
	"strings"
	"testing"
)

func TestParseTaggedLines(t *testing.T) {
	raw := `Here are the topics:
TOPIC: Distributed systems
- TOPIC: Consensus
topic: lowercase tag
TOPIC:
Other line entirely`

	topics := parseTaggedLines(raw, "topic")
	want := []string{"Distributed systems", "Consensus", "lowercase tag"}
	if len(topics) != len(want) {
		t.Fatalf("got %d topics %v, want %d", len(topics), topics, len(want))
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Errorf("topic %d = %q, want %q", i, topics[i], want[i])
		}
	}
}

func TestParsePairedLines(t *testing.T) {
	raw := `Q: What is Raft?
A: A consensus algorithm.
Some commentary in between.
Q: Orphan question without answer
Q: What is a quorum?
A: A majority of nodes.
A: Orphan answer`

	pairs := parsePairedLines(raw, "Q", "A")
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs %v, want 2", len(pairs), pairs)
	}
	if pairs[0][0] != "What is Raft?" || pairs[0][1] != "A consensus algorithm." {
		t.Errorf("unexpected first pair %v", pairs[0])
	}
	if pairs[1][0] != "What is a quorum?" || pairs[1][1] != "A majority of nodes." {
		t.Errorf("unexpected second pair %v", pairs[1])
	}
}

func TestExtractiveSummaryRespectsWordLimit(t *testing.T) {
	text := "The first sentence sets the scene for everything. " +
		"The second sentence adds considerably more detail about the topic. " +
		"The third sentence would push the summary well past its limit."

	summary := extractiveSummary(text, 16)
	words := len(strings.Fields(summary))
	if words == 0 || words > 16 {
		t.Fatalf("summary has %d words, want 1..16: %q", words, summary)
	}
	if !strings.HasPrefix(summary, "The first sentence") {
		t.Errorf("summary should open with the first sentence, got %q", summary)
	}
}

func TestExtractiveSummaryNoSentences(t *testing.T) {
	summary := extractiveSummary("word "+strings.Repeat("filler ", 200), 10)
	if got := len(strings.Fields(summary)); got != 10 {
		t.Fatalf("fallback summary has %d words, want 10", got)
	}
}

func TestKeyTermsRequireRepeats(t *testing.T) {
	text := "Raft is a protocol. Raft elects leaders. Paxos appears once. " +
		"Quorum rules matter and Quorum sizes vary."

	terms := keyTerms(text, 5)
	if len(terms) != 2 {
		t.Fatalf("got terms %v, want [Raft Quorum]", terms)
	}
	if terms[0] != "Raft" || terms[1] != "Quorum" {
		t.Errorf("got terms %v, want [Raft Quorum]", terms)
	}
}

func TestStripTaggedLines(t *testing.T) {
	raw := "A summary line.\nTOPIC: Consensus\nAnother summary line."
	got := stripTaggedLines(raw, "TOPIC")
	if strings.Contains(got, "Consensus") {
		t.Fatalf("tagged line survived: %q", got)
	}
	if !strings.Contains(got, "A summary line.") || !strings.Contains(got, "Another summary line.") {
		t.Fatalf("free text lost: %q", got)
	}
}
