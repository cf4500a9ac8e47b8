package agents

import (
	"strings"
)

// parseTaggedLines scans LLM output for lines of the form "TAG: value" and
// returns the values for the requested tag. Matching is case-insensitive
// on the tag.
func parseTaggedLines(text, tag string) []string {
	prefix := strings.ToUpper(tag) + ":"
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		if len(line) < len(prefix) {
			continue
		}
		if strings.ToUpper(line[:len(prefix)]) != prefix {
			continue
		}
		value := strings.TrimSpace(line[len(prefix):])
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}

// parsePairedLines extracts (first, second) pairs from output where the
// first tag line is followed (eventually) by the second tag line, e.g.
// Q:/A: question-answer pairs or FRONT:/BACK: flashcards.
func parsePairedLines(text, firstTag, secondTag string) [][2]string {
	firstPrefix := strings.ToUpper(firstTag) + ":"
	secondPrefix := strings.ToUpper(secondTag) + ":"

	var pairs [][2]string
	var pending string
	havePending := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, firstPrefix):
			pending = strings.TrimSpace(line[len(firstPrefix):])
			havePending = pending != ""
		case strings.HasPrefix(upper, secondPrefix) && havePending:
			second := strings.TrimSpace(line[len(secondPrefix):])
			if second != "" {
				pairs = append(pairs, [2]string{pending, second})
			}
			havePending = false
		}
	}
	return pairs
}

// splitSentences breaks text into sentences on terminal punctuation. It is
// deliberately simple; it only feeds the extractive fallback summarizer.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			s := strings.TrimSpace(b.String())
			if len(strings.Fields(s)) > 2 {
				sentences = append(sentences, s)
			}
			b.Reset()
		}
	}
	if tail := strings.TrimSpace(b.String()); len(strings.Fields(tail)) > 2 {
		sentences = append(sentences, tail)
	}
	return sentences
}

// extractiveSummary builds a summary of at most maxWords words by taking
// leading sentences. Used when no LLM client is configured.
func extractiveSummary(text string, maxWords int) string {
	if maxWords <= 0 {
		maxWords = 150
	}
	var (
		parts []string
		words int
	)
	for _, s := range splitSentences(text) {
		n := len(strings.Fields(s))
		if words > 0 && words+n > maxWords {
			break
		}
		parts = append(parts, s)
		words += n
		if words >= maxWords {
			break
		}
	}
	if len(parts) == 0 {
		return truncateWords(text, maxWords)
	}
	return truncateWords(strings.Join(parts, " "), maxWords)
}

// keyTerms returns up to limit frequent capitalized terms from the text,
// the heuristic extraction path when no LLM is available.
func keyTerms(text string, limit int) []string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, field := range strings.Fields(text) {
		word := strings.Trim(field, ".,;:!?()[]{}\"'")
		if len(word) < 4 {
			continue
		}
		first := word[0]
		if first < 'A' || first > 'Z' {
			continue
		}
		if _, seen := counts[word]; !seen {
			order = append(order, word)
		}
		counts[word]++
	}
	var terms []string
	for _, w := range order {
		if counts[w] >= 2 {
			terms = append(terms, w)
			if len(terms) == limit {
				break
			}
		}
	}
	return terms
}

// truncateWords caps s at n words.
func truncateWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) <= n {
		return s
	}
	return strings.Join(fields[:n], " ")
}
