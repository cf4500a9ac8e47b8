package agents

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/junzhij/zhimo/internal/gateway"
	"github.com/junzhij/zhimo/pkg/models"
)

// IngestionAgent converts raw document sources (local files or URLs) into
// normalized text plus retrieval-sized chunks.
type IngestionAgent struct {
	chunkSize    int
	chunkOverlap int
	fetchTimeout time.Duration
	strict       *bluemonday.Policy
	structured   *bluemonday.Policy
}

// NewIngestionAgent creates an ingestion agent with the given chunking
// parameters.
func NewIngestionAgent(chunkSize, chunkOverlap int) *IngestionAgent {
	return &IngestionAgent{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		fetchTimeout: 30 * time.Second,
		strict:       bluemonday.StrictPolicy(),
		structured:   bluemonday.UGCPolicy(),
	}
}

// AgentType implements gateway.Executor.
func (a *IngestionAgent) AgentType() models.AgentType { return models.AgentIngestion }

// Execute ingests the document named by the payload source.
func (a *IngestionAgent) Execute(ctx context.Context, task gateway.TaskDefinition) (map[string]any, error) {
	payload, ok := task.Payload.(models.IngestionPayload)
	if !ok {
		return nil, fmt.Errorf("unexpected payload type %T", task.Payload)
	}
	if payload.Source == "" {
		return nil, fmt.Errorf("document %s has no source to ingest", payload.DocumentID)
	}

	title, text, contentHTML, err := a.load(payload.Source)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("document %s produced no text", payload.DocumentID)
	}

	result := map[string]any{
		"document_id": payload.DocumentID,
		"title":       title,
		"text":        text,
		"word_count":  len(strings.Fields(text)),
		"fast_mode":   payload.FastMode,
	}
	if payload.PreserveStructure && contentHTML != "" {
		result["content_html"] = a.structured.Sanitize(contentHTML)
	}

	// Fast mode skips chunking; downstream summary-only analysis reads the
	// full text directly.
	if !payload.FastMode {
		splitter := textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(a.chunkSize),
			textsplitter.WithChunkOverlap(a.chunkOverlap),
		)
		chunks, err := splitter.SplitText(text)
		if err != nil {
			return nil, fmt.Errorf("chunking document %s: %w", payload.DocumentID, err)
		}
		result["chunks"] = chunks
		result["chunk_count"] = len(chunks)
	}

	return result, nil
}

// load reads the source and returns (title, plain text, article HTML).
func (a *IngestionAgent) load(source string) (string, string, string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		article, err := readability.FromURL(source, a.fetchTimeout)
		if err != nil {
			return "", "", "", fmt.Errorf("fetching %s: %w", source, err)
		}
		return article.Title, article.TextContent, article.Content, nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return "", "", "", fmt.Errorf("reading %s: %w", source, err)
	}

	switch strings.ToLower(filepath.Ext(source)) {
	case ".html", ".htm":
		pageURL, _ := url.Parse("file://" + source)
		article, err := readability.FromReader(bytes.NewReader(data), pageURL)
		if err != nil {
			// Readability can fail on fragments; fall back to a strict
			// tag strip.
			return filepath.Base(source), a.strict.Sanitize(string(data)), "", nil
		}
		return article.Title, article.TextContent, article.Content, nil
	default:
		title := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
		return title, string(data), "", nil
	}
}
