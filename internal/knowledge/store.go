// Package knowledge provides SQLite-backed storage for the knowledge
// elements agents extract from documents. Workflow state itself never
// touches this store; it holds only agent output that must outlive a
// workflow (definitions, formulas, theorems, summaries) so the synthesis
// agent can compile notebooks from prior runs.
package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Element is one extracted knowledge item.
type Element struct {
	// ID is the unique identifier for this element.
	ID string
	// DocumentID is the source document.
	DocumentID string
	// AgentType is the capability that produced the element.
	AgentType string
	// ElementType categorizes the element (definition, formula, theorem,
	// entity, summary, question, flashcard).
	ElementType string
	// Content is the element body.
	Content string
	// Metadata carries element-specific fields, stored as JSON.
	Metadata map[string]string
	// CreatedAt is when the element was stored.
	CreatedAt time.Time
}

// Store wraps the SQLite connection holding knowledge elements.
type Store struct {
	conn *sql.DB
	mu   sync.RWMutex
}

const schema = `
CREATE TABLE IF NOT EXISTS knowledge_elements (
	id           TEXT PRIMARY KEY,
	document_id  TEXT NOT NULL,
	agent_type   TEXT NOT NULL,
	element_type TEXT NOT NULL,
	content      TEXT NOT NULL,
	metadata     TEXT NOT NULL DEFAULT '{}',
	created_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_elements_document ON knowledge_elements(document_id);
CREATE INDEX IF NOT EXISTS idx_elements_type ON knowledge_elements(document_id, element_type);
`

// Open opens (creating if necessary) the knowledge database at path.
// WAL mode is enabled for concurrent reads.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Save stores one element, assigning an ID and timestamp if unset.
func (s *Store) Save(ctx context.Context, el Element) (string, error) {
	if el.ID == "" {
		el.ID = uuid.NewString()
	}
	if el.CreatedAt.IsZero() {
		el.CreatedAt = time.Now()
	}
	meta := el.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO knowledge_elements (id, document_id, agent_type, element_type, content, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		el.ID, el.DocumentID, el.AgentType, el.ElementType, el.Content, string(metaJSON), el.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert element: %w", err)
	}
	return el.ID, nil
}

// ListByDocument returns all elements for a document, oldest first.
func (s *Store) ListByDocument(ctx context.Context, documentID string) ([]Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, document_id, agent_type, element_type, content, metadata, created_at
		 FROM knowledge_elements WHERE document_id = ? ORDER BY created_at, id`,
		documentID)
	if err != nil {
		return nil, fmt.Errorf("query elements: %w", err)
	}
	defer rows.Close()

	var out []Element
	for rows.Next() {
		var el Element
		var metaJSON string
		if err := rows.Scan(&el.ID, &el.DocumentID, &el.AgentType, &el.ElementType, &el.Content, &metaJSON, &el.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan element: %w", err)
		}
		if err := json.Unmarshal([]byte(metaJSON), &el.Metadata); err != nil {
			el.Metadata = map[string]string{}
		}
		out = append(out, el)
	}
	return out, rows.Err()
}

// CompileNotebook renders every stored element for a document into a
// markdown notebook, grouped by element type.
func (s *Store) CompileNotebook(ctx context.Context, documentID, title string) (string, error) {
	elements, err := s.ListByDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	if title == "" {
		title = documentID
	}

	grouped := make(map[string][]Element)
	for _, el := range elements {
		grouped[el.ElementType] = append(grouped[el.ElementType], el)
	}

	types := make([]string, 0, len(grouped))
	for t := range grouped {
		types = append(types, t)
	}
	sort.Strings(types)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", title)
	for _, t := range types {
		fmt.Fprintf(&b, "\n## %s\n\n", sectionTitle(t))
		for _, el := range grouped[t] {
			fmt.Fprintf(&b, "- %s\n", el.Content)
		}
	}
	return b.String(), nil
}

func sectionTitle(elementType string) string {
	switch elementType {
	case "definition":
		return "Definitions"
	case "formula":
		return "Formulas"
	case "theorem":
		return "Theorems"
	case "entity":
		return "Entities"
	case "summary":
		return "Summary"
	case "question":
		return "Questions"
	case "flashcard":
		return "Flashcards"
	default:
		return strings.ToUpper(elementType[:1]) + elementType[1:]
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.conn.Close()
}
