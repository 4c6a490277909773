// Package chunkstore persists each case's ingested documents and chunks.
// Writes to one case are serialised; reads of that case wait for any
// write in progress so they always see whole documents.
package chunkstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/db"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
)

// Store provides append-only access to case chunk collections.
type Store struct {
	db *db.DB

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, locks: make(map[string]*sync.RWMutex)}
}

func (s *Store) caseLock(caseID string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[caseID]
	if !ok {
		l = &sync.RWMutex{}
		s.locks[caseID] = l
	}
	return l
}

// AddDocument appends a document and its chunks to the case collection in
// one transaction. Existing rows are never touched. Missing ids are
// generated.
func (s *Store) AddDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if doc.CaseID == "" {
		return fmt.Errorf("%w: document has no case id", domain.ErrInvalidInput)
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.IngestedAt.IsZero() {
		doc.IngestedAt = time.Now().UTC()
	}
	doc.ChunkCount = len(chunks)

	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling document metadata: %w", err)
	}

	l := s.caseLock(doc.CaseID)
	l.Lock()
	defer l.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, case_id, source_name, format, content_hash, metadata, char_count, chunk_count, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.CaseID, doc.SourceName, doc.Format, doc.ContentHash, string(meta),
		len([]rune(doc.Text)), doc.ChunkCount, doc.IngestedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, case_id, seq, text, start_offset, end_offset, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		c := &chunks[i]
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		c.DocumentID = doc.ID
		c.CaseID = doc.CaseID
		c.SourceName = doc.SourceName
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.CaseID, c.Index, c.Text, c.Start, c.End, encodeVector(c.Embedding)); err != nil {
			return fmt.Errorf("inserting chunk %d: %w", c.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing document: %w", err)
	}
	return nil
}

// Chunks returns every chunk of a case in ingestion order.
func (s *Store) Chunks(ctx context.Context, caseID string) ([]domain.Chunk, error) {
	l := s.caseLock(caseID)
	l.RLock()
	defer l.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.document_id, c.case_id, d.source_name, c.seq, c.text, c.start_offset, c.end_offset, c.embedding
		FROM chunks c JOIN documents d ON d.id = c.document_id
		WHERE c.case_id = ?
		ORDER BY c.rowid`, caseID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var out []domain.Chunk
	for rows.Next() {
		var (
			c    domain.Chunk
			blob []byte
		)
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.CaseID, &c.SourceName, &c.Index, &c.Text, &c.Start, &c.End, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if c.Embedding, err = decodeVector(blob); err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Documents lists a case's documents, oldest first.
func (s *Store) Documents(ctx context.Context, caseID string) ([]domain.Document, error) {
	l := s.caseLock(caseID)
	l.RLock()
	defer l.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, source_name, format, content_hash, metadata, chunk_count, ingested_at
		FROM documents WHERE case_id = ?
		ORDER BY rowid`, caseID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var out []domain.Document
	for rows.Next() {
		var (
			d        domain.Document
			meta     string
			ingested string
		)
		if err := rows.Scan(&d.ID, &d.CaseID, &d.SourceName, &d.Format, &d.ContentHash, &meta, &d.ChunkCount, &ingested); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if err := json.Unmarshal([]byte(meta), &d.Metadata); err != nil {
			return nil, fmt.Errorf("document %s metadata: %w", d.ID, err)
		}
		d.IngestedAt, _ = time.Parse(time.RFC3339Nano, ingested)
		out = append(out, d)
	}
	return out, rows.Err()
}

// CaseStats summarises one case's collection.
type CaseStats struct {
	CaseID    string `json:"case_id"`
	Documents int    `json:"documents"`
	Chunks    int    `json:"chunks"`
}

// Stats returns document and chunk counts per case. An empty caseID
// reports every case.
func (s *Store) Stats(ctx context.Context, caseID string) ([]CaseStats, error) {
	query := `SELECT case_id, COUNT(*), COALESCE(SUM(chunk_count), 0) FROM documents`
	var args []any
	if caseID != "" {
		query += ` WHERE case_id = ?`
		args = append(args, caseID)
	}
	query += ` GROUP BY case_id ORDER BY case_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	defer rows.Close()

	var out []CaseStats
	for rows.Next() {
		var cs CaseStats
		if err := rows.Scan(&cs.CaseID, &cs.Documents, &cs.Chunks); err != nil {
			return nil, fmt.Errorf("scanning stats: %w", err)
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

// CountChunks returns the number of chunks stored for a case.
func (s *Store) CountChunks(ctx context.Context, caseID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE case_id = ?`, caseID).Scan(&n)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}
