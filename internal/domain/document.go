package domain

import "time"

// Document is one ingested source file attached to a case.
type Document struct {
	ID          string           `json:"document_id"`
	CaseID      string           `json:"case_id"`
	SourceName  string           `json:"source_name"`
	Format      string           `json:"format"`
	Text        string           `json:"-"`
	Metadata    DocumentMetadata `json:"metadata"`
	ContentHash string           `json:"content_hash,omitempty"`
	ChunkCount  int              `json:"chunk_count"`
	IngestedAt  time.Time        `json:"ingested_at"`
}

// DocumentMetadata is best-effort enrichment. Any field may be empty.
type DocumentMetadata struct {
	DocumentType string   `json:"document_type"`
	Parties      []string `json:"parties,omitempty"`
	Amounts      []string `json:"amounts,omitempty"`
	Dates        []string `json:"dates,omitempty"`
	Citations    []string `json:"citations,omitempty"`
	Summary      string   `json:"summary,omitempty"`
}

// Chunk is an immutable span of a document's text with its embedding.
// Start and End are rune offsets into the document text.
type Chunk struct {
	ID         string    `json:"chunk_id"`
	DocumentID string    `json:"document_id"`
	CaseID     string    `json:"case_id"`
	SourceName string    `json:"source_name,omitempty"`
	Index      int       `json:"index"`
	Text       string    `json:"text"`
	Start      int       `json:"start"`
	End        int       `json:"end"`
	Embedding  []float32 `json:"-"`
}

// ScoredChunk pairs a chunk with its similarity to a query.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float32 `json:"score"`
}
