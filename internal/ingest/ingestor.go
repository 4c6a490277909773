// Package ingest turns case documents into embedded chunks in the chunk
// store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/chunker"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/embeddings"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/logging"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/metrics"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/walker"
)

// Generator produces the optional document summary.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Store appends a document and its chunks to a case collection.
type Store interface {
	AddDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error
}

type Options struct {
	ChunkSize    int
	ChunkOverlap int
	// MaxFileSize bounds single uploads and folder entries. 0 means
	// walker.DefaultMaxFileSize.
	MaxFileSize int64
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// Ingestor is safe for concurrent use; the store serialises writes per
// case.
type Ingestor struct {
	store    Store
	embedder embeddings.Embedder
	chunker  *chunker.Chunker
	maxSize  int64
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// New validates the chunking parameters. A zero ChunkSize selects the
// default size and, if ChunkOverlap is also zero, the default overlap.
// Otherwise ChunkOverlap is taken as given, so 0 means no overlap.
func New(store Store, embedder embeddings.Embedder, opts Options) (*Ingestor, error) {
	if opts.ChunkSize == 0 {
		opts.ChunkSize = chunker.DefaultChunkSize
		if opts.ChunkOverlap == 0 {
			opts.ChunkOverlap = chunker.DefaultChunkOverlap
		}
	}
	c, err := chunker.New(opts.ChunkSize, opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = walker.DefaultMaxFileSize
	}
	return &Ingestor{
		store:    store,
		embedder: embedder,
		chunker:  c,
		maxSize:  opts.MaxFileSize,
		log:      logging.OrDefault(opts.Logger),
		metrics:  opts.Metrics,
	}, nil
}

// Result describes one ingested document.
type Result struct {
	DocumentID string                  `json:"document_id"`
	CaseID     string                  `json:"case_id"`
	SourceName string                  `json:"source_name"`
	Format     string                  `json:"format"`
	Characters int                     `json:"characters"`
	ChunkCount int                     `json:"chunks_created"`
	Metadata   domain.DocumentMetadata `json:"metadata"`
}

// IngestFile reads path and ingests it into caseID.
func (in *Ingestor) IngestFile(ctx context.Context, path, caseID string, gen Generator) (*Result, error) {
	if err := checkCaseID(caseID); err != nil {
		return nil, err
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrIngestionFailure, path, err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrIngestionFailure, path)
	}
	if st.Size() > in.maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", domain.ErrIngestionFailure, path, st.Size(), in.maxSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrIngestionFailure, path, err)
	}
	return in.IngestBytes(ctx, filepath.Base(path), data, caseID, gen)
}

// IngestBytes ingests an in-memory document. name selects the format.
func (in *Ingestor) IngestBytes(ctx context.Context, name string, data []byte, caseID string, gen Generator) (res *Result, err error) {
	format := walker.DetectFormat(name)
	defer func() { in.metrics.ObserveIngest(format, err) }()

	if err := checkCaseID(caseID); err != nil {
		return nil, err
	}
	if int64(len(data)) > in.maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", domain.ErrIngestionFailure, name, len(data), in.maxSize)
	}

	start := time.Now()
	text, format, err := ExtractText(name, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrIngestionFailure, name, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s: no extractable text", domain.ErrIngestionFailure, name)
	}

	doc := &domain.Document{
		ID:          uuid.New().String(),
		CaseID:      caseID,
		SourceName:  name,
		Format:      format,
		Text:        text,
		ContentHash: walker.HashBytes(data),
		Metadata:    ExtractMetadata(ctx, text, gen, in.log),
	}

	spans := in.chunker.Split(text)
	texts := make([]string, len(spans))
	for i, s := range spans {
		texts[i] = s.Text
	}
	vecs, err := in.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: embedding: %w", domain.ErrIngestionFailure, name, err)
	}
	if len(vecs) != len(spans) {
		return nil, fmt.Errorf("%w: %s: embedder returned %d vectors for %d chunks",
			domain.ErrIngestionFailure, name, len(vecs), len(spans))
	}

	chunks := make([]domain.Chunk, len(spans))
	for i, s := range spans {
		chunks[i] = domain.Chunk{
			ID:        uuid.New().String(),
			Index:     s.Index,
			Text:      s.Text,
			Start:     s.Start,
			End:       s.End,
			Embedding: vecs[i],
		}
	}
	if err := in.store.AddDocument(ctx, doc, chunks); err != nil {
		return nil, fmt.Errorf("%w: %s: storing: %w", domain.ErrIngestionFailure, name, err)
	}

	in.log.Info("document ingested",
		"case_id", caseID,
		"document_id", doc.ID,
		"source", name,
		"format", format,
		"type", doc.Metadata.DocumentType,
		"chunks", len(chunks),
		"elapsed", time.Since(start),
	)
	return &Result{
		DocumentID: doc.ID,
		CaseID:     caseID,
		SourceName: name,
		Format:     format,
		Characters: len([]rune(text)),
		ChunkCount: len(chunks),
		Metadata:   doc.Metadata,
	}, nil
}

// ProgressFunc is called after each file of a folder run.
type ProgressFunc func(processed, total int, currentFile string)

// FileError records why one file of a folder run failed.
type FileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// FolderResult summarises a folder run. Succeeded + Failed == Total; on
// cancellation the files not reached are counted as failed.
type FolderResult struct {
	Folder      string      `json:"folder"`
	CaseID      string      `json:"case_id"`
	Total       int         `json:"total"`
	Succeeded   int         `json:"succeeded"`
	Failed      int         `json:"failed"`
	TotalChunks int         `json:"total_chunks"`
	Results     []Result    `json:"results"`
	Errors      []FileError `json:"errors"`
}

// FolderOptions narrows which files a folder run picks up.
type FolderOptions struct {
	Include   []string
	Exclude   []string
	Recursive bool
}

// IngestFolder ingests every supported file in dir, one at a time and in
// name order. A failing file, including one over the size limit or one
// that cannot be read, is recorded and the run continues. Only a missing
// directory or cancellation fails the whole run; on cancellation the
// partial result is returned with the error.
func (in *Ingestor) IngestFolder(ctx context.Context, dir, caseID string, gen Generator, progress ProgressFunc) (*FolderResult, error) {
	return in.IngestFolderWith(ctx, dir, caseID, gen, FolderOptions{}, progress)
}

func (in *Ingestor) IngestFolderWith(ctx context.Context, dir, caseID string, gen Generator, opts FolderOptions, progress ProgressFunc) (*FolderResult, error) {
	if err := checkCaseID(caseID); err != nil {
		return nil, err
	}
	files, err := walker.Walk(walker.WalkerConfig{
		RootDir:      dir,
		Include:      opts.Include,
		Exclude:      opts.Exclude,
		Recursive:    opts.Recursive,
		MaxFileSize:  in.maxSize,
		KeepRejected: true,
	})
	if err != nil {
		if errors.Is(err, walker.ErrNotDirectory) {
			return nil, fmt.Errorf("%w: folder %s: %w", domain.ErrNotFound, dir, err)
		}
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	res := &FolderResult{
		Folder:  dir,
		CaseID:  caseID,
		Total:   len(files),
		Results: []Result{},
		Errors:  []FileError{},
	}
	in.log.Info("ingesting folder", "folder", dir, "case_id", caseID, "files", len(files))

	fail := func(f walker.FileInfo, err error) {
		res.Failed++
		res.Errors = append(res.Errors, FileError{File: f.RelPath, Error: err.Error()})
		in.log.Warn("file ingestion failed", "file", f.RelPath, "error", err)
	}

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			for _, rest := range files[i:] {
				fail(rest, fmt.Errorf("%w: not processed: %w", domain.ErrIngestionFailure, err))
			}
			return res, err
		}
		var (
			r   *Result
			err error
		)
		if f.Err != nil {
			err = fmt.Errorf("%w: %s: %w", domain.ErrIngestionFailure, f.RelPath, f.Err)
		} else {
			r, err = in.IngestFile(ctx, f.Path, caseID, gen)
		}
		if err != nil {
			fail(f, err)
		} else {
			res.Succeeded++
			res.TotalChunks += r.ChunkCount
			res.Results = append(res.Results, *r)
		}
		if progress != nil {
			progress(i+1, len(files), f.RelPath)
		}
	}

	in.log.Info("folder ingested",
		"folder", dir,
		"case_id", caseID,
		"succeeded", res.Succeeded,
		"failed", res.Failed,
		"chunks", res.TotalChunks,
	)
	return res, nil
}

func checkCaseID(caseID string) error {
	if strings.TrimSpace(caseID) == "" {
		return fmt.Errorf("%w: %w: case id is required", domain.ErrIngestionFailure, domain.ErrInvalidInput)
	}
	return nil
}
