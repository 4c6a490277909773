// Package rag answers questions over a case's ingested documents, or over
// the whole case database when the query is system scoped.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/casedata"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/embeddings"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/logging"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/metrics"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/vectordb"
)

// DefaultTopK is the number of chunks retrieved per case query.
const DefaultTopK = 5

// SystemScope is the scope value that selects the all-cases aggregate.
const SystemScope = "system"

// SummaryMode controls how system-scope answers are produced.
type SummaryMode string

const (
	SummaryDeterministic SummaryMode = "deterministic"
	SummaryLLM           SummaryMode = "llm"
)

// ParseSummaryMode accepts the config spelling. Empty means deterministic.
func ParseSummaryMode(s string) (SummaryMode, error) {
	switch SummaryMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SummaryDeterministic:
		return SummaryDeterministic, nil
	case SummaryLLM:
		return SummaryLLM, nil
	}
	return "", fmt.Errorf("%w: unknown summary mode %q", domain.ErrConfiguration, s)
}

// Generator produces text from a prompt. *llm.Gateway satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChunkSource returns a case's stored chunks in ingestion order.
type ChunkSource interface {
	Chunks(ctx context.Context, caseID string) ([]domain.Chunk, error)
}

type Options struct {
	TopK        int
	SummaryMode SummaryMode
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// Engine is safe for concurrent use. It holds no per-query state.
type Engine struct {
	chunks   ChunkSource
	cases    casedata.Source
	embedder embeddings.Embedder
	topK     int
	mode     SummaryMode
	log      *slog.Logger
	metrics  *metrics.Metrics
}

func NewEngine(chunks ChunkSource, cases casedata.Source, embedder embeddings.Embedder, opts Options) *Engine {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.SummaryMode == "" {
		opts.SummaryMode = SummaryDeterministic
	}
	return &Engine{
		chunks:   chunks,
		cases:    cases,
		embedder: embedder,
		topK:     opts.TopK,
		mode:     opts.SummaryMode,
		log:      logging.OrDefault(opts.Logger),
		metrics:  opts.Metrics,
	}
}

// Source identifies one retrieved chunk in a response.
type Source struct {
	DocumentID string  `json:"document_id"`
	SourceName string  `json:"source_name"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float32 `json:"score"`
	Excerpt    string  `json:"excerpt"`
}

// Response is the answer together with what it was built from.
type Response struct {
	Answer  string              `json:"answer"`
	Sources []Source            `json:"sources"`
	Context domain.QueryContext `json:"context_used"`
}

// IsSystemScope reports whether scope selects the all-cases aggregate.
func IsSystemScope(scope string) bool {
	s := strings.TrimSpace(scope)
	return s == "" || strings.EqualFold(s, SystemScope)
}

// Query answers text within scope. extra is caller-supplied context that
// is passed to the model verbatim.
//
// When the model fails after context was assembled, the error is a
// *domain.GenerationError carrying that context.
func (e *Engine) Query(ctx context.Context, gen Generator, text, scope string, extra map[string]any) (*Response, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidInput)
	}

	kind := domain.ScopeCase
	if IsSystemScope(scope) {
		kind = domain.ScopeSystem
	}
	start := time.Now()
	defer func() { e.metrics.ObserveQuery(kind, time.Since(start)) }()

	if kind == domain.ScopeSystem {
		return e.querySystem(ctx, gen, text, extra)
	}
	return e.queryCase(ctx, gen, text, strings.TrimSpace(scope), extra)
}

func (e *Engine) queryCase(ctx context.Context, gen Generator, text, caseID string, extra map[string]any) (*Response, error) {
	qc := domain.QueryContext{Kind: domain.ScopeCase, CaseID: caseID}

	c, err := e.cases.GetCase(ctx, caseID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		e.log.Debug("no case record, answering from documents only", "case_id", caseID)
	case err != nil:
		return nil, fmt.Errorf("loading case %s: %w", caseID, err)
	default:
		qc.Case = c
	}

	chunks, err := e.chunks.Chunks(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("loading chunks for %s: %w", caseID, err)
	}
	if len(chunks) == 0 {
		e.log.Info("no documents ingested, answering from case record", "case_id", caseID)
		return &Response{
			Answer:  contextOnlyAnswer(text, c, extra),
			Sources: []Source{},
			Context: qc,
		}, nil
	}

	ix, err := vectordb.Build(ctx, chunks, vectordb.WithQueryEmbedder(embeddings.ToChromemFunc(e.embedder)))
	if err != nil {
		return nil, fmt.Errorf("indexing %s: %w", caseID, err)
	}
	hits, err := ix.SearchText(ctx, text, e.topK, &vectordb.SearchFilter{CaseID: caseID})
	if err != nil {
		return nil, fmt.Errorf("retrieving for %s: %w", caseID, err)
	}
	qc.Retrieved = hits
	e.log.Debug("retrieved chunks", "case_id", caseID, "k", e.topK, "indexed", ix.Len(), "results", len(hits))

	answer, err := e.generate(ctx, gen, casePrompt(text, c, hits, extra))
	if err != nil {
		return nil, &domain.GenerationError{Context: qc, Err: err}
	}
	return &Response{Answer: answer, Sources: SourcesOf(hits), Context: qc}, nil
}

func (e *Engine) querySystem(ctx context.Context, gen Generator, text string, extra map[string]any) (*Response, error) {
	summaries, err := e.cases.ListCases(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}
	agg := casedata.Aggregate(summaries)
	qc := domain.QueryContext{Kind: domain.ScopeSystem, Aggregate: &agg}
	overview := FormatAggregate(agg)

	if e.mode != SummaryLLM {
		return &Response{Answer: overview, Sources: []Source{}, Context: qc}, nil
	}

	answer, err := e.generate(ctx, gen, systemPrompt(text, overview, extra))
	if err != nil {
		return nil, &domain.GenerationError{Context: qc, Err: err}
	}
	return &Response{Answer: answer, Sources: []Source{}, Context: qc}, nil
}

func (e *Engine) generate(ctx context.Context, gen Generator, prompt string) (string, error) {
	if gen == nil {
		return "", fmt.Errorf("%w: no language model configured", domain.ErrConfiguration)
	}
	answer, err := gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

const excerptLen = 200

// SourcesOf converts retrieved chunks into response sources with short
// excerpts.
func SourcesOf(hits []domain.ScoredChunk) []Source {
	out := make([]Source, len(hits))
	for i, h := range hits {
		excerpt := []rune(h.Chunk.Text)
		if len(excerpt) > excerptLen {
			excerpt = append(excerpt[:excerptLen], '.', '.', '.')
		}
		out[i] = Source{
			DocumentID: h.Chunk.DocumentID,
			SourceName: h.Chunk.SourceName,
			ChunkIndex: h.Chunk.Index,
			Score:      h.Score,
			Excerpt:    string(excerpt),
		}
	}
	return out
}
