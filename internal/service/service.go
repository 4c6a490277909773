// Package service wires the retrieval engine, the ingestor, the letter
// assembler and the LLM factory into the protocol backend. HTTP, MCP and
// the CLI all go through it.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/casedata"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/chunkstore"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/embeddings"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/ingest"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/letter"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/llm"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/logging"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/metrics"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/protocol"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/rag"
)

// CaseSummaryQuery is the retrieval query behind legal.get_case_context.
const CaseSummaryQuery = "Provide comprehensive case summary and key facts"

// Deps are the collaborators a Service is built from.
type Deps struct {
	Cases    casedata.Source
	Store    *chunkstore.Store
	Embedder embeddings.Embedder
	LLM      *llm.Factory

	RAG    rag.Options
	Ingest ingest.Options
	Letter letter.Options

	// SummarizeDocuments asks the model for a short summary of every
	// ingested document.
	SummarizeDocuments bool

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Service implements protocol.Backend.
type Service struct {
	cases     casedata.Source
	store     *chunkstore.Store
	llm       *llm.Factory
	engine    *rag.Engine
	ingestor  *ingest.Ingestor
	letters   *letter.Assembler
	summarize bool
	log       *slog.Logger
	metrics   *metrics.Metrics
}

var _ protocol.Backend = (*Service)(nil)

func New(d Deps) (*Service, error) {
	switch {
	case d.Cases == nil:
		return nil, fmt.Errorf("%w: service needs a case source", domain.ErrConfiguration)
	case d.Store == nil:
		return nil, fmt.Errorf("%w: service needs a chunk store", domain.ErrConfiguration)
	case d.Embedder == nil:
		return nil, fmt.Errorf("%w: service needs an embedder", domain.ErrConfiguration)
	case d.LLM == nil:
		return nil, fmt.Errorf("%w: service needs an LLM factory", domain.ErrConfiguration)
	}
	log := logging.OrDefault(d.Logger)

	ro := d.RAG
	ro.Logger, ro.Metrics = log.With("component", "rag"), d.Metrics
	engine := rag.NewEngine(d.Store, d.Cases, d.Embedder, ro)

	io := d.Ingest
	io.Logger, io.Metrics = log.With("component", "ingest"), d.Metrics
	ingestor, err := ingest.New(d.Store, d.Embedder, io)
	if err != nil {
		return nil, err
	}

	lo := d.Letter
	lo.Logger = log.With("component", "letter")

	return &Service{
		cases:     d.Cases,
		store:     d.Store,
		llm:       d.LLM,
		engine:    engine,
		ingestor:  ingestor,
		letters:   letter.New(d.Cases, engine, lo),
		summarize: d.SummarizeDocuments,
		log:       log,
		metrics:   d.Metrics,
	}, nil
}

// Engine exposes the retrieval engine.
func (s *Service) Engine() *rag.Engine { return s.engine }

// generator resolves the per-request gateway. Configuration errors surface
// here, before any retrieval or ingestion work starts.
func (s *Service) generator(o llm.Overrides) (*meteredGenerator, error) {
	gw, err := s.llm.Gateway(o)
	if err != nil {
		return nil, err
	}
	return &meteredGenerator{gw: gw, metrics: s.metrics}, nil
}

func (s *Service) Query(ctx context.Context, p protocol.QueryParams) (*rag.Response, error) {
	gen, err := s.generator(p.LLM)
	if err != nil {
		return nil, err
	}
	scope := p.CaseID
	if rag.IsSystemScope(scope) {
		scope = rag.SystemScope
	}
	return s.engine.Query(ctx, gen, p.Query, scope, p.Context)
}

func (s *Service) AnalyzeDocument(ctx context.Context, p protocol.AnalyzeParams) (*ingest.Result, error) {
	gen, err := s.ingestGenerator(p.LLM)
	if err != nil {
		return nil, err
	}
	return s.ingestor.IngestFile(ctx, p.FilePath, p.CaseID, gen)
}

// IngestUpload ingests an in-memory file, as received by the upload
// endpoint.
func (s *Service) IngestUpload(ctx context.Context, name string, data []byte, caseID string, o llm.Overrides) (*ingest.Result, error) {
	gen, err := s.ingestGenerator(o)
	if err != nil {
		return nil, err
	}
	return s.ingestor.IngestBytes(ctx, name, data, caseID, gen)
}

// IngestFolder ingests every supported file under dir into caseID.
func (s *Service) IngestFolder(ctx context.Context, dir, caseID string, opts ingest.FolderOptions, o llm.Overrides, progress ingest.ProgressFunc) (*ingest.FolderResult, error) {
	gen, err := s.ingestGenerator(o)
	if err != nil {
		return nil, err
	}
	return s.ingestor.IngestFolderWith(ctx, dir, caseID, gen, opts, progress)
}

// ingestGenerator returns a nil interface when document summaries are off,
// so the ingestor skips the model entirely.
func (s *Service) ingestGenerator(o llm.Overrides) (ingest.Generator, error) {
	if !s.summarize {
		return nil, nil
	}
	gen, err := s.generator(o)
	if err != nil {
		return nil, err
	}
	return gen, nil
}

func (s *Service) GenerateDemandLetter(ctx context.Context, p protocol.LetterParams) (*letter.Letter, error) {
	gen, err := s.generator(p.LLM)
	if err != nil {
		return nil, err
	}
	return s.letters.Assemble(ctx, letter.Request{
		CaseID:       p.CaseID,
		TemplateType: p.TemplateType,
		Extra:        p.AdditionalContext,
		Generator:    gen,
	})
}

func (s *Service) GetCaseContext(ctx context.Context, p protocol.CaseContextParams) (*protocol.CaseContext, error) {
	gen, err := s.generator(p.LLM)
	if err != nil {
		return nil, err
	}
	caseID := strings.TrimSpace(p.CaseID)
	c, err := s.cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("case %s: %w", caseID, err)
	}

	out := &protocol.CaseContext{
		CaseID: caseID,
		Case:   c,
		Facts:  rag.FormatCaseFacts(c),
	}
	stats, err := s.store.Stats(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if len(stats) == 1 {
		out.Documents, out.Chunks = stats[0].Documents, stats[0].Chunks
	}

	resp, err := s.engine.Query(ctx, gen, CaseSummaryQuery, caseID, nil)
	if err != nil {
		s.log.Warn("case summary failed", "case_id", caseID, "error", err)
		out.RAGError = err.Error()
		var ge *domain.GenerationError
		if errors.As(err, &ge) {
			out.Sources = rag.SourcesOf(ge.Context.Retrieved)
		}
		return out, nil
	}
	out.Summary = resp.Answer
	out.Sources = resp.Sources
	return out, nil
}

// Case returns one case record.
func (s *Service) Case(ctx context.Context, caseID string) (*domain.Case, error) {
	return s.cases.GetCase(ctx, strings.TrimSpace(caseID))
}

// ListCases returns a summary of every case ordered by case id.
func (s *Service) ListCases(ctx context.Context) ([]domain.CaseSummary, error) {
	summaries, err := s.cases.ListCases(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}
	if summaries == nil {
		summaries = []domain.CaseSummary{}
	}
	return summaries, nil
}

// TimelineEntry is one dated event of the cross-case timeline.
type TimelineEntry struct {
	CaseID      string     `json:"case_id"`
	CaseType    string     `json:"case_type"`
	EventDate   *time.Time `json:"event_date,omitempty"`
	Description string     `json:"description"`
}

// Timeline lists the events of every case in date order. Undated events
// sort last; ties keep case id order.
func (s *Service) Timeline(ctx context.Context) ([]TimelineEntry, error) {
	summaries, err := s.ListCases(ctx)
	if err != nil {
		return nil, err
	}
	out := []TimelineEntry{}
	for _, sum := range summaries {
		c, err := s.cases.GetCase(ctx, sum.CaseID)
		if err != nil {
			return nil, fmt.Errorf("loading case %s: %w", sum.CaseID, err)
		}
		for _, ev := range c.Events {
			out = append(out, TimelineEntry{
				CaseID:      c.CaseID,
				CaseType:    c.CaseType,
				EventDate:   ev.EventDate,
				Description: ev.Description,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].EventDate, out[j].EventDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(*b)
	})
	return out, nil
}

// Overview is the system-wide rollup with document counts per case.
type Overview struct {
	Aggregate domain.Aggregate       `json:"aggregate"`
	Report    string                 `json:"report"`
	Documents []chunkstore.CaseStats `json:"documents"`
}

// Overview computes the system aggregate without calling the model.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	summaries, err := s.cases.ListCases(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}
	agg := casedata.Aggregate(summaries)
	stats, err := s.store.Stats(ctx, "")
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []chunkstore.CaseStats{}
	}
	return &Overview{Aggregate: agg, Report: rag.FormatAggregate(agg), Documents: stats}, nil
}

// ProviderInfo is one entry of the provider listing.
type ProviderInfo struct {
	llm.ProviderSpec
	Default    bool `json:"default"`
	Configured bool `json:"configured"`
}

// Providers lists the supported LLM providers, marking the process
// default and whether each has what it needs to run.
func (s *Service) Providers() []ProviderInfo {
	def := s.llm.Defaults().Provider
	specs := llm.Catalog()
	out := make([]ProviderInfo, len(specs))
	for i, spec := range specs {
		cfg := s.llm.Resolve(llm.Overrides{Provider: string(spec.Name)})
		out[i] = ProviderInfo{
			ProviderSpec: spec,
			Default:      spec.Name == def,
			Configured:   cfg.Validate() == nil,
		}
	}
	return out
}

// meteredGenerator counts generations per provider and outcome.
type meteredGenerator struct {
	gw      *llm.Gateway
	metrics *metrics.Metrics
}

func (g *meteredGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := g.gw.Generate(ctx, prompt)
	g.metrics.ObserveGeneration(string(g.gw.Config().Provider), err)
	return out, err
}
