// Package protocol routes legal.* method calls to the service backend.
//
// The dispatcher validates method names and required parameters before
// the backend sees anything, so a malformed call never reaches the LLM,
// the vector index or the filesystem.
package protocol

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/ingest"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/letter"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/logging"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/metrics"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/rag"
)

// CaseContext is the result of legal.get_case_context.
type CaseContext struct {
	CaseID    string       `json:"case_id"`
	Case      *domain.Case `json:"case_data"`
	Facts     string       `json:"case_facts"`
	Summary   string       `json:"rag_summary,omitempty"`
	Sources   []rag.Source `json:"sources,omitempty"`
	Documents int          `json:"documents"`
	Chunks    int          `json:"chunks"`
	// RAGError is set when the document summary failed; the case facts are
	// still returned.
	RAGError string `json:"rag_error,omitempty"`
}

// Backend performs the work behind each method.
type Backend interface {
	Query(ctx context.Context, p QueryParams) (*rag.Response, error)
	AnalyzeDocument(ctx context.Context, p AnalyzeParams) (*ingest.Result, error)
	GenerateDemandLetter(ctx context.Context, p LetterParams) (*letter.Letter, error)
	GetCaseContext(ctx context.Context, p CaseContextParams) (*CaseContext, error)
}

type Dispatcher struct {
	backend Backend
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewDispatcher(backend Backend, log *slog.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		backend: backend,
		log:     logging.OrDefault(log),
		metrics: m,
	}
}

// Dispatch decodes params for method and calls the backend. The result is
// one of *rag.Response, *ingest.Result, *letter.Letter or *CaseContext.
func (d *Dispatcher) Dispatch(ctx context.Context, method string, params map[string]any) (result any, err error) {
	start := time.Now()
	defer func() {
		d.metrics.ObserveDispatch(methodLabel(method), err)
		if err != nil {
			d.log.Warn("dispatch failed", "method", method, "duration", time.Since(start), "error", err)
			return
		}
		d.log.Debug("dispatch", "method", method, "duration", time.Since(start))
	}()

	if params == nil {
		params = map[string]any{}
	}
	a := args{method: method, m: params}

	switch method {
	case MethodQuery:
		p, err := decodeQuery(a)
		if err != nil {
			return nil, err
		}
		return d.backend.Query(ctx, p)
	case MethodAnalyzeDocument:
		p, err := decodeAnalyze(a)
		if err != nil {
			return nil, err
		}
		return d.backend.AnalyzeDocument(ctx, p)
	case MethodGenerateDemandLetter:
		p, err := decodeLetter(a)
		if err != nil {
			return nil, err
		}
		return d.backend.GenerateDemandLetter(ctx, p)
	case MethodGetCaseContext:
		p, err := decodeCaseContext(a)
		if err != nil {
			return nil, err
		}
		return d.backend.GetCaseContext(ctx, p)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownMethod, method)
	}
}

// methodLabel keeps arbitrary client method names out of metric labels.
func methodLabel(method string) string {
	if _, ok := Lookup(method); ok {
		return method
	}
	return "unknown"
}
