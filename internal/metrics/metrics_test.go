package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{&domain.ParamError{Method: "legal.query", Param: "query"}, "invalid"},
		{fmt.Errorf("x: %w", domain.ErrUnknownMethod), "invalid"},
		{fmt.Errorf("case: %w", domain.ErrNotFound), "not_found"},
		{fmt.Errorf("ollama/mistral: %w", domain.ErrProviderUnavailable), "unavailable"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		if got := Outcome(tt.err); got != tt.want {
			t.Errorf("Outcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveDispatch("legal.query", nil)
	m.ObserveDispatch("legal.query", nil)
	m.ObserveDispatch("legal.nope", domain.ErrUnknownMethod)
	m.ObserveIngest("pdf", nil)
	m.ObserveGeneration("ollama", domain.ErrProviderUnavailable)
	m.ObserveQuery(domain.ScopeCase, 120*time.Millisecond)

	if got := testutil.ToFloat64(m.dispatches.WithLabelValues("legal.query", "ok")); got != 2 {
		t.Errorf("expected 2 ok dispatches, got %v", got)
	}
	if got := testutil.ToFloat64(m.dispatches.WithLabelValues("legal.nope", "invalid")); got != 1 {
		t.Errorf("expected 1 invalid dispatch, got %v", got)
	}
	if got := testutil.ToFloat64(m.generations.WithLabelValues("ollama", "unavailable")); got != 1 {
		t.Errorf("expected 1 unavailable generation, got %v", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveIngest("txt", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `legalmcp_documents_ingested_total{format="txt",outcome="ok"} 1`) {
		t.Errorf("metric missing from exposition:\n%s", body)
	}
}

func TestNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveDispatch("legal.query", nil)
	m.ObserveIngest("pdf", nil)
	m.ObserveGeneration("openai", nil)
	m.ObserveQuery(domain.ScopeSystem, time.Second)
	if m.Registry() != nil {
		t.Error("nil metrics should have no registry")
	}
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
