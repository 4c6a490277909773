// Package metrics exposes pipeline counters in Prometheus format.
//
// Every method is safe on a nil *Metrics, so components can be built
// without instrumentation.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
)

const namespace = "legalmcp"

// Metrics owns a private registry so several instances can coexist in
// one process (tests, embedded servers).
type Metrics struct {
	registry     *prometheus.Registry
	dispatches   *prometheus.CounterVec
	ingested     *prometheus.CounterVec
	generations  *prometheus.CounterVec
	queryLatency *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Protocol calls by method and outcome.",
		}, []string{"method", "outcome"}),
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_ingested_total",
			Help:      "Documents processed by format and outcome.",
		}, []string{"format", "outcome"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "LLM generations by provider and outcome.",
		}, []string{"provider", "outcome"}),
		queryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "End-to-end retrieval query latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"scope"}),
	}
	m.registry.MustRegister(
		m.dispatches,
		m.ingested,
		m.generations,
		m.queryLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Outcome classifies an error into a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUnknownMethod), errors.Is(err, domain.ErrMissingParameter),
		errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrConfiguration):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrProviderUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

func (m *Metrics) ObserveDispatch(method string, err error) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(method, Outcome(err)).Inc()
}

func (m *Metrics) ObserveIngest(format string, err error) {
	if m == nil {
		return
	}
	m.ingested.WithLabelValues(format, Outcome(err)).Inc()
}

func (m *Metrics) ObserveGeneration(provider string, err error) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(provider, Outcome(err)).Inc()
}

func (m *Metrics) ObserveQuery(scope domain.ScopeKind, d time.Duration) {
	if m == nil {
		return
	}
	m.queryLatency.WithLabelValues(string(scope)).Observe(d.Seconds())
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
