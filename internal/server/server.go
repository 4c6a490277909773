// Package server is the HTTP front end: the legal.* methods as JSON
// endpoints, document upload and folder ingestion, the system overview,
// a websocket dispatch channel and Prometheus metrics.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/ingest"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/llm"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/logging"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/metrics"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/service"
)

// DefaultMaxUploadBytes caps multipart uploads.
const DefaultMaxUploadBytes = 50 << 20

// Config holds server configuration.
type Config struct {
	Port           int
	AllowAll       bool // allow all CORS origins (dev mode)
	MaxUploadBytes int64
	// RequestTimeout bounds every request and every websocket call;
	// folder ingestion needs minutes.
	RequestTimeout time.Duration
	// WebSocketMaxInFlight caps concurrent calls per websocket connection.
	WebSocketMaxInFlight int
}

// DefaultWebSocketMaxInFlight is used when Config.WebSocketMaxInFlight is 0.
const DefaultWebSocketMaxInFlight = 8

// Service is what the HTTP layer needs beyond the protocol methods.
// *service.Service satisfies it.
type Service interface {
	IngestUpload(ctx context.Context, name string, data []byte, caseID string, o llm.Overrides) (*ingest.Result, error)
	IngestFolder(ctx context.Context, dir, caseID string, opts ingest.FolderOptions, o llm.Overrides, progress ingest.ProgressFunc) (*ingest.FolderResult, error)
	Overview(ctx context.Context) (*service.Overview, error)
	ListCases(ctx context.Context) ([]domain.CaseSummary, error)
	Timeline(ctx context.Context) ([]service.TimelineEntry, error)
	Providers() []service.ProviderInfo
}

// Dispatcher routes one method call. *protocol.Dispatcher satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, method string, params map[string]any) (any, error)
}

type Server struct {
	cfg        Config
	svc        Service
	dispatcher Dispatcher
	metrics    *metrics.Metrics
	log        *slog.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with all routes registered.
func New(cfg Config, svc Service, d Dispatcher, m *metrics.Metrics, log *slog.Logger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Minute
	}
	if cfg.WebSocketMaxInFlight <= 0 {
		cfg.WebSocketMaxInFlight = DefaultWebSocketMaxInFlight
	}
	s := &Server{
		cfg:        cfg,
		svc:        svc,
		dispatcher: d,
		metrics:    m,
		log:        logging.OrDefault(log),
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
		corsOpts.AllowCredentials = false
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", s.metrics.Handler())

	// The websocket is long-lived, so it stays outside the request timeout.
	r.Get("/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		s.registerRoutes(r)
	})

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.log.Info("legalmcp server listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
