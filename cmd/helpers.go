package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/audit"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/casedata"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/chunkstore"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/config"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/db"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/embeddings"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/ingest"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/letter"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/llm"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/logging"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/metrics"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/protocol"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/rag"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/service"
)

// app is everything a command needs, built once from config.
type app struct {
	cfg        *config.Config
	log        *slog.Logger
	db         *db.DB
	service    *service.Service
	dispatcher *protocol.Dispatcher
	metrics    *metrics.Metrics
	activity   *audit.Store
}

func (a *app) Close() error {
	return a.db.Close()
}

// record adds a CLI call to the activity log.
func (a *app) record(ctx context.Context, method string, params map[string]any, start time.Time, err error) {
	e := audit.NewEntry(audit.TransportCLI, method, params, start, err)
	if lerr := a.activity.Log(context.WithoutCancel(ctx), e); lerr != nil {
		a.log.Warn("recording activity", "method", method, "error", lerr)
	}
}

// recorded wraps the dispatcher so every call through transport t is
// logged.
func (a *app) recorded(t audit.Transport) *audit.Recorder {
	return audit.NewRecorder(a.dispatcher, a.activity, t, a.log.With("component", "audit"))
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `legalmcp init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s:\n%w", cfgFile, err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	return logging.New(level, cfg.Log.Format, os.Stderr)
}

// openApp wires config, storage, embeddings and the LLM factory into
// a service and its dispatcher. The embedding model is probed here, so a
// bad embedding setup fails before any command runs.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg)

	database, err := db.Open(cfg.DBPath())
	if err != nil {
		return nil, err
	}
	a, err := buildApp(ctx, cfg, database, log)
	if err != nil {
		database.Close()
		return nil, err
	}
	return a, nil
}

func buildApp(ctx context.Context, cfg *config.Config, database *db.DB, log *slog.Logger) (*app, error) {
	cases, err := caseSource(cfg, database)
	if err != nil {
		return nil, err
	}
	emb, err := embeddings.Load(ctx, cfg.EmbeddingConfig(), log)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	mode, err := rag.ParseSummaryMode(cfg.Retrieval.SummaryMode)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	factory := llm.NewFactory(cfg.LLMDefaults(), config.Credentials(), cfg.LLM.RequestsPerMinute, log)
	svc, err := service.New(service.Deps{
		Cases:    cases,
		Store:    chunkstore.NewStore(database),
		Embedder: emb,
		LLM:      factory,
		RAG:      rag.Options{TopK: cfg.Retrieval.TopK, SummaryMode: mode},
		Ingest: ingest.Options{
			ChunkSize:    cfg.Chunking.ChunkSize,
			ChunkOverlap: cfg.Chunking.ChunkOverlap,
			MaxFileSize:  cfg.MaxFileSize(),
		},
		Letter:             letter.Options{Concurrency: cfg.Letter.Concurrency},
		SummarizeDocuments: cfg.Ingest.Summarize,
		Logger:             log,
		Metrics:            m,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:        cfg,
		log:        log,
		db:         database,
		service:    svc,
		dispatcher: protocol.NewDispatcher(svc, log.With("component", "protocol"), m),
		metrics:    m,
		activity:   audit.NewStore(database),
	}, nil
}

// caseSource reads case records from the configured YAML fixture, or
// from the database tables when none is set.
func caseSource(cfg *config.Config, database *db.DB) (casedata.Source, error) {
	if cfg.Storage.CasesFile != "" {
		src, err := casedata.LoadFile(cfg.Storage.CasesFile)
		if err != nil {
			return nil, fmt.Errorf("loading cases file: %w", err)
		}
		return src, nil
	}
	return casedata.NewSQLSource(database), nil
}

// addLLMFlags registers the per-request LLM override flags.
func addLLMFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "LLM provider for this request (ollama, openai, anthropic)")
	cmd.Flags().String("model", "", "model name for this request")
	cmd.Flags().String("base-url", "", "provider endpoint for this request")
	cmd.Flags().Float64("temperature", 0, "sampling temperature between 0 and 1")
}

func llmOverrides(cmd *cobra.Command) llm.Overrides {
	var o llm.Overrides
	o.Provider, _ = cmd.Flags().GetString("provider")
	o.Model, _ = cmd.Flags().GetString("model")
	o.BaseURL, _ = cmd.Flags().GetString("base-url")
	if cmd.Flags().Changed("temperature") {
		t, _ := cmd.Flags().GetFloat64("temperature")
		o.Temperature = &t
	}
	return o
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
