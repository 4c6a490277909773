package embeddings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	chromem "github.com/philippgille/chromem-go"
)

// Embedder maps text to fixed-length vectors. Implementations are
// deterministic for a given model and safe for concurrent use.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"
)

// Config selects and parameterises an embedding backend.
type Config struct {
	Provider   string
	Model      string
	Dimensions int
	BaseURL    string
	APIKey     string
}

// New constructs the configured embedder without contacting it.
func New(cfg Config) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderOllama:
		if cfg.Model == "" {
			return nil, fmt.Errorf("embeddings: ollama requires a model name")
		}
		return NewOllamaEmbedder(cfg.Model, cfg.Dimensions, cfg.BaseURL), nil
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embeddings: openai requires an API key")
		}
		return NewOpenAIEmbedder(cfg.APIKey, cfg.Model, cfg.Dimensions, cfg.BaseURL), nil
	case ProviderLocal, "":
		return NewHashEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("embeddings: unsupported provider %q", cfg.Provider)
	}
}

const warmupText = "warm-up"

// Load builds the embedder once for the life of the process and probes it
// with a single embedding. Any error here should abort startup.
func Load(ctx context.Context, cfg Config, log *slog.Logger) (Embedder, error) {
	if log == nil {
		log = slog.Default()
	}
	e, err := New(cfg)
	if err != nil {
		return nil, err
	}

	vecs, err := e.Embed(ctx, []string{warmupText})
	if err != nil {
		return nil, fmt.Errorf("embeddings: load %s: %w", e.Name(), err)
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("embeddings: load %s: empty warm-up vector", e.Name())
	}
	if want := e.Dimensions(); want > 0 && len(vecs[0]) != want {
		return nil, fmt.Errorf("embeddings: %s produced %d dimensions, configured for %d", e.Name(), len(vecs[0]), want)
	}

	log.Info("embedding model loaded", "model", e.Name(), "dimensions", len(vecs[0]))
	return e, nil
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embeddings: %s returned %d vectors for 1 text", e.Name(), len(vecs))
	}
	return vecs[0], nil
}

// ToChromemFunc adapts e to chromem-go's embedding callback.
func ToChromemFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return EmbedOne(ctx, e, text)
	}
}
