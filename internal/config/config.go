package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/embeddings"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/llm"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/logging"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/rag"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (LEGALMCP_*). A missing file is not an
// error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: LEGALMCP_LLM__PROVIDER -> llm.provider.
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validEmbeddingProviders is the set of recognized embedding backends.
var validEmbeddingProviders = map[string]bool{
	embeddings.ProviderOllama: true,
	embeddings.ProviderOpenAI: true,
	embeddings.ProviderLocal:  true,
}

// Validate checks that the configuration contains valid values. Every
// problem is reported, each wrapping domain.ErrConfiguration.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{domain.ErrConfiguration}, args...)...))
	}

	if c.LLM.Provider == "" {
		bad("llm.provider is required")
	} else if _, ok := llm.Lookup(llm.ProviderTag(strings.ToLower(c.LLM.Provider))); !ok {
		bad("invalid llm.provider %q: must be one of ollama, openai, anthropic", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		bad("llm.temperature %.2f outside [0, 1]", c.LLM.Temperature)
	}
	if c.LLM.MaxTokens < 0 {
		bad("llm.max_tokens must be non-negative")
	}
	if c.LLM.RequestsPerMinute < 0 {
		bad("llm.requests_per_minute must be non-negative")
	}

	if !validEmbeddingProviders[strings.ToLower(c.Embeddings.Provider)] {
		bad("invalid embeddings.provider %q: must be one of ollama, openai, local", c.Embeddings.Provider)
	}
	if c.Embeddings.Dimensions < 0 {
		bad("embeddings.dimensions must be non-negative")
	}

	if c.Chunking.ChunkSize <= 0 {
		bad("chunking.chunk_size must be positive")
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		bad("chunking.chunk_overlap %d must be in [0, chunk_size)", c.Chunking.ChunkOverlap)
	}
	if c.Retrieval.TopK <= 0 {
		bad("retrieval.top_k must be positive")
	}
	if _, err := rag.ParseSummaryMode(c.Retrieval.SummaryMode); err != nil {
		errs = append(errs, err)
	}
	if c.Letter.Concurrency < 0 {
		bad("letter.concurrency must be non-negative")
	}
	if c.Ingest.MaxFileSizeMB < 0 {
		bad("ingest.max_file_size_mb must be non-negative")
	}

	if c.Storage.DataDir == "" {
		bad("storage.data_dir is required")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		bad("server.port %d out of range", c.Server.Port)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		bad("log.level: %v", err)
	}

	return errors.Join(errs...)
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider string) string {
	switch llm.ProviderTag(strings.ToLower(provider)) {
	case llm.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case llm.ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// Credentials reads every provider's API key from the environment.
func Credentials() map[llm.ProviderTag]string {
	out := map[llm.ProviderTag]string{}
	for _, spec := range llm.Catalog() {
		if v := APIKeyEnvVar(string(spec.Name)); v != "" {
			if key := os.Getenv(v); key != "" {
				out[spec.Name] = key
			}
		}
	}
	return out
}

// LLMDefaults is the process default generation config, without a key.
func (c *Config) LLMDefaults() llm.Config {
	return llm.Config{
		Provider:    llm.ProviderTag(strings.ToLower(c.LLM.Provider)),
		Model:       c.LLM.Model,
		BaseURL:     c.LLM.BaseURL,
		Temperature: c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
	}
}

// EmbeddingConfig is the embedder config with its key from the
// environment.
func (c *Config) EmbeddingConfig() embeddings.Config {
	return embeddings.Config{
		Provider:   strings.ToLower(c.Embeddings.Provider),
		Model:      c.Embeddings.Model,
		Dimensions: c.Embeddings.Dimensions,
		BaseURL:    c.Embeddings.BaseURL,
		APIKey:     os.Getenv(APIKeyEnvVar(c.Embeddings.Provider)),
	}
}

// DBPath is the SQLite database inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.Storage.DataDir, "legalmcp.db")
}

// MaxFileSize is ingest.max_file_size_mb in bytes.
func (c *Config) MaxFileSize() int64 {
	return int64(c.Ingest.MaxFileSizeMB) << 20
}
