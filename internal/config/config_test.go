package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/llm"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.LLM.Provider != "ollama" || cfg.LLM.Model != "mistral" {
		t.Errorf("default llm = %s/%s, want ollama/mistral", cfg.LLM.Provider, cfg.LLM.Model)
	}
	if cfg.LLM.BaseURL != "http://localhost:11434" {
		t.Errorf("default base_url = %q", cfg.LLM.BaseURL)
	}
	if cfg.Embeddings.Model != "all-minilm" || cfg.Embeddings.Dimensions != 384 {
		t.Errorf("default embeddings = %+v", cfg.Embeddings)
	}
	if cfg.Chunking.ChunkSize != 1000 || cfg.Chunking.ChunkOverlap != 200 {
		t.Errorf("default chunking = %+v", cfg.Chunking)
	}
	if cfg.Retrieval.TopK != 5 || cfg.Retrieval.SummaryMode != "deterministic" {
		t.Errorf("default retrieval = %+v", cfg.Retrieval)
	}
	if cfg.Letter.Concurrency != 4 {
		t.Errorf("default letter concurrency = %d", cfg.Letter.Concurrency)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("default port = %d", cfg.Server.Port)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", DefaultFile)

	original := DefaultConfig()
	original.LLM.Provider = "openai"
	original.LLM.Model = "gpt-4o"
	original.LLM.Temperature = 0.3
	original.Ingest.Exclude = []string{"drafts/**", "*.tmp"}
	original.Storage.CasesFile = "cases.yaml"

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify round-trip.
	if loaded.LLM != original.LLM {
		t.Errorf("llm: got %+v, want %+v", loaded.LLM, original.LLM)
	}
	if loaded.Storage != original.Storage {
		t.Errorf("storage: got %+v, want %+v", loaded.Storage, original.Storage)
	}
	if len(loaded.Ingest.Exclude) != 2 || loaded.Ingest.Exclude[1] != "*.tmp" {
		t.Errorf("exclude: got %v", loaded.Ingest.Exclude)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("expected default provider, got %q", cfg.LLM.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("LEGALMCP_LLM__PROVIDER", "anthropic")
	t.Setenv("LEGALMCP_CHUNKING__CHUNK_SIZE", "600")
	t.Setenv("LEGALMCP_SERVER__PORT", "9090")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.LLM.Provider != "anthropic" {
		t.Errorf("env override failed: got %q, want anthropic", loaded.LLM.Provider)
	}
	if loaded.Chunking.ChunkSize != 600 {
		t.Errorf("chunk_size = %d, want 600", loaded.Chunking.ChunkSize)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", loaded.Server.Port)
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.LLM.Provider = "google" }},
		{"empty provider", func(c *Config) { c.LLM.Provider = "" }},
		{"temperature above one", func(c *Config) { c.LLM.Temperature = 1.5 }},
		{"negative temperature", func(c *Config) { c.LLM.Temperature = -0.1 }},
		{"unknown embeddings", func(c *Config) { c.Embeddings.Provider = "cohere" }},
		{"overlap equals size", func(c *Config) { c.Chunking.ChunkOverlap = c.Chunking.ChunkSize }},
		{"zero chunk size", func(c *Config) { c.Chunking.ChunkSize = 0 }},
		{"zero top_k", func(c *Config) { c.Retrieval.TopK = 0 }},
		{"bad summary mode", func(c *Config) { c.Retrieval.SummaryMode = "creative" }},
		{"empty data dir", func(c *Config) { c.Storage.DataDir = "" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Errorf("error %v does not wrap ErrConfiguration", err)
			}
		})
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"anthropic", "ANTHROPIC_API_KEY"},
		{"openai", "OPENAI_API_KEY"},
		{"OpenAI", "OPENAI_API_KEY"},
		{"ollama", ""},
		{"local", ""},
	}
	for _, tt := range tests {
		got := APIKeyEnvVar(tt.provider)
		if got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestCredentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "")

	creds := Credentials()
	if creds[llm.ProviderOpenAI] != "sk-openai" {
		t.Errorf("openai key = %q", creds[llm.ProviderOpenAI])
	}
	if _, ok := creds[llm.ProviderAnthropic]; ok {
		t.Error("empty anthropic key should be omitted")
	}
}

func TestDerivedConfigs(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-embed")
	cfg := DefaultConfig()
	cfg.LLM.Provider = "Anthropic"
	cfg.Embeddings.Provider = "openai"

	if got := cfg.LLMDefaults().Provider; got != llm.ProviderAnthropic {
		t.Errorf("LLMDefaults provider = %q", got)
	}
	if got := cfg.EmbeddingConfig().APIKey; got != "sk-embed" {
		t.Errorf("embedding key = %q", got)
	}
	if got := cfg.DBPath(); got != filepath.Join(".legalmcp", "legalmcp.db") {
		t.Errorf("DBPath = %q", got)
	}
	if got := cfg.MaxFileSize(); got != 50<<20 {
		t.Errorf("MaxFileSize = %d", got)
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"drafts/**", []string{"drafts/**"}},
		{"", nil},
		{"  ,  , ", nil},
	}
	for _, tt := range tests {
		got := splitAndTrim(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndTrim(%q) len = %d, want %d", tt.input, len(got), len(tt.want))
			continue
		}
		for i, v := range got {
			if v != tt.want[i] {
				t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
			}
		}
	}
}
