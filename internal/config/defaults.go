package config

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = ".legalmcp.yml"

// EnvPrefix marks environment overrides. A double underscore separates
// sections: LEGALMCP_LLM__MODEL sets llm.model.
const EnvPrefix = "LEGALMCP_"

// DefaultConfig returns a Config with sensible defaults: a local Ollama
// model for both generation and embeddings.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "ollama",
			Model:       "mistral",
			BaseURL:     "http://localhost:11434",
			Temperature: 0.0,
		},
		Embeddings: EmbeddingConfig{
			Provider:   "ollama",
			Model:      "all-minilm",
			Dimensions: 384,
			BaseURL:    "http://localhost:11434",
		},
		Chunking: ChunkingConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Retrieval: RetrievalConfig{
			TopK:        5,
			SummaryMode: "deterministic",
		},
		Letter: LetterConfig{
			Concurrency: 4,
		},
		Ingest: IngestConfig{
			MaxFileSizeMB: 50,
			Recursive:     true,
		},
		Storage: StorageConfig{
			DataDir: ".legalmcp",
		},
		Server: ServerConfig{
			Port:        8000,
			MaxUploadMB: 50,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
