package config

// Config is the top-level legalmcp configuration, corresponding to
// .legalmcp.yml. API keys are never stored here; they come from the
// environment (see APIKeyEnvVar).
type Config struct {
	LLM        LLMConfig       `yaml:"llm" koanf:"llm"`
	Embeddings EmbeddingConfig `yaml:"embeddings" koanf:"embeddings"`
	Chunking   ChunkingConfig  `yaml:"chunking" koanf:"chunking"`
	Retrieval  RetrievalConfig `yaml:"retrieval" koanf:"retrieval"`
	Letter     LetterConfig    `yaml:"letter" koanf:"letter"`
	Ingest     IngestConfig    `yaml:"ingest" koanf:"ingest"`
	Storage    StorageConfig   `yaml:"storage" koanf:"storage"`
	Server     ServerConfig    `yaml:"server" koanf:"server"`
	Log        LogConfig       `yaml:"log" koanf:"log"`
}

// LLMConfig holds the process-default generation settings. Every request
// may override provider, model, base_url and temperature.
type LLMConfig struct {
	Provider          string  `yaml:"provider" koanf:"provider"`
	Model             string  `yaml:"model" koanf:"model"`
	BaseURL           string  `yaml:"base_url,omitempty" koanf:"base_url"`
	Temperature       float64 `yaml:"temperature" koanf:"temperature"`
	MaxTokens         int     `yaml:"max_tokens,omitempty" koanf:"max_tokens"`
	RequestsPerMinute int     `yaml:"requests_per_minute,omitempty" koanf:"requests_per_minute"`
}

type EmbeddingConfig struct {
	Provider   string `yaml:"provider" koanf:"provider"`
	Model      string `yaml:"model" koanf:"model"`
	Dimensions int    `yaml:"dimensions" koanf:"dimensions"`
	BaseURL    string `yaml:"base_url,omitempty" koanf:"base_url"`
}

type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap" koanf:"chunk_overlap"`
}

type RetrievalConfig struct {
	TopK int `yaml:"top_k" koanf:"top_k"`
	// SummaryMode is "deterministic" or "llm" for system-scope answers.
	SummaryMode string `yaml:"summary_mode" koanf:"summary_mode"`
}

type LetterConfig struct {
	Concurrency int `yaml:"concurrency" koanf:"concurrency"`
}

type IngestConfig struct {
	MaxFileSizeMB int      `yaml:"max_file_size_mb" koanf:"max_file_size_mb"`
	Include       []string `yaml:"include,omitempty" koanf:"include"`
	Exclude       []string `yaml:"exclude,omitempty" koanf:"exclude"`
	Recursive     bool     `yaml:"recursive" koanf:"recursive"`
	// Summarize asks the model for a short summary of each document.
	Summarize bool `yaml:"summarize" koanf:"summarize"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir" koanf:"data_dir"`
	// CasesFile is a YAML case fixture. When set it replaces the case
	// tables in the database as the source of case records.
	CasesFile string `yaml:"cases_file,omitempty" koanf:"cases_file"`
}

type ServerConfig struct {
	Port        int  `yaml:"port" koanf:"port"`
	AllowAll    bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	MaxUploadMB int  `yaml:"max_upload_mb" koanf:"max_upload_mb"`
}

type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}
