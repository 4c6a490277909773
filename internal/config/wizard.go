package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/llm"
)

// embeddingDefaults pairs each embedding backend with a starting model
// and its vector size.
var embeddingDefaults = map[string]EmbeddingConfig{
	"ollama": {Provider: "ollama", Model: "all-minilm", Dimensions: 384, BaseURL: llm.DefaultOllamaURL},
	"openai": {Provider: "openai", Model: "text-embedding-3-small", Dimensions: 1536},
	"local":  {Provider: "local", Dimensions: 256},
}

// RunInitWizard runs an interactive configuration wizard and saves the
// result to path.
func RunInitWizard(path string) (*Config, error) {
	fmt.Println("Welcome to legalmcp! Let's configure your workspace.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"ollama", "openai", "anthropic"},
	}
	_, provider, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	spec, _ := llm.Lookup(llm.ProviderTag(provider))
	cfg.LLM.Provider = provider
	cfg.LLM.BaseURL = spec.DefaultURL

	// 2. Model.
	modelPrompt := promptui.Select{
		Label: "Select model",
		Items: spec.Models,
	}
	_, model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model selection: %w", err)
	}
	cfg.LLM.Model = model

	// 3. Embeddings. Local models keep documents on this machine.
	embedPrompt := promptui.Select{
		Label: "Select embedding backend",
		Items: []string{"ollama", "openai", "local"},
	}
	_, embed, err := embedPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("embedding selection: %w", err)
	}
	cfg.Embeddings = embeddingDefaults[embed]

	// 4. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory",
		Default: cfg.Storage.DataDir,
	}
	if cfg.Storage.DataDir, err = dataPrompt.Run(); err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}

	// 5. HTTP port.
	portPrompt := promptui.Prompt{
		Label:    "HTTP port",
		Default:  strconv.Itoa(cfg.Server.Port),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(strings.TrimSpace(portStr))

	// 6. Folder exclusions.
	excludePrompt := promptui.Prompt{
		Label:   "Patterns to skip when ingesting folders (comma-separated, blank for none)",
		Default: "",
	}
	excludeStr, err := excludePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	cfg.Ingest.Exclude = splitAndTrim(excludeStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Check for API keys.
	for _, p := range []string{cfg.LLM.Provider, cfg.Embeddings.Provider} {
		if envVar := APIKeyEnvVar(p); envVar != "" && os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment or .env before running legalmcp.\n", envVar)
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("enter a port between 1 and 65535")
	}
	return nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
