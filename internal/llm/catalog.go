package llm

import "sort"

// DefaultOllamaURL is used when a local provider is configured without an
// endpoint.
const DefaultOllamaURL = "http://localhost:11434"

// ProviderSpec describes one provider and the configuration it accepts.
type ProviderSpec struct {
	Name           ProviderTag `json:"name"`
	DisplayName    string      `json:"display_name"`
	Kind           Kind        `json:"kind"`
	RequiresAPIKey bool        `json:"requires_api_key"`
	RequiresURL    bool        `json:"requires_base_url"`
	DefaultURL     string      `json:"default_base_url,omitempty"`
	DefaultModel   string      `json:"default_model"`
	Models         []string    `json:"models"`
	Required       []string    `json:"required_fields"`
	Optional       []string    `json:"optional_fields"`
}

var catalog = map[ProviderTag]ProviderSpec{
	ProviderOllama: {
		Name:         ProviderOllama,
		DisplayName:  "Ollama (local)",
		Kind:         KindLocal,
		RequiresURL:  true,
		DefaultURL:   DefaultOllamaURL,
		DefaultModel: "mistral",
		Models:       []string{"mistral", "llama3.1", "llama2", "mixtral", "codellama"},
		Required:     []string{"provider", "model"},
		Optional:     []string{"base_url", "temperature"},
	},
	ProviderOpenAI: {
		Name:           ProviderOpenAI,
		DisplayName:    "OpenAI",
		Kind:           KindHosted,
		RequiresAPIKey: true,
		DefaultModel:   "gpt-4o-mini",
		Models:         []string{"gpt-4o-mini", "gpt-4o", "gpt-4-turbo", "gpt-3.5-turbo"},
		Required:       []string{"provider", "model", "api_key"},
		Optional:       []string{"base_url", "temperature"},
	},
	ProviderAnthropic: {
		Name:           ProviderAnthropic,
		DisplayName:    "Anthropic",
		Kind:           KindHosted,
		RequiresAPIKey: true,
		DefaultURL:     defaultAnthropicURL,
		DefaultModel:   "claude-haiku-4-5-20251001",
		Models:         []string{"claude-haiku-4-5-20251001", "claude-sonnet-4-5-20250929"},
		Required:       []string{"provider", "model", "api_key"},
		Optional:       []string{"base_url", "temperature"},
	},
}

// Lookup returns the spec for a provider tag.
func Lookup(tag ProviderTag) (ProviderSpec, bool) {
	spec, ok := catalog[tag]
	return spec, ok
}

// Catalog lists every supported provider ordered by name.
func Catalog() []ProviderSpec {
	out := make([]ProviderSpec, 0, len(catalog))
	for _, spec := range catalog {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
