package llm

import (
	"fmt"
	"strings"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
)

// Config is a complete, per-request generation configuration.
type Config struct {
	Provider    ProviderTag `json:"provider"`
	Model       string      `json:"model"`
	BaseURL     string      `json:"base_url,omitempty"`
	APIKey      string      `json:"-"`
	Temperature float64     `json:"temperature"`
	MaxTokens   int         `json:"max_tokens,omitempty"`
}

// DefaultMaxTokens bounds a reply when Config.MaxTokens is unset and the
// provider insists on a limit.
const DefaultMaxTokens = 2048

// TokenLimit returns MaxTokens, or DefaultMaxTokens when it is unset.
func (c Config) TokenLimit() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return DefaultMaxTokens
}

// Validate checks the per-kind required fields. It never touches the
// network.
func (c Config) Validate() error {
	spec, ok := Lookup(c.Provider)
	if !ok {
		return fmt.Errorf("%w: unsupported provider %q", domain.ErrConfiguration, c.Provider)
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("%w: temperature %.2f outside [0, 1]", domain.ErrConfiguration, c.Temperature)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("%w: max_tokens must not be negative", domain.ErrConfiguration)
	}
	if spec.Kind == KindHosted && strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: provider %s requires an API key", domain.ErrConfiguration, c.Provider)
	}
	return nil
}

// withDefaults fills the endpoint and model from the catalog.
func (c Config) withDefaults() Config {
	spec, ok := Lookup(c.Provider)
	if !ok {
		return c
	}
	if c.BaseURL == "" {
		c.BaseURL = spec.DefaultURL
	}
	if c.Model == "" {
		c.Model = spec.DefaultModel
	}
	return c
}

// Overrides are caller-supplied changes to the process defaults. Empty
// fields keep the default.
type Overrides struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	Temperature *float64
}

// IsZero reports whether no override was given.
func (o Overrides) IsZero() bool {
	return o.Provider == "" && o.Model == "" && o.BaseURL == "" && o.APIKey == "" && o.Temperature == nil
}

// Merge applies o over base. Switching provider drops the base model,
// endpoint and credential, since they belong to the old provider;
// credentials supplies the new provider's key if o has none.
func Merge(base Config, o Overrides, credentials map[ProviderTag]string) Config {
	cfg := base
	if p := ProviderTag(strings.ToLower(strings.TrimSpace(o.Provider))); p != "" && p != base.Provider {
		cfg = Config{
			Provider:    p,
			Temperature: base.Temperature,
			MaxTokens:   base.MaxTokens,
			APIKey:      credentials[p],
		}
	}
	if o.Model != "" {
		cfg.Model = o.Model
	}
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}
	if o.APIKey != "" {
		cfg.APIKey = o.APIKey
	}
	if o.Temperature != nil {
		cfg.Temperature = *o.Temperature
	}
	if cfg.APIKey == "" {
		cfg.APIKey = credentials[cfg.Provider]
	}
	return cfg
}
