package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
)

// DefaultSystemPrompt frames every generation.
const DefaultSystemPrompt = "You are a legal assistant helping attorneys analyze case documents. " +
	"Answer only from the provided context. If the context does not contain the answer, say so. " +
	"Be precise about amounts, dates and party names."

// Gateway is a validated, ready-to-use generation backend bound to one
// Config. It does not retry.
type Gateway struct {
	cfg      Config
	provider Provider
	system   string
	log      *slog.Logger
}

// GatewayOption customises a Gateway.
type GatewayOption func(*Gateway)

// WithLimiter makes the gateway wait on a shared limiter before each call.
func WithLimiter(l *rate.Limiter) GatewayOption {
	return func(g *Gateway) {
		if l != nil {
			g.provider = NewRateLimitedProvider(g.provider, l)
		}
	}
}

func WithLogger(l *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		if l != nil {
			g.log = l
		}
	}
}

func WithSystemPrompt(prompt string) GatewayOption {
	return func(g *Gateway) { g.system = prompt }
}

// NewGateway validates cfg and builds the matching provider. A hosted
// provider without a credential, or an unknown tag, fails with
// domain.ErrConfiguration before any network traffic.
func NewGateway(cfg Config, opts ...GatewayOption) (*Gateway, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var p Provider
	switch cfg.Provider {
	case ProviderOllama:
		p = NewOllamaProvider(cfg.BaseURL, cfg.Model)
	case ProviderOpenAI:
		p = NewOpenAIProvider(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case ProviderAnthropic:
		p = newAnthropicProvider(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", domain.ErrConfiguration, cfg.Provider)
	}
	return newGateway(cfg, p, opts...), nil
}

func newGateway(cfg Config, p Provider, opts ...GatewayOption) *Gateway {
	g := &Gateway{cfg: cfg, provider: p, system: DefaultSystemPrompt, log: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Config returns the effective configuration, defaults applied.
func (g *Gateway) Config() Config { return g.cfg }

// Endpoint returns the base URL requests go to, empty for the provider's
// built-in default.
func (g *Gateway) Endpoint() string { return g.cfg.BaseURL }

// Generate sends one prompt and returns the model's text. Every backend
// failure is reported as domain.ErrProviderUnavailable.
func (g *Gateway) Generate(ctx context.Context, prompt string) (string, error) {
	req := CompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		System:      g.system,
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
	}

	start := time.Now()
	resp, err := g.provider.Complete(ctx, req)
	if err != nil {
		g.log.Warn("generation failed", "provider", g.cfg.Provider, "model", g.cfg.Model, "error", err)
		return "", fmt.Errorf("%s/%s: %w: %w", g.cfg.Provider, g.cfg.Model, domain.ErrProviderUnavailable, err)
	}

	g.log.Debug("generation complete",
		"provider", g.cfg.Provider,
		"model", g.cfg.Model,
		"usage", usageOf(g.cfg.Model, prompt, resp),
		"elapsed", time.Since(start),
	)
	return resp.Content, nil
}
