package llm

import (
	"log/slog"
	"sync"

	"golang.org/x/time/rate"
)

// Factory builds per-request gateways from process defaults. Gateways for
// the same provider share one rate limiter.
type Factory struct {
	defaults    Config
	credentials map[ProviderTag]string
	rpm         int
	log         *slog.Logger

	mu       sync.Mutex
	limiters map[ProviderTag]*rate.Limiter
}

// NewFactory validates nothing up front: a bad default only fails the
// requests that use it. credentials maps providers to API keys loaded at
// startup. rpm <= 0 disables rate limiting.
func NewFactory(defaults Config, credentials map[ProviderTag]string, rpm int, log *slog.Logger) *Factory {
	if log == nil {
		log = slog.Default()
	}
	creds := make(map[ProviderTag]string, len(credentials))
	for k, v := range credentials {
		if v != "" {
			creds[k] = v
		}
	}
	return &Factory{
		defaults:    defaults,
		credentials: creds,
		rpm:         rpm,
		log:         log,
		limiters:    make(map[ProviderTag]*rate.Limiter),
	}
}

// Defaults returns the process default configuration.
func (f *Factory) Defaults() Config { return f.defaults }

// Resolve merges o over the defaults without building a gateway.
func (f *Factory) Resolve(o Overrides) Config {
	return Merge(f.defaults, o, f.credentials).withDefaults()
}

// Gateway validates the merged configuration and returns a gateway for it.
func (f *Factory) Gateway(o Overrides) (*Gateway, error) {
	cfg := f.Resolve(o)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewGateway(cfg, WithLimiter(f.limiter(cfg.Provider)), WithLogger(f.log))
}

func (f *Factory) limiter(p ProviderTag) *rate.Limiter {
	if f.rpm <= 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[p]
	if !ok {
		l = NewLimiter(f.rpm)
		f.limiters[p] = l
	}
	return l
}
