package llm

import (
	"log/slog"
	"unicode/utf8"
)

// USD per million tokens for the hosted models in the catalog. Local
// models are free and have no entry.
var pricePerMillion = map[string]struct{ in, out float64 }{
	"claude-haiku-4-5-20251001":  {0.80, 4.00},
	"claude-sonnet-4-5-20250929": {3.00, 15.00},
	"gpt-4o-mini":                {0.15, 0.60},
	"gpt-4o":                     {2.50, 10.00},
	"gpt-4-turbo":                {10.00, 30.00},
	"gpt-3.5-turbo":              {0.50, 1.50},
}

// Usage is the token accounting of one generation.
type Usage struct {
	Model        string
	InputTokens  int
	OutputTokens int
	// Estimated means the provider reported no input count and it was
	// approximated from the prompt.
	Estimated bool
}

func usageOf(model, prompt string, resp *CompletionResponse) Usage {
	u := Usage{Model: model, InputTokens: resp.InputTokens, OutputTokens: resp.OutputTokens}
	if u.InputTokens == 0 {
		u.InputTokens = approxTokens(prompt)
		u.Estimated = true
	}
	return u
}

// CostUSD prices the usage. Models without a price cost nothing.
func (u Usage) CostUSD() float64 {
	p, ok := pricePerMillion[u.Model]
	if !ok {
		return 0
	}
	return (float64(u.InputTokens)*p.in + float64(u.OutputTokens)*p.out) / 1e6
}

func (u Usage) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("input_tokens", u.InputTokens),
		slog.Int("output_tokens", u.OutputTokens),
		slog.Bool("estimated", u.Estimated),
		slog.Float64("cost_usd", u.CostUSD()),
	)
}

// approxTokens assumes four characters per token, rounding up.
func approxTokens(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}
