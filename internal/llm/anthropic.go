package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultAnthropicURL = "https://api.anthropic.com"
	anthropicVersion    = "2023-06-01"
)

// AnthropicProvider talks to the Messages API. The system prompt travels
// in its own field and max_tokens is mandatory, so both come from the
// request or, failing that, from the Config the provider was built with.
type AnthropicProvider struct {
	cfg    Config
	client *http.Client
}

func newAnthropicProvider(cfg Config) *AnthropicProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAnthropicURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &AnthropicProvider{cfg: cfg, client: &http.Client{}}
}

func (p *AnthropicProvider) Name() string { return string(ProviderAnthropic) }

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	System      string        `json:"system,omitempty"`
	Messages    []turnMessage `json:"messages"`
}

// turnMessage is a user or assistant turn; the API has no system role.
type turnMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// text joins the text blocks of a reply.
func (r *messagesResponse) text() string {
	var b strings.Builder
	for _, c := range r.Content {
		if c.Type == "text" {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}

func (p *AnthropicProvider) buildRequest(req CompletionRequest) messagesRequest {
	out := messagesRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		System:      req.System,
	}
	if out.Model == "" {
		out.Model = p.cfg.Model
	}
	if out.MaxTokens == 0 {
		out.MaxTokens = p.cfg.TokenLimit()
	}
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			// Inline system messages join the system field.
			out.System = strings.TrimSpace(out.System + "\n\n" + m.Content)
			continue
		}
		out.Messages = append(out.Messages, turnMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	body, err := json.Marshal(p.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("encoding messages request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building messages request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("anthropic: reading reply: %w", err)
	}

	var resp messagesResponse
	decodeErr := json.Unmarshal(raw, &resp)
	switch {
	case decodeErr == nil && resp.Error != nil:
		return nil, fmt.Errorf("anthropic: %s: %s", resp.Error.Type, resp.Error.Message)
	case httpResp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("anthropic: status %d: %s", httpResp.StatusCode, truncateBody(raw))
	case decodeErr != nil:
		return nil, fmt.Errorf("anthropic: decoding reply: %w", decodeErr)
	}

	return &CompletionResponse{
		Content:      resp.text(),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		Model:        resp.Model,
		FinishReason: resp.StopReason,
	}, nil
}

func truncateBody(b []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
