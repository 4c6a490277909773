package llm

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest contains the parameters for an LLM completion request.
type CompletionRequest struct {
	Model string
	// System frames the conversation. Providers without a separate system
	// field receive it as a leading system message; see chat.
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// chat returns the messages with System, if set, as the first one.
func (r CompletionRequest) chat() []Message {
	if r.System == "" {
		return r.Messages
	}
	return append([]Message{{Role: RoleSystem, Content: r.System}}, r.Messages...)
}

// CompletionResponse contains the result of an LLM completion request.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// ProviderTag names a generation backend. The set is closed.
type ProviderTag string

const (
	ProviderOllama    ProviderTag = "ollama"
	ProviderOpenAI    ProviderTag = "openai"
	ProviderAnthropic ProviderTag = "anthropic"
)

// Kind separates backends that run next to the service from hosted APIs.
type Kind string

const (
	// KindLocal needs an endpoint and no credential.
	KindLocal Kind = "local"
	// KindHosted needs a credential; the endpoint is optional.
	KindHosted Kind = "hosted"
)
