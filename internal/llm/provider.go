// Package llm is a small chat-completion client for OpenAI and Ollama, used
// to classify headlines. Only single-shot, non-streaming requests are needed.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Provider names for configuration.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Common errors returned by providers.
var (
	ErrNoAPIKey      = errors.New("llm: API key not configured")
	ErrRateLimit     = errors.New("llm: rate limit exceeded")
	ErrContextLength = errors.New("llm: context length exceeded")
	ErrProviderDown  = errors.New("llm: provider unavailable")
	ErrInvalidModel  = errors.New("llm: invalid model")
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemMessage creates a system prompt message.
func SystemMessage(content string) Message { return Message{Role: RoleSystem, Content: content} }

// UserMessage creates a user message.
func UserMessage(content string) Message { return Message{Role: RoleUser, Content: content} }

// ChatOptions configures a single request. A nil *ChatOptions uses the
// provider defaults.
type ChatOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
	JSON        bool // ask the model for a JSON object reply
}

// Usage tracks token consumption for a request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a complete chat reply.
type Response struct {
	Content  string        `json:"content"`
	Model    string        `json:"model"`
	Provider string        `json:"provider"`
	Usage    Usage         `json:"usage"`
	Latency  time.Duration `json:"latency"`
}

// Provider is a chat backend.
type Provider interface {
	Name() string
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider  string
	APIKey    string
	OpenAIURL string
	OllamaURL string
	Model     string
	Timeout   time.Duration
}

// New builds the provider named by cfg.Provider.
func New(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey,
			WithOpenAIBaseURL(cfg.OpenAIURL),
			WithOpenAIModel(cfg.Model),
			WithOpenAITimeout(cfg.Timeout))
	case ProviderOllama:
		return NewOllamaProvider(cfg.OllamaURL,
			WithOllamaModel(cfg.Model),
			WithOllamaTimeout(cfg.Timeout))
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

func resolveModel(opts *ChatOptions, def string) string {
	if opts != nil && opts.Model != "" {
		return opts.Model
	}
	return def
}

func preview(body []byte) string {
	const limit = 4096
	if len(body) > limit {
		body = body[:limit]
	}
	return string(body)
}
