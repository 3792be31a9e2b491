package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/seenimoa/sastocks/internal/infra"
)

// DefaultOllamaURL is where a local Ollama server listens.
const DefaultOllamaURL = "http://localhost:11434"

// OllamaProvider talks to a local Ollama server's /api/chat endpoint.
type OllamaProvider struct {
	baseURL string
	model   string
	timeout time.Duration
	http    *resty.Client
}

// OllamaOption configures the Ollama provider.
type OllamaOption func(*OllamaProvider)

// WithOllamaModel sets the default model.
func WithOllamaModel(model string) OllamaOption {
	return func(p *OllamaProvider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithOllamaTimeout sets the request timeout.
func WithOllamaTimeout(d time.Duration) OllamaOption {
	return func(p *OllamaProvider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewOllamaProvider creates an Ollama provider. An empty baseURL uses
// DefaultOllamaURL.
func NewOllamaProvider(baseURL string, opts ...OllamaOption) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	p := &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   "qwen2.5:7b",
		timeout: 300 * time.Second, // local models are slow to load
	}
	for _, opt := range opts {
		opt(p)
	}
	p.http = infra.NewHTTPClient(infra.HTTPOptions{BaseURL: p.baseURL, Timeout: p.timeout})
	return p, nil
}

func (p *OllamaProvider) Name() string { return ProviderOllama }

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model           string  `json:"model"`
	Message         Message `json:"message"`
	Done            bool    `json:"done"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}

// Chat sends a non-streaming chat request.
func (p *OllamaProvider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	start := time.Now()
	body := ollamaChatRequest{Model: resolveModel(opts, p.model), Messages: messages}
	if opts != nil {
		body.Options = &ollamaOptions{Temperature: opts.Temperature, NumPredict: opts.MaxTokens}
		if opts.JSON {
			body.Format = "json"
		}
	}

	resp, err := p.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/api/chat")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderDown, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("ollama: HTTP %d: %s", resp.StatusCode(), preview(resp.Body()))
	}

	var out ollamaChatResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}
	if out.Message.Content == "" {
		return nil, ErrEmptyResponse
	}

	return &Response{
		Content:  out.Message.Content,
		Model:    out.Model,
		Provider: ProviderOllama,
		Usage: Usage{
			PromptTokens:     out.PromptEvalCount,
			CompletionTokens: out.EvalCount,
			TotalTokens:      out.PromptEvalCount + out.EvalCount,
		},
		Latency: time.Since(start),
	}, nil
}
