package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/seenimoa/sastocks/internal/infra"
)

// DefaultOpenAIURL is the public Chat Completions API root.
const DefaultOpenAIURL = "https://api.openai.com/v1"

// OpenAIProvider talks to OpenAI's Chat Completions API or a compatible proxy.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration
	http    *resty.Client
}

// OpenAIOption configures the OpenAI provider.
type OpenAIOption func(*OpenAIProvider)

// WithOpenAIBaseURL sets a custom base URL (Azure OpenAI, proxies, tests).
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(p *OpenAIProvider) {
		if url != "" {
			p.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithOpenAIModel sets the default model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(p *OpenAIProvider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithOpenAITimeout sets the request timeout.
func WithOpenAITimeout(d time.Duration) OpenAIOption {
	return func(p *OpenAIProvider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewOpenAIProvider creates an OpenAI provider.
func NewOpenAIProvider(apiKey string, opts ...OpenAIOption) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	p := &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: DefaultOpenAIURL,
		model:   "gpt-4o-mini",
		timeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.http = infra.NewHTTPClient(infra.HTTPOptions{BaseURL: p.baseURL, Timeout: p.timeout})
	return p, nil
}

func (p *OpenAIProvider) Name() string { return ProviderOpenAI }

type openAIChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Chat sends a chat completion request.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	start := time.Now()
	body := openAIChatRequest{Model: resolveModel(opts, p.model), Messages: messages}
	if opts != nil {
		body.Temperature = opts.Temperature
		body.MaxTokens = opts.MaxTokens
		if opts.JSON {
			body.ResponseFormat = &responseFormat{Type: "json_object"}
		}
	}

	var out openAIChatResponse
	resp, err := p.http.R().
		SetContext(ctx).
		SetAuthToken(p.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderDown, err)
	}
	if err := openAIError(resp); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	return &Response{
		Content:  out.Choices[0].Message.Content,
		Model:    out.Model,
		Provider: ProviderOpenAI,
		Usage:    out.Usage,
		Latency:  time.Since(start),
	}, nil
}

func openAIError(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	var apiErr openAIErrorResponse
	if json.Unmarshal(resp.Body(), &apiErr) == nil && apiErr.Error.Message != "" {
		msg := apiErr.Error.Message
		switch resp.StatusCode() {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrNoAPIKey, msg)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimit, msg)
		case http.StatusBadRequest:
			if strings.Contains(apiErr.Error.Code, "context_length") {
				return fmt.Errorf("%w: %s", ErrContextLength, msg)
			}
		case http.StatusNotFound:
			if strings.Contains(apiErr.Error.Code, "model_not_found") {
				return fmt.Errorf("%w: %s", ErrInvalidModel, msg)
			}
		}
		return fmt.Errorf("openai: API error (%d): %s", resp.StatusCode(), msg)
	}
	return fmt.Errorf("openai: HTTP %d: %s", resp.StatusCode(), preview(resp.Body()))
}
