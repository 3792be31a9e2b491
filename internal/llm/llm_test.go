package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

type captured struct {
	path string
	auth string
	body map[string]any
}

func newServer(t *testing.T, status int, reply string) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.path = r.URL.Path
		c.auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&c.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

// ════════════════════════════════════════════════════════════════════
// Factory
// ════════════════════════════════════════════════════════════════════

func TestNew(t *testing.T) {
	tests := []struct {
		cfg     Config
		want    string
		wantErr error
	}{
		{Config{Provider: "openai", APIKey: "sk-test"}, ProviderOpenAI, nil},
		{Config{APIKey: "sk-test"}, ProviderOpenAI, nil},
		{Config{Provider: "OLLAMA"}, ProviderOllama, nil},
		{Config{Provider: "openai"}, "", ErrNoAPIKey},
	}
	for _, tt := range tests {
		p, err := New(tt.cfg)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New(%+v): got err %v, want %v", tt.cfg, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("New(%+v): %v", tt.cfg, err)
			continue
		}
		if p.Name() != tt.want {
			t.Errorf("New(%+v).Name(): got %q, want %q", tt.cfg, p.Name(), tt.want)
		}
	}

	if _, err := New(Config{Provider: "gemini"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

// ════════════════════════════════════════════════════════════════════
// OpenAI
// ════════════════════════════════════════════════════════════════════

func TestOpenAIChat(t *testing.T) {
	srv, c := newServer(t, http.StatusOK, `{
		"model": "gpt-4o-mini",
		"choices": [{"message": {"role": "assistant", "content": "{\"sentiment\":\"YES\"}"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 40, "completion_tokens": 6, "total_tokens": 46}
	}`)

	p, err := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	resp, err := p.Chat(context.Background(),
		[]Message{SystemMessage("sys"), UserMessage("headline")},
		&ChatOptions{Temperature: 0, MaxTokens: 64, JSON: true})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if c.path != "/chat/completions" {
		t.Errorf("path: got %q", c.path)
	}
	if c.auth != "Bearer sk-test" {
		t.Errorf("Authorization: got %q", c.auth)
	}
	if c.body["model"] != "gpt-4o-mini" {
		t.Errorf("model: got %v", c.body["model"])
	}
	if rf, _ := c.body["response_format"].(map[string]any); rf["type"] != "json_object" {
		t.Errorf("response_format: got %v", c.body["response_format"])
	}
	if _, ok := c.body["temperature"]; !ok {
		t.Error("temperature 0 should still be sent")
	}
	if resp.Content != `{"sentiment":"YES"}` {
		t.Errorf("Content: got %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 46 {
		t.Errorf("TotalTokens: got %d, want 46", resp.Usage.TotalTokens)
	}
}

func TestOpenAIErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, ErrNoAPIKey},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, ErrRateLimit},
		{"context", http.StatusBadRequest, `{"error":{"message":"too long","code":"context_length_exceeded"}}`, ErrContextLength},
		{"model", http.StatusNotFound, `{"error":{"message":"nope","code":"model_not_found"}}`, ErrInvalidModel},
		{"no choices", http.StatusOK, `{"choices":[]}`, ErrEmptyResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.body)
			p, _ := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(srv.URL))
			_, err := p.Chat(context.Background(), []Message{UserMessage("x")}, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestOpenAIPlainHTTPError(t *testing.T) {
	srv, _ := newServer(t, http.StatusBadGateway, `upstream down`)
	p, _ := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(srv.URL))
	if _, err := p.Chat(context.Background(), []Message{UserMessage("x")}, nil); err == nil {
		t.Error("expected error for HTTP 502")
	}
}

// ════════════════════════════════════════════════════════════════════
// Ollama
// ════════════════════════════════════════════════════════════════════

func TestOllamaChat(t *testing.T) {
	srv, c := newServer(t, http.StatusOK, `{
		"model": "qwen2.5:7b",
		"message": {"role": "assistant", "content": "{\"sentiment\":\"NO\"}"},
		"done": true,
		"prompt_eval_count": 30,
		"eval_count": 5
	}`)

	p, _ := NewOllamaProvider(srv.URL, WithOllamaModel("qwen2.5:7b"))
	resp, err := p.Chat(context.Background(), []Message{UserMessage("headline")}, &ChatOptions{JSON: true})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if c.path != "/api/chat" {
		t.Errorf("path: got %q", c.path)
	}
	if c.body["stream"] != false {
		t.Errorf("stream: got %v, want false", c.body["stream"])
	}
	if c.body["format"] != "json" {
		t.Errorf("format: got %v, want json", c.body["format"])
	}
	if resp.Content != `{"sentiment":"NO"}` {
		t.Errorf("Content: got %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 35 {
		t.Errorf("TotalTokens: got %d, want 35", resp.Usage.TotalTokens)
	}
}

func TestOllamaHTTPError(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError, `{"error":"model not loaded"}`)
	p, _ := NewOllamaProvider(srv.URL)
	if _, err := p.Chat(context.Background(), []Message{UserMessage("x")}, nil); err == nil {
		t.Error("expected error for HTTP 500")
	}
}
