package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/clawnad/backend/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

// Message is one turn of a conversation sent upstream.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Service talks to OpenRouter's OpenAI-compatible API. Non-streaming
// completions go through the go-openai client; streaming requests are
// opened raw so the caller can drive its own event decoder over the body.
type Service struct {
	apiKey     string
	baseURL    string
	client     *openai.Client
	httpClient *http.Client
}

// attributionTransport adds the OpenRouter attribution headers to every
// outbound request.
type attributionTransport struct {
	base http.RoundTripper
}

func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("HTTP-Referer", config.GetOpenRouterReferer())
	req.Header.Set("X-Title", config.GetOpenRouterTitle())
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// NewService builds the provider client from environment config. A missing
// API key is allowed: Configured() reports false and callers serve
// demo-mode responses without touching the network.
func NewService() *Service {
	key := config.GetOpenRouterAPIKey()
	if key == "" {
		log.Warn().Msg("OpenRouter API key not configured - running in demo mode")
	}
	return NewServiceWith(key, config.OpenRouterBaseURL, &http.Client{Transport: &attributionTransport{}})
}

// NewServiceWith builds a client against an explicit base URL and HTTP
// client. Tests point this at a local fixture server.
func NewServiceWith(apiKey, baseURL string, httpClient *http.Client) *Service {
	s := &Service{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
	if apiKey != "" {
		cfg := openai.DefaultConfig(apiKey)
		cfg.BaseURL = baseURL
		cfg.HTTPClient = httpClient
		s.client = openai.NewClientWithConfig(cfg)
	}
	return s
}

// Configured reports whether a provider credential is present.
func (s *Service) Configured() bool {
	return s.apiKey != ""
}

// Complete performs one non-streaming chat completion and returns the
// assistant text.
func (s *Service) Complete(ctx context.Context, model, systemPrompt, userMessage string, maxTokens int) (string, error) {
	if s.client == nil {
		return "", errors.New("openrouter: no API key configured")
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openrouter completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// streamRequest is the wire body for a streaming completion.
type streamRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
	Stream    bool      `json:"stream"`
}

// OpenStream opens a streaming chat completion and returns the raw HTTP
// response. The caller owns the body and is responsible for decoding the
// event stream and closing it. A non-2xx status is returned as a normal
// response, not an error, so the caller can surface status and body text.
func (s *Service) OpenStream(ctx context.Context, model string, messages []Message, maxTokens int) (*http.Response, error) {
	body, err := json.Marshal(streamRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens,
		Stream:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("openrouter stream request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openrouter stream request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openrouter stream: %w", err)
	}
	return resp, nil
}
