package llm

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/csmajors/bracket-predictor/internal/config"
)

// OpenRouterClient talks to OpenRouter's OpenAI-compatible chat-completion
// endpoint. OpenRouter routes one API key across many underlying models, so
// the model is a plain string like "anthropic/claude-3.5-sonnet".
type OpenRouterClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// headerTransport injects the attribution headers OpenRouter asks clients to
// send on every request.
type headerTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.referer != "" {
		req.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		req.Header.Set("X-Title", t.title)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// NewOpenRouterClient creates a client pointed at the configured base URL.
func NewOpenRouterClient(cfg config.OpenRouterConfig, llmCfg config.LLMConfig) *OpenRouterClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient = &http.Client{
		Transport: &headerTransport{referer: cfg.Referer, title: cfg.Title},
	}

	return &OpenRouterClient{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   llmCfg.MaxTokens,
		temperature: llmCfg.Temperature,
	}
}

func (o *OpenRouterClient) ProviderName() string { return "openrouter" }
func (o *OpenRouterClient) ModelName() string    { return o.model }

// Complete sends the prompt pair and returns the completion text.
// Provider errors carry the upstream message so the caller can surface it.
func (o *OpenRouterClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openrouter API call: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
