package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/csmajors/bracket-predictor/internal/config"
)

// AnthropicClient implements Client against the Anthropic Messages API
// directly, for deployments that hold a first-party key instead of routing
// through OpenRouter.
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicClient creates a Claude-backed completion client.
func NewAnthropicClient(cfg config.AnthropicConfig, llmCfg config.LLMConfig) *AnthropicClient {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
	)
	return &AnthropicClient{
		client:    &client,
		model:     cfg.Model,
		maxTokens: int64(llmCfg.MaxTokens),
	}
}

func (a *AnthropicClient) ProviderName() string { return "anthropic" }
func (a *AnthropicClient) ModelName() string    { return a.model }

func (a *AnthropicClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyCompletion
	}
	return sb.String(), nil
}
