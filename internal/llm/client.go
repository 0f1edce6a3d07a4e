// Package llm provides a provider-agnostic interface for chat-completion
// providers. The prediction service sends a system instruction plus a user
// prompt and gets raw completion text back; everything downstream (JSON
// extraction, fallbacks) is provider-independent.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyCompletion is returned when a provider answers successfully but
// with an empty completion body.
var ErrEmptyCompletion = errors.New("empty completion from provider")

// Client is the interface completion providers implement.
// Keep it small: one call, two identity accessors.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	ProviderName() string
	ModelName() string
}
