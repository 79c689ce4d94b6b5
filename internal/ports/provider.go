package ports

import (
	"context"

	"locline/internal/domain"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest carries one chat-completion call. TopK is included in the
// wire payload only when positive; some backends reject a present-but-zero
// value.
type ChatRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
	TopP         float64
	TopK         int
	Stream       bool
}

// ProviderBuilder constructs a chat-completion client for an endpoint.
// Runs carry their own endpoint and credential, so providers are built
// from the run config rather than fixed at boot.
type ProviderBuilder func(baseURL, apiKey string) Provider

// Provider is a chat-completion backend.
type Provider interface {
	// Complete runs one completion and returns the accumulated text. In
	// streaming mode onDelta (may be nil) receives each incremental
	// fragment as it arrives.
	Complete(ctx context.Context, req ChatRequest, onDelta func(string)) (string, error)
	// ListModels returns the available model identifiers, ascending.
	ListModels(ctx context.Context) ([]domain.ModelInfo, error)
}
