// Package llm is the boundary to the text-generation backend. The rest of
// the system treats a completion as one opaque call: system prompt, user
// prompt, target model in; generated text out. Model names and prompt
// wording are configuration, not part of this contract.
package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"meetpilot/internal/config"
)

// Request is one completion request.
type Request struct {
	System      string
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Response is the backend's reply.
type Response struct {
	Text  string
	Model string
}

// Client defines the interface for text-generation providers. Timeouts are
// imposed by the caller's context; implementations must honor cancellation.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// NewClient builds the provider selected by configuration.
func NewClient(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (Client, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicClient(cfg, logger), nil
	case "openai":
		return NewOpenAIClient(cfg, logger), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
