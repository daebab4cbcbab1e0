package agents

import (
	"context"
	"time"

	"go.uber.org/zap"

	"meetpilot/internal/llm"
	"meetpilot/internal/normalize"
)

// runner holds the shared call machinery for every agent: cancellation
// check, timed backend call, normalization of the raw text into the wire
// struct. The per-agent model and timeout come from the caller so each
// stage can run a different tier.
type runner struct {
	client      llm.Client
	logger      *zap.Logger
	temperature float64
	maxTokens   int
}

func newRunner(client llm.Client, logger *zap.Logger, temperature float64, maxTokens int) *runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &runner{client: client, logger: logger, temperature: temperature, maxTokens: maxTokens}
}

// invoke runs one agent call end to end and decodes the response into out.
// It returns false whenever the caller must substitute the agent's default
// output: the turn was already cancelled, the backend errored or timed out,
// or no JSON object could be recovered from the response text.
func (r *runner) invoke(ctx context.Context, name, model, system, prompt string, timeout time.Duration, out any) bool {
	if err := ctx.Err(); err != nil {
		r.logger.Debug("agent skipped, turn cancelled", zap.String("agent", name))
		return false
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := r.client.Generate(callCtx, llm.Request{
		System:      system,
		Prompt:      prompt,
		Model:       model,
		Temperature: r.temperature,
		MaxTokens:   r.maxTokens,
	})
	if err != nil {
		if ctx.Err() != nil {
			r.logger.Debug("agent cancelled mid-call", zap.String("agent", name))
		} else {
			r.logger.Warn("agent call failed",
				zap.String("agent", name),
				zap.String("model", model),
				zap.Error(err))
		}
		return false
	}

	if err := normalize.Unmarshal(resp.Text, out); err != nil {
		r.logger.Warn("agent returned unusable output",
			zap.String("agent", name),
			zap.String("model", model),
			zap.Error(err))
		return false
	}
	return true
}
