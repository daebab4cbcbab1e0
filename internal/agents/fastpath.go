package agents

import (
	"context"
	"time"

	"go.uber.org/zap"

	"meetpilot/internal/llm"
)

// FastPathOutput is the cheap first read of the latest notes. AdviceFound
// means a single obviously useful tip exists right now; NeedsDeepAnalysis
// asks the pipeline to run the expensive stage.
type FastPathOutput struct {
	AdviceFound       bool
	NeedsDeepAnalysis bool
	Insight           *Insight
}

// defaultFastPath is the output used on any failure: no advice, but let
// deep analysis run so one flaky call does not silence the whole turn.
func defaultFastPath() FastPathOutput {
	return FastPathOutput{AdviceFound: false, NeedsDeepAnalysis: true}
}

type fastPathWire struct {
	AdviceFound       bool    `json:"advice_found"`
	NeedsDeepAnalysis bool    `json:"needs_deep_analysis"`
	Kind              string  `json:"kind"`
	Advice            string  `json:"advice"`
	Recommendation    string  `json:"recommendation"`
	Confidence        float64 `json:"confidence"`
}

// FastPathAgent runs the small, fast model over the raw note text.
type FastPathAgent struct {
	run     *runner
	model   string
	timeout time.Duration
}

func NewFastPathAgent(client llm.Client, logger *zap.Logger, model string, timeout time.Duration, temperature float64, maxTokens int) *FastPathAgent {
	return &FastPathAgent{
		run:     newRunner(client, logger, temperature, maxTokens),
		model:   model,
		timeout: timeout,
	}
}

// Analyze produces the quick verdict for the current notes. Failure of any
// kind degrades to the default output.
func (a *FastPathAgent) Analyze(ctx context.Context, noteText string) Result[FastPathOutput] {
	start := time.Now()
	var wire fastPathWire
	ok := a.run.invoke(ctx, "fast_path", a.model, fastPathSystem, fastPathPrompt(noteText), a.timeout, &wire)
	if !ok {
		return Result[FastPathOutput]{Output: defaultFastPath(), Duration: time.Since(start)}
	}

	out := FastPathOutput{
		AdviceFound:       wire.AdviceFound,
		NeedsDeepAnalysis: wire.NeedsDeepAnalysis,
	}
	if wire.AdviceFound {
		if wire.Advice == "" {
			// Advice claimed but no text to show. Treat as not found.
			out.AdviceFound = false
		} else {
			ins := validInsight(wire.Kind, wire.Advice, wire.Recommendation, wire.Confidence)
			out.Insight = &ins
		}
	}
	return Result[FastPathOutput]{Output: out, Duration: time.Since(start)}
}
