package agents

import (
	"context"
	"time"

	"go.uber.org/zap"

	"meetpilot/internal/llm"
)

// minBehaviorLen is the shortest current-behavior description worth
// comparing against stored context.
const minBehaviorLen = 20

// DeviationInput compares current behavior against the stored baseline.
type DeviationInput struct {
	CurrentBehavior string
	Profile         string
	History         []MeetingSummary
}

// Comparable reports whether there is enough material on both sides to run
// the comparison at all. When false the stage is skipped, not defaulted.
func (in DeviationInput) Comparable() bool {
	if len(in.CurrentBehavior) < minBehaviorLen {
		return false
	}
	return in.Profile != "" || len(in.History) > 0
}

// DeviationOutput says whether current behavior departs from the stored
// profile or meeting history, and how badly.
type DeviationOutput struct {
	Found             bool
	Type              DeviationType
	Severity          Severity
	Description       string
	RecommendedAction string
}

func defaultDeviation() DeviationOutput {
	return DeviationOutput{Found: false}
}

type deviationWire struct {
	Found             bool   `json:"deviation_found"`
	Type              string `json:"deviation_type"`
	Severity          string `json:"severity"`
	Description       string `json:"description"`
	RecommendedAction string `json:"recommended_action"`
}

// DeviationAgent compares live behavior against the stored employee
// baseline.
type DeviationAgent struct {
	run     *runner
	model   string
	timeout time.Duration
}

func NewDeviationAgent(client llm.Client, logger *zap.Logger, model string, timeout time.Duration, temperature float64, maxTokens int) *DeviationAgent {
	return &DeviationAgent{
		run:     newRunner(client, logger, temperature, maxTokens),
		model:   model,
		timeout: timeout,
	}
}

// Analyze looks for a behavioral deviation. Callers must check
// in.Comparable first; an incomparable input returns the default without a
// backend call.
func (a *DeviationAgent) Analyze(ctx context.Context, in DeviationInput) Result[DeviationOutput] {
	start := time.Now()
	if !in.Comparable() {
		return Result[DeviationOutput]{Output: defaultDeviation(), Duration: time.Since(start)}
	}

	var wire deviationWire
	ok := a.run.invoke(ctx, "deviation", a.model, deviationSystem, deviationPrompt(in), a.timeout, &wire)
	if !ok {
		return Result[DeviationOutput]{Output: defaultDeviation(), Duration: time.Since(start)}
	}

	out := DeviationOutput{Found: wire.Found}
	if wire.Found {
		if wire.Description == "" {
			// A deviation with no description cannot be surfaced.
			out.Found = false
		} else {
			out.Type = validDeviationType(wire.Type)
			out.Severity = validSeverity(wire.Severity)
			out.Description = truncate(wire.Description, maxFreeTextLen)
			out.RecommendedAction = truncate(wire.RecommendedAction, maxFreeTextLen)
		}
	}
	return Result[DeviationOutput]{Output: out, Duration: time.Since(start)}
}
