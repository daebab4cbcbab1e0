package agents

import (
	"context"
	"time"

	"go.uber.org/zap"

	"meetpilot/internal/llm"
)

// DecisionInput is everything the gatekeeper weighs: the candidate
// insights, any deviation, and the session's intervention pressure so far.
type DecisionInput struct {
	Insights       []Insight
	Deviation      DeviationOutput
	SessionMinutes float64
	MessagesSent   int
	RecentMessages []string
}

// DecisionOutput is the intervene-or-stay-silent verdict. InsightIndex
// selects which candidate insight to compose, -1 when the deviation is the
// subject instead.
type DecisionOutput struct {
	Intervene    bool
	Reason       string
	Type         InterventionType
	Priority     Priority
	InsightIndex int
}

// defaultDecision is always silence. A broken gatekeeper never interrupts
// a live meeting.
func defaultDecision() DecisionOutput {
	return DecisionOutput{Intervene: false}
}

type decisionWire struct {
	Intervene    bool   `json:"intervene"`
	Reason       string `json:"reason"`
	Type         string `json:"intervention_type"`
	Priority     string `json:"priority"`
	InsightIndex *int   `json:"insight_index"`
}

// DecisionAgent decides whether anything earned the manager's attention
// right now.
type DecisionAgent struct {
	run     *runner
	model   string
	timeout time.Duration
}

func NewDecisionAgent(client llm.Client, logger *zap.Logger, model string, timeout time.Duration, temperature float64, maxTokens int) *DecisionAgent {
	return &DecisionAgent{
		run:     newRunner(client, logger, temperature, maxTokens),
		model:   model,
		timeout: timeout,
	}
}

// Decide weighs the candidates against session pressure. Any failure, and
// any structurally inconsistent answer, resolves to silence.
func (a *DecisionAgent) Decide(ctx context.Context, in DecisionInput) Result[DecisionOutput] {
	start := time.Now()
	if len(in.Insights) == 0 && !in.Deviation.Found {
		return Result[DecisionOutput]{Output: defaultDecision(), Duration: time.Since(start)}
	}

	var wire decisionWire
	ok := a.run.invoke(ctx, "decision", a.model, decisionSystem, decisionPrompt(in), a.timeout, &wire)
	if !ok {
		return Result[DecisionOutput]{Output: defaultDecision(), Duration: time.Since(start)}
	}
	if !wire.Intervene {
		return Result[DecisionOutput]{Output: defaultDecision(), Duration: time.Since(start)}
	}

	out := DecisionOutput{
		Intervene:    true,
		Reason:       truncate(wire.Reason, maxFreeTextLen),
		Type:         validInterventionType(wire.Type),
		Priority:     validPriority(wire.Priority),
		InsightIndex: -1,
	}
	if wire.InsightIndex != nil && *wire.InsightIndex >= 0 && *wire.InsightIndex < len(in.Insights) {
		out.InsightIndex = *wire.InsightIndex
	}
	if out.InsightIndex < 0 && !in.Deviation.Found {
		// Intervene with no valid subject at all. Stay silent.
		return Result[DecisionOutput]{Output: defaultDecision(), Duration: time.Since(start)}
	}
	return Result[DecisionOutput]{Output: out, Duration: time.Since(start)}
}
