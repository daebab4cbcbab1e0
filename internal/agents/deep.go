package agents

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"meetpilot/internal/llm"
)

// DeepInput is everything the expensive stage sees: the notes plus the
// stored context for this employee.
type DeepInput struct {
	NoteText    string
	Profile     string
	History     []MeetingSummary
	Commitments []Commitment
}

// DeepOutput is the ranked insight list and the aggregate employee state.
// Insights are sorted by confidence, capped at the configured maximum, and
// never include entries below the configured confidence floor.
type DeepOutput struct {
	Insights []Insight
	State    EmployeeState
}

// defaultDeep is the failure output: nothing to say, neutral read.
func defaultDeep() DeepOutput {
	return DeepOutput{
		State: EmployeeState{
			Sentiment:  SentimentNeutral,
			Engagement: EngagementMedium,
			Mode:       ModeDialogue,
		},
	}
}

type deepWire struct {
	Insights []struct {
		Kind           string  `json:"kind"`
		Text           string  `json:"text"`
		Recommendation string  `json:"recommendation"`
		Confidence     float64 `json:"confidence"`
	} `json:"insights"`
	State struct {
		Sentiment  string   `json:"sentiment"`
		Engagement string   `json:"engagement"`
		Mode       string   `json:"interaction_mode"`
		Topics     []string `json:"topics"`
	} `json:"state"`
}

// DeepAgent runs the large model with full employee context.
type DeepAgent struct {
	run           *runner
	model         string
	timeout       time.Duration
	minConfidence float64
	maxInsights   int
}

func NewDeepAgent(client llm.Client, logger *zap.Logger, model string, timeout time.Duration, temperature float64, maxTokens int, minConfidence float64, maxInsights int) *DeepAgent {
	return &DeepAgent{
		run:           newRunner(client, logger, temperature, maxTokens),
		model:         model,
		timeout:       timeout,
		minConfidence: minConfidence,
		maxInsights:   maxInsights,
	}
}

// Analyze produces the full analysis for the current notes.
func (a *DeepAgent) Analyze(ctx context.Context, in DeepInput) Result[DeepOutput] {
	start := time.Now()
	var wire deepWire
	ok := a.run.invoke(ctx, "deep", a.model, deepSystem, deepPrompt(in), a.timeout, &wire)
	if !ok {
		return Result[DeepOutput]{Output: defaultDeep(), Duration: time.Since(start)}
	}

	out := DeepOutput{
		State: EmployeeState{
			Sentiment:  validSentiment(wire.State.Sentiment),
			Engagement: validEngagement(wire.State.Engagement),
			Mode:       validMode(wire.State.Mode),
		},
	}
	for _, t := range wire.State.Topics {
		if t != "" {
			out.State.Topics = append(out.State.Topics, truncate(t, maxFreeTextLen))
		}
	}

	for _, w := range wire.Insights {
		if w.Text == "" {
			continue
		}
		ins := validInsight(w.Kind, w.Text, w.Recommendation, w.Confidence)
		if ins.Confidence < a.minConfidence {
			continue
		}
		out.Insights = append(out.Insights, ins)
	}
	sort.SliceStable(out.Insights, func(i, j int) bool {
		return out.Insights[i].Confidence > out.Insights[j].Confidence
	})
	if a.maxInsights > 0 && len(out.Insights) > a.maxInsights {
		out.Insights = out.Insights[:a.maxInsights]
	}

	return Result[DeepOutput]{Output: out, Duration: time.Since(start)}
}
