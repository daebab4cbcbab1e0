package agents

import (
	"context"
	"time"

	"go.uber.org/zap"

	"meetpilot/internal/llm"
)

// ComposeInput carries the chosen subject into message composition. Exactly
// one of Insight or Deviation is the subject; Deviation wins when Insight
// is nil.
type ComposeInput struct {
	Insight   *Insight
	Deviation *DeviationOutput
	Type      InterventionType
	Priority  Priority
}

// ComposeOutput is the final rendered intervention. Card is non-nil only
// when the model proposed a card that passed the kind whitelist and carried
// a title.
type ComposeOutput struct {
	Message string
	Format  MessageFormat
	Card    *ActionCard
}

type composeWire struct {
	Message string `json:"message"`
	Format  string `json:"format"`
	Card    *struct {
		Kind     string `json:"kind"`
		Title    string `json:"title"`
		Subtitle string `json:"subtitle"`
		CTA      string `json:"cta"`
	} `json:"card"`
}

// ComposeAgent turns a decision into the short message the manager sees.
type ComposeAgent struct {
	run     *runner
	model   string
	timeout time.Duration
}

func NewComposeAgent(client llm.Client, logger *zap.Logger, model string, timeout time.Duration, temperature float64, maxTokens int) *ComposeAgent {
	return &ComposeAgent{
		run:     newRunner(client, logger, temperature, maxTokens),
		model:   model,
		timeout: timeout,
	}
}

// fallbackMessage renders the subject directly when composition fails. The
// turn already decided to intervene, so losing the wording must not lose
// the intervention.
func fallbackMessage(in ComposeInput) ComposeOutput {
	var text string
	switch {
	case in.Insight != nil && in.Insight.Recommendation != "":
		text = in.Insight.Recommendation
	case in.Insight != nil:
		text = in.Insight.Text
	case in.Deviation != nil && in.Deviation.RecommendedAction != "":
		text = in.Deviation.RecommendedAction
	case in.Deviation != nil:
		text = in.Deviation.Description
	}
	return ComposeOutput{Message: text, Format: FormatPlain}
}

// Compose renders the intervention. Malformed card fields degrade the card
// away rather than failing the message.
func (a *ComposeAgent) Compose(ctx context.Context, in ComposeInput) Result[ComposeOutput] {
	start := time.Now()
	var wire composeWire
	ok := a.run.invoke(ctx, "compose", a.model, composeSystem, composePrompt(in), a.timeout, &wire)
	if !ok || wire.Message == "" {
		return Result[ComposeOutput]{Output: fallbackMessage(in), Duration: time.Since(start)}
	}

	out := ComposeOutput{
		Message: truncate(wire.Message, maxFreeTextLen),
		Format:  validFormat(wire.Format),
	}
	if wire.Card != nil && wire.Card.Title != "" {
		if kind, valid := validCardKind(wire.Card.Kind); valid {
			out.Card = &ActionCard{
				Kind:     kind,
				Title:    truncate(wire.Card.Title, maxFreeTextLen),
				Subtitle: truncate(wire.Card.Subtitle, maxFreeTextLen),
				CTA:      truncate(wire.Card.CTA, maxFreeTextLen),
			}
		}
	}
	return Result[ComposeOutput]{Output: out, Duration: time.Since(start)}
}
