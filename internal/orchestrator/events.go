package orchestrator

import (
	"meetpilot/internal/agents"
	"meetpilot/internal/session"
)

// Outbound event kinds.
const (
	EventMessage    = "message"
	EventActionCard = "action-card"
)

// Card is the wire shape of an action card shown to the manager. Kind is
// wider than the compose whitelist: the orchestrator itself emits
// "deviation" and "survey" cards.
type Card struct {
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	CTA      string `json:"cta,omitempty"`
}

// Event is one outbound item. A completed turn emits an ordered list of
// zero or more of these, exactly once.
type Event struct {
	Kind     string               `json:"kind"`
	Text     string               `json:"text,omitempty"`
	Format   agents.MessageFormat `json:"format,omitempty"`
	Priority agents.Priority      `json:"priority,omitempty"`
	Card     *Card                `json:"card,omitempty"`
}

// Emitter delivers a completed turn's events to the transport layer.
type Emitter func(key session.Key, events []Event)

func cardFromCompose(c *agents.ActionCard) *Card {
	return &Card{
		Kind:     string(c.Kind),
		Title:    c.Title,
		Subtitle: c.Subtitle,
		CTA:      c.CTA,
	}
}

func deviationCard(dev agents.DeviationOutput) *Card {
	sub := dev.RecommendedAction
	return &Card{
		Kind:     "deviation",
		Title:    dev.Description,
		Subtitle: sub,
		CTA:      "Review",
	}
}

func surveyCard() *Card {
	return &Card{
		Kind:     "survey",
		Title:    "Tell me more about this person",
		Subtitle: "A short survey sharpens future analysis",
		CTA:      "Start survey",
	}
}
