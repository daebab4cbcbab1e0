package agents

import (
	"fmt"
	"strings"
	"time"
)

// Prompt builders. Every system prompt pins the output to a single JSON
// object; the normalizer downstream tolerates fencing and prose anyway.

const fastPathSystem = `You are a real-time assistant for a manager running a one-on-one meeting.
You see the manager's live notes. Look for ONE immediately useful tip.
Respond with a single JSON object:
{"advice_found": bool, "needs_deep_analysis": bool, "kind": "observation|risk|opportunity|question", "advice": string, "recommendation": string, "confidence": number 0..1}
Set needs_deep_analysis when the notes hint at something worth a slower, fuller read.
If nothing useful stands out, return advice_found false. Do not invent.`

func fastPathPrompt(noteText string) string {
	return fmt.Sprintf("Current meeting notes:\n\n%s", noteText)
}

const deepSystem = `You are an expert coach analyzing a manager's live one-on-one notes together
with the employee's stored profile, meeting history and open commitments.
Respond with a single JSON object:
{"insights": [{"kind": "observation|risk|opportunity|question", "text": string, "recommendation": string, "confidence": number 0..1}],
 "state": {"sentiment": "positive|neutral|negative|mixed", "engagement": "high|medium|low", "interaction_mode": "dialogue|monologue|listening|conflict", "topics": [string]}}
Rank insights by confidence. Prefer few strong insights over many weak ones.`

func deepPrompt(in DeepInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current meeting notes:\n\n%s\n", in.NoteText)
	if in.Profile != "" {
		fmt.Fprintf(&b, "\nEmployee profile:\n%s\n", in.Profile)
	}
	if len(in.History) > 0 {
		b.WriteString("\nPrevious meetings, newest first:\n")
		for _, m := range in.History {
			fmt.Fprintf(&b, "- %s", m.Date.Format("2006-01-02"))
			if m.Satisfaction > 0 {
				fmt.Fprintf(&b, " (satisfaction %d/5)", m.Satisfaction)
			}
			fmt.Fprintf(&b, ": %s\n", m.Notes)
		}
	}
	if len(in.Commitments) > 0 {
		b.WriteString("\nOpen commitments:\n")
		for _, c := range in.Commitments {
			fmt.Fprintf(&b, "- [%s] %s", commitmentWeightLabel(c), c.Text)
			if !c.DueDate.IsZero() {
				fmt.Fprintf(&b, " (due %s)", c.DueDate.Format("2006-01-02"))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// commitmentWeightLabel marks how much a commitment should weigh on the
// analysis based on its age. Fresh agreements matter most.
func commitmentWeightLabel(c Commitment) string {
	age := time.Since(c.AgedAt)
	switch {
	case age <= 7*24*time.Hour:
		return "fresh"
	case age <= 30*24*time.Hour:
		return "recent"
	default:
		return "stale"
	}
}

const deviationSystem = `You compare an employee's behavior in the current one-on-one against their
stored profile and meeting history. Report only genuine departures from the
established pattern, not ordinary variation.
Respond with a single JSON object:
{"deviation_found": bool, "deviation_type": "profile_mismatch|history_anomaly|both", "severity": "critical|significant|minor", "description": string, "recommended_action": string}`

func deviationPrompt(in DeviationInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current behavior in this meeting:\n\n%s\n", in.CurrentBehavior)
	if in.Profile != "" {
		fmt.Fprintf(&b, "\nStored profile:\n%s\n", in.Profile)
	}
	if len(in.History) > 0 {
		b.WriteString("\nPrevious meetings, newest first:\n")
		for _, m := range in.History {
			fmt.Fprintf(&b, "- %s: %s\n", m.Date.Format("2006-01-02"), m.Notes)
		}
	}
	return b.String()
}

const decisionSystem = `You are the gatekeeper for a meeting co-pilot. Interrupting a live
conversation has a real cost. Decide whether any candidate below earns a
message to the manager RIGHT NOW. When in doubt, stay silent.
Respond with a single JSON object:
{"intervene": bool, "reason": string, "intervention_type": "observation|question|suggestion|warning", "priority": "high|medium|low", "insight_index": number or null}
insight_index picks a candidate insight by its listed index; use null when
the deviation is the subject instead.`

func decisionPrompt(in DecisionInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session so far: %.0f minutes, %d messages already sent.\n", in.SessionMinutes, in.MessagesSent)
	if len(in.RecentMessages) > 0 {
		b.WriteString("\nMessages already shown to the manager:\n")
		for _, m := range in.RecentMessages {
			fmt.Fprintf(&b, "- %s\n", m)
		}
	}
	if len(in.Insights) > 0 {
		b.WriteString("\nCandidate insights:\n")
		for i, ins := range in.Insights {
			fmt.Fprintf(&b, "%d. [%s, confidence %.2f] %s", i, ins.Kind, ins.Confidence, ins.Text)
			if ins.Recommendation != "" {
				fmt.Fprintf(&b, " Recommendation: %s", ins.Recommendation)
			}
			b.WriteString("\n")
		}
	}
	if in.Deviation.Found {
		fmt.Fprintf(&b, "\nDetected deviation [%s, %s]: %s\n", in.Deviation.Type, in.Deviation.Severity, in.Deviation.Description)
	}
	return b.String()
}

const composeSystem = `You write the short message a meeting co-pilot shows to a manager during a
live one-on-one. Two sentences maximum, actionable, no preamble. Match the
language of the subject material.
Respond with a single JSON object:
{"message": string, "format": "plain|list|question", "card": null or {"kind": "task|followup|survey|agreement", "title": string, "subtitle": string, "cta": string}}
Include a card only when a concrete next step deserves one tap.`

func composePrompt(in ComposeInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Intervention type: %s, priority: %s.\n\n", in.Type, in.Priority)
	switch {
	case in.Insight != nil:
		fmt.Fprintf(&b, "Subject insight [%s]: %s\n", in.Insight.Kind, in.Insight.Text)
		if in.Insight.Recommendation != "" {
			fmt.Fprintf(&b, "Recommendation: %s\n", in.Insight.Recommendation)
		}
	case in.Deviation != nil:
		fmt.Fprintf(&b, "Subject deviation [%s, %s]: %s\n", in.Deviation.Type, in.Deviation.Severity, in.Deviation.Description)
		if in.Deviation.RecommendedAction != "" {
			fmt.Fprintf(&b, "Recommended action: %s\n", in.Deviation.RecommendedAction)
		}
	}
	return b.String()
}
