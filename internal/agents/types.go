// Package agents implements the five reasoning stages of a pipeline turn:
// fast-path analysis, deep analysis, deviation analysis, the intervene
// decision, and message composition. Every agent wraps one call to the
// text-generation backend plus a normalization pass, and converts failure
// of any kind into its documented, least-assertive default output.
package agents

import (
	"time"
)

// maxFreeTextLen bounds every free-text field recovered from model output.
const maxFreeTextLen = 500

// Result wraps an agent's output with its wall-clock duration. Output is
// always fully populated and schema-valid, even when the underlying call
// failed.
type Result[T any] struct {
	Output   T
	Duration time.Duration
}

// Sentiment is the aggregate emotional read of the employee.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
	SentimentMixed    Sentiment = "mixed"
)

// Engagement is how involved the employee currently is.
type Engagement string

const (
	EngagementHigh   Engagement = "high"
	EngagementMedium Engagement = "medium"
	EngagementLow    Engagement = "low"
)

// InteractionMode describes the conversational dynamic.
type InteractionMode string

const (
	ModeDialogue  InteractionMode = "dialogue"
	ModeMonologue InteractionMode = "monologue"
	ModeListening InteractionMode = "listening"
	ModeConflict  InteractionMode = "conflict"
)

// InsightKind classifies a single insight.
type InsightKind string

const (
	InsightObservation InsightKind = "observation"
	InsightRisk        InsightKind = "risk"
	InsightOpportunity InsightKind = "opportunity"
	InsightQuestion    InsightKind = "question"
)

// Insight is one actionable observation extracted from the notes.
type Insight struct {
	Kind           InsightKind
	Text           string
	Recommendation string
	Confidence     float64
}

// EmployeeState is the aggregate read returned by deep analysis.
type EmployeeState struct {
	Sentiment  Sentiment
	Engagement Engagement
	Mode       InteractionMode
	Topics     []string
}

// DeviationType says what the current behavior deviates from.
type DeviationType string

const (
	DeviationProfileMismatch DeviationType = "profile_mismatch"
	DeviationHistoryAnomaly  DeviationType = "history_anomaly"
	DeviationBoth            DeviationType = "both"
)

// Severity grades a detected deviation.
type Severity string

const (
	SeverityCritical    Severity = "critical"
	SeveritySignificant Severity = "significant"
	SeverityMinor       Severity = "minor"
)

// InterventionType classifies a surfaced message.
type InterventionType string

const (
	InterventionObservation InterventionType = "observation"
	InterventionQuestion    InterventionType = "question"
	InterventionSuggestion  InterventionType = "suggestion"
	InterventionWarning     InterventionType = "warning"
)

// Priority grades how urgently an intervention should surface.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// MessageFormat shapes a composed plain-text message.
type MessageFormat string

const (
	FormatPlain    MessageFormat = "plain"
	FormatList     MessageFormat = "list"
	FormatQuestion MessageFormat = "question"
)

// CardKind is the whitelisted set of action-card kinds.
type CardKind string

const (
	CardTask      CardKind = "task"
	CardFollowUp  CardKind = "followup"
	CardSurvey    CardKind = "survey"
	CardAgreement CardKind = "agreement"
)

// ActionCard is a structured suggestion rendered as an interactive card.
type ActionCard struct {
	Kind     CardKind
	Title    string
	Subtitle string
	CTA      string
}

// MeetingSummary is one prior completed meeting, supplied by the history
// context provider.
type MeetingSummary struct {
	Date         time.Time
	Notes        string
	Satisfaction int // 0 when not rated
}

// Commitment is one open agreement, supplied by the profile context
// provider. Weight reflects recency and is computed at prompt-build time.
type Commitment struct {
	Text    string
	DueDate time.Time
	AgedAt  time.Time
}

// ---------------------------------------------------------------------------
// Validation helpers
// ---------------------------------------------------------------------------

// clampConfidence forces a score into [0,1].
func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// truncate bounds free text without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// pickEnum returns raw if it appears in allowed, the fallback otherwise.
func pickEnum[T ~string](raw string, allowed []T, fallback T) T {
	for _, a := range allowed {
		if raw == string(a) {
			return a
		}
	}
	return fallback
}

func validSentiment(raw string) Sentiment {
	return pickEnum(raw, []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative, SentimentMixed}, SentimentNeutral)
}

func validEngagement(raw string) Engagement {
	return pickEnum(raw, []Engagement{EngagementHigh, EngagementMedium, EngagementLow}, EngagementMedium)
}

func validMode(raw string) InteractionMode {
	return pickEnum(raw, []InteractionMode{ModeDialogue, ModeMonologue, ModeListening, ModeConflict}, ModeDialogue)
}

func validInsightKind(raw string) InsightKind {
	return pickEnum(raw, []InsightKind{InsightObservation, InsightRisk, InsightOpportunity, InsightQuestion}, InsightObservation)
}

func validDeviationType(raw string) DeviationType {
	return pickEnum(raw, []DeviationType{DeviationProfileMismatch, DeviationHistoryAnomaly, DeviationBoth}, DeviationHistoryAnomaly)
}

func validSeverity(raw string) Severity {
	return pickEnum(raw, []Severity{SeverityCritical, SeveritySignificant, SeverityMinor}, SeverityMinor)
}

func validInterventionType(raw string) InterventionType {
	return pickEnum(raw, []InterventionType{InterventionObservation, InterventionQuestion, InterventionSuggestion, InterventionWarning}, InterventionObservation)
}

func validPriority(raw string) Priority {
	return pickEnum(raw, []Priority{PriorityHigh, PriorityMedium, PriorityLow}, PriorityMedium)
}

func validFormat(raw string) MessageFormat {
	return pickEnum(raw, []MessageFormat{FormatPlain, FormatList, FormatQuestion}, FormatPlain)
}

// validCardKind reports whether raw is a whitelisted kind. Unlike the other
// enums there is no fallback: a card with an unknown kind is rejected and
// composition falls back to a plain message.
func validCardKind(raw string) (CardKind, bool) {
	for _, k := range []CardKind{CardTask, CardFollowUp, CardSurvey, CardAgreement} {
		if raw == string(k) {
			return k, true
		}
	}
	return "", false
}

// validInsight validates and clamps a wire insight.
func validInsight(kind, text, recommendation string, confidence float64) Insight {
	return Insight{
		Kind:           validInsightKind(kind),
		Text:           truncate(text, maxFreeTextLen),
		Recommendation: truncate(recommendation, maxFreeTextLen),
		Confidence:     clampConfidence(confidence),
	}
}
