// Package orchestrator sequences the reasoning pipeline for each session
// turn: throttle entry, supersede-and-cancel of the prior turn, staged agent
// calls with cancellation checkpoints, and exactly-once emission of the
// resulting events.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"meetpilot/internal/agents"
	"meetpilot/internal/config"
	"meetpilot/internal/detector"
	"meetpilot/internal/llm"
	"meetpilot/internal/session"
)

// historyLimit is how many prior completed meetings feed deep analysis.
const historyLimit = 5

// Turn outcomes, used for logging and the turns_total metric.
const (
	outcomeSilent        = "silent"
	outcomeMessage       = "message"
	outcomeDeviationOnly = "deviation_only"
	outcomeCancelled     = "cancelled"
	outcomeThrottled     = "throttled"
)

// ProfileSummary is the stored context the profile provider assembles for
// one employee.
type ProfileSummary struct {
	Text        string
	Commitments []agents.Commitment
}

// ProfileProvider assembles the stored profile and open commitments for an
// employee. Reads are side-effect free; a failed read degrades to absent.
type ProfileProvider interface {
	ProfileSummary(ctx context.Context, employeeID string) (ProfileSummary, error)
}

// HistoryProvider lists prior completed meetings for an employee, newest
// first.
type HistoryProvider interface {
	RecentMeetings(ctx context.Context, employeeID string, limit int) ([]agents.MeetingSummary, error)
}

// Agents bundles the five pipeline stages.
type Agents struct {
	FastPath  *agents.FastPathAgent
	Deep      *agents.DeepAgent
	Deviation *agents.DeviationAgent
	Decision  *agents.DecisionAgent
	Compose   *agents.ComposeAgent
}

// NewAgents wires the five stages onto one backend client using the
// configured per-role models and timeouts.
func NewAgents(client llm.Client, logger *zap.Logger, cfg *config.Config) Agents {
	l := cfg.LLM
	t := cfg.Timeouts
	return Agents{
		FastPath:  agents.NewFastPathAgent(client, logger, l.Models.FastPath, t.FastPath(), l.Temperature, l.MaxTokens),
		Deep:      agents.NewDeepAgent(client, logger, l.Models.Deep, t.Deep(), l.Temperature, l.MaxTokens, cfg.Analysis.MinInsightConfidence, cfg.Analysis.MaxInsights),
		Deviation: agents.NewDeviationAgent(client, logger, l.Models.Deviation, t.Deviation(), l.Temperature, l.MaxTokens),
		Decision:  agents.NewDecisionAgent(client, logger, l.Models.Decision, t.Decision(), l.Temperature, l.MaxTokens),
		Compose:   agents.NewComposeAgent(client, logger, l.Models.Compose, t.Compose(), l.Temperature, l.MaxTokens),
	}
}

// turn is the active-run slot for one session. The pointer identity lets a
// finishing turn clear only its own slot.
type turn struct {
	cancel context.CancelFunc
}

// Orchestrator drives one turn at a time per session key. Distinct keys run
// fully independently; within one key a new turn always cancels the prior
// one before doing any work, so at most one turn's events are ever emitted.
type Orchestrator struct {
	store    *session.PolicyStore
	detector *detector.Detector
	agents   Agents
	profiles ProfileProvider
	history  HistoryProvider
	emit     Emitter
	logger   *zap.Logger
	timeouts config.TimeoutConfig

	mu     sync.Mutex
	active map[session.Key]*turn
}

// New creates the orchestrator and its detector. The emitter receives each
// completed turn's events on the turn's own goroutine.
func New(store *session.PolicyStore, ag Agents, profiles ProfileProvider, history HistoryProvider, emit Emitter, logger *zap.Logger, timeouts config.TimeoutConfig) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		store:    store,
		agents:   ag,
		profiles: profiles,
		history:  history,
		emit:     emit,
		logger:   logger.Named("orchestrator"),
		timeouts: timeouts,
		active:   make(map[session.Key]*turn),
	}
	o.detector = detector.New(store, o.onVerdict, logger)
	return o
}

// Detector exposes the owned detector for shutdown wiring.
func (o *Orchestrator) Detector() *detector.Detector {
	return o.detector
}

// HandleTextChanged feeds a live text snapshot into the debounce machinery.
// Returns immediately; any resulting turn runs after the quiet period.
func (o *Orchestrator) HandleTextChanged(key session.Key, text string) {
	o.detector.OnTextChange(key, text)
}

// HandleExplicitMessage runs a turn for a directly submitted note,
// bypassing the debounce and word-delta gates. The throttle still applies.
// Blocks until the turn completes.
func (o *Orchestrator) HandleExplicitMessage(key session.Key, text string) {
	o.runTurn(key, text)
}

// EndMeeting cancels any in-flight turn and drops all session state.
func (o *Orchestrator) EndMeeting(key session.Key) {
	o.mu.Lock()
	if tn := o.active[key]; tn != nil {
		tn.cancel()
		delete(o.active, key)
	}
	o.mu.Unlock()
	o.detector.Cancel(key)
	o.store.Clear(key)
	o.logger.Info("meeting ended", zap.String("session", key.String()))
}

// onVerdict receives the detector's decision after a quiet period.
func (o *Orchestrator) onVerdict(key session.Key, v detector.Verdict) {
	if !v.Analyze {
		gateRejections.WithLabelValues(v.Reason).Inc()
		return
	}
	// The deletion override already reset the baseline and must not be
	// re-gated on word counts; incremental turns pass the policy store's
	// combined debounce and delta check.
	if !v.BaselineReset {
		if d := o.store.ShouldAnalyze(key, v.Text); !d.Allow {
			gateRejections.WithLabelValues(d.Reason).Inc()
			o.logger.Debug("analysis gated",
				zap.String("session", key.String()),
				zap.String("reason", d.Reason))
			return
		}
	}
	o.runTurn(key, v.Text)
}

// runTurn runs one full pipeline turn synchronously.
func (o *Orchestrator) runTurn(key session.Key, text string) {
	if !o.store.RespondAvailable(key) {
		gateRejections.WithLabelValues("throttle window open").Inc()
		o.logger.Debug("turn rejected at entry, throttle window open",
			zap.String("session", key.String()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.timeouts.PipelineTotal())
	tn := &turn{cancel: cancel}

	o.mu.Lock()
	if prev := o.active[key]; prev != nil {
		prev.cancel()
	}
	o.active[key] = tn
	o.mu.Unlock()

	defer func() {
		cancel()
		o.mu.Lock()
		if o.active[key] == tn {
			delete(o.active, key)
		}
		o.mu.Unlock()
	}()

	start := time.Now()
	outcome := o.execute(ctx, key, text)
	turnsTotal.WithLabelValues(outcome).Inc()
	o.logger.Debug("turn finished",
		zap.String("session", key.String()),
		zap.String("outcome", outcome),
		zap.Duration("took", time.Since(start)))
}

// execute is the stage sequence. Every agent call is bracketed by
// cancellation checkpoints; a cancelled turn emits nothing.
func (o *Orchestrator) execute(ctx context.Context, key session.Key, text string) string {
	employeeID := key.EmployeeID()

	fp := o.agents.FastPath.Analyze(ctx, text)
	agentDuration.WithLabelValues("fast_path").Observe(fp.Duration.Seconds())
	if ctx.Err() != nil {
		return outcomeCancelled
	}

	var (
		insights      []agents.Insight
		deviation     agents.DeviationOutput
		profileText   string
		profileLoaded bool
		deepRan       bool
	)

	switch {
	case fp.Output.AdviceFound && fp.Output.Insight != nil:
		insights = append(insights, *fp.Output.Insight)

	case !fp.Output.NeedsDeepAnalysis:
		// Nothing actionable and nothing worth a deeper look: stop here
		// with the throttle and baseline untouched.
		return outcomeSilent

	default:
		summary := o.profileSummary(ctx, employeeID)
		history := o.recentMeetings(ctx, employeeID)
		profileText, profileLoaded = summary.Text, true

		deep := o.agents.Deep.Analyze(ctx, agents.DeepInput{
			NoteText:    text,
			Profile:     summary.Text,
			History:     history,
			Commitments: summary.Commitments,
		})
		agentDuration.WithLabelValues("deep").Observe(deep.Duration.Seconds())
		if ctx.Err() != nil {
			return outcomeCancelled
		}
		deepRan = true
		insights = deep.Output.Insights

		devIn := agents.DeviationInput{
			CurrentBehavior: describeBehavior(deep.Output.State),
			Profile:         summary.Text,
			History:         history,
		}
		if devIn.Comparable() {
			dev := o.agents.Deviation.Analyze(ctx, devIn)
			agentDuration.WithLabelValues("deviation").Observe(dev.Duration.Seconds())
			if ctx.Err() != nil {
				return outcomeCancelled
			}
			deviation = dev.Output
		}
	}

	sc := o.store.SessionContext(key)
	dec := o.agents.Decision.Decide(ctx, agents.DecisionInput{
		Insights:       insights,
		Deviation:      deviation,
		SessionMinutes: sc.Elapsed.Minutes(),
		MessagesSent:   sc.InterventionCount,
		RecentMessages: sc.RecentMessages,
	})
	agentDuration.WithLabelValues("decision").Observe(dec.Duration.Seconds())
	if ctx.Err() != nil {
		return outcomeCancelled
	}

	var events []Event
	outcome := outcomeSilent

	if dec.Output.Intervene {
		in := agents.ComposeInput{Type: dec.Output.Type, Priority: dec.Output.Priority}
		if dec.Output.InsightIndex >= 0 {
			in.Insight = &insights[dec.Output.InsightIndex]
		} else {
			in.Deviation = &deviation
		}
		comp := o.agents.Compose.Compose(ctx, in)
		agentDuration.WithLabelValues("compose").Observe(comp.Duration.Seconds())
		if ctx.Err() != nil {
			return outcomeCancelled
		}
		if comp.Output.Message != "" {
			events = append(events, Event{
				Kind:     EventMessage,
				Text:     comp.Output.Message,
				Format:   comp.Output.Format,
				Priority: dec.Output.Priority,
			})
			outcome = outcomeMessage
		}
		if comp.Output.Card != nil {
			events = append(events, Event{Kind: EventActionCard, Card: cardFromCompose(comp.Output.Card)})
			outcome = outcomeMessage
		}
	} else if deviation.Found {
		events = append(events, Event{Kind: EventActionCard, Card: deviationCard(deviation)})
		outcome = outcomeDeviationOnly
	}

	// One-shot survey offer when the stored profile is thin. The flag is
	// only consumed when the card actually goes out.
	surveyIncluded := false
	if !o.store.SurveyOffered(key) {
		if !profileLoaded {
			profileText = o.profileSummary(ctx, employeeID).Text
		}
		if utf8.RuneCountInString(profileText) < o.store.Gating().SurveyRichnessChars {
			events = append(events, Event{Kind: EventActionCard, Card: surveyCard()})
			surveyIncluded = true
		}
	}

	if len(events) == 0 {
		if deepRan {
			o.detector.MarkBaseline(key, text)
		}
		return outcome
	}
	if ctx.Err() != nil {
		return outcomeCancelled
	}

	// The throttle is consumed at the last possible moment so that silent
	// turns never move the intervention clock.
	if !o.store.CanRespondNow(key) {
		if deepRan {
			o.detector.MarkBaseline(key, text)
		}
		gateRejections.WithLabelValues("throttle consumed concurrently").Inc()
		return outcomeThrottled
	}

	o.store.RecordIntervention(key)
	for _, ev := range events {
		if ev.Kind == EventMessage {
			o.store.PushMessage(key, ev.Text)
		}
	}
	if surveyIncluded {
		o.store.MarkSurveyOffered(key)
	}
	if deepRan {
		o.detector.MarkBaseline(key, text)
	}
	if o.emit != nil {
		o.emit(key, events)
	}
	return outcome
}

// profileSummary wraps the provider read; failure degrades to absent.
func (o *Orchestrator) profileSummary(ctx context.Context, employeeID string) ProfileSummary {
	if o.profiles == nil {
		return ProfileSummary{}
	}
	s, err := o.profiles.ProfileSummary(ctx, employeeID)
	if err != nil {
		o.logger.Warn("profile read failed, treating as absent",
			zap.String("employee", employeeID), zap.Error(err))
		return ProfileSummary{}
	}
	return s
}

// recentMeetings wraps the provider read; failure degrades to empty.
func (o *Orchestrator) recentMeetings(ctx context.Context, employeeID string) []agents.MeetingSummary {
	if o.history == nil {
		return nil
	}
	ms, err := o.history.RecentMeetings(ctx, employeeID, historyLimit)
	if err != nil {
		o.logger.Warn("history read failed, treating as empty",
			zap.String("employee", employeeID), zap.Error(err))
		return nil
	}
	return ms
}

// describeBehavior renders the deep-analysis state as the current-behavior
// text the deviation stage compares against stored context.
func describeBehavior(state agents.EmployeeState) string {
	desc := fmt.Sprintf("sentiment %s, engagement %s, interaction mode %s",
		state.Sentiment, state.Engagement, state.Mode)
	if len(state.Topics) > 0 {
		desc += ", topics: " + strings.Join(state.Topics, ", ")
	}
	return desc
}
