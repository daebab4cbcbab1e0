package session

import (
	"sync"
	"time"

	"meetpilot/internal/config"
)

// maxRecentMessages bounds the per-session outbound message history used for
// duplicate avoidance and UI replay. Oldest entries are evicted first.
const maxRecentMessages = 10

// state is one session's mutable record. Access is guarded by the store's
// mutex; no field escapes by reference.
type state struct {
	startedAt          time.Time
	lastInterventionAt time.Time
	lastInputChangeAt  time.Time

	baselineText  string
	baselineWords map[string]struct{}

	recentMessages    []string
	interventionCount int
	surveyOffered     bool
}

// Context is a read-only snapshot of session-relative data passed to the
// decision stage.
type Context struct {
	StartedAt         time.Time
	Elapsed           time.Duration
	InterventionCount int
	RecentMessages    []string
}

// Decision is the outcome of a gating check, with a human-readable reason
// for logging and metrics.
type Decision struct {
	Allow  bool
	Reason string
}

// PolicyStore makes pure, synchronous gating decisions keyed by session Key.
// It performs no I/O. Gates that pass stamp their timestamps in the same
// critical section (stamp-then-allow), so two near-simultaneous callers can
// never both observe "enough time has passed".
type PolicyStore struct {
	mu       sync.Mutex
	sessions map[Key]*state
	gating   config.GatingConfig

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

// NewPolicyStore creates a store with the given gating thresholds.
func NewPolicyStore(gating config.GatingConfig) *PolicyStore {
	return &PolicyStore{
		sessions: make(map[Key]*state),
		gating:   gating,
		now:      time.Now,
	}
}

// SetGating swaps the gating thresholds at runtime (config hot reload).
func (p *PolicyStore) SetGating(gating config.GatingConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gating = gating
}

// Gating returns the current thresholds.
func (p *PolicyStore) Gating() config.GatingConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gating
}

// get returns the session record, creating it implicitly on first use.
// Callers must hold p.mu.
func (p *PolicyStore) get(key Key) *state {
	s, ok := p.sessions[key]
	if !ok {
		s = &state{
			startedAt:     p.now(),
			baselineWords: make(map[string]struct{}),
		}
		p.sessions[key] = s
	}
	return s
}

// RespondAvailable reports whether the throttle window has elapsed, without
// consuming it. Used as the cheap entry peek before a pipeline turn starts.
func (p *PolicyStore) RespondAvailable(key Key) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.get(key)
	return p.now().Sub(s.lastInterventionAt) >= p.gating.MinInterval()
}

// CanRespondNow is the throttle's compare-and-set: true iff the minimum
// interval since the last intervention has elapsed, and if so the
// intervention timestamp is stamped immediately so a concurrent caller
// cannot also pass.
func (p *PolicyStore) CanRespondNow(key Key) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.get(key)
	now := p.now()
	if now.Sub(s.lastInterventionAt) < p.gating.MinInterval() {
		return false
	}
	s.lastInterventionAt = now
	return true
}

// ShouldAnalyze combines the debounce elapsed-time check with the
// minimum-new-word-count check against the baseline. On success it stamps
// lastInputChangeAt but does NOT advance the baseline; that happens only
// after a triggered analysis completes (SetBaseline).
func (p *PolicyStore) ShouldAnalyze(key Key, currentText string) Decision {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.get(key)
	now := p.now()

	if !s.lastInputChangeAt.IsZero() && now.Sub(s.lastInputChangeAt) < p.gating.Debounce() {
		return Decision{Allow: false, Reason: "debounce window still open"}
	}

	current := Tokenize(currentText)
	if NewWordCount(current, s.baselineWords) < p.gating.MinWordsDelta {
		return Decision{Allow: false, Reason: "not enough new content yet"}
	}

	s.lastInputChangeAt = now
	return Decision{Allow: true, Reason: "debounce elapsed and word delta met"}
}

// Baseline returns the text and word set snapshotted at the last confirmed
// analysis. The returned set is a copy.
func (p *PolicyStore) Baseline(key Key) (string, map[string]struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.get(key)
	words := make(map[string]struct{}, len(s.baselineWords))
	for w := range s.baselineWords {
		words[w] = struct{}{}
	}
	return s.baselineText, words
}

// SetBaseline snapshots the given text as the new comparison baseline.
// Original casing is preserved in the text; the word set is lowercased.
func (p *PolicyStore) SetBaseline(key Key, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.get(key)
	s.baselineText = text
	s.baselineWords = Tokenize(text)
}

// PushMessage appends an outbound message to the bounded recent history.
func (p *PolicyStore) PushMessage(key Key, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.get(key)
	s.recentMessages = append(s.recentMessages, text)
	if len(s.recentMessages) > maxRecentMessages {
		s.recentMessages = s.recentMessages[len(s.recentMessages)-maxRecentMessages:]
	}
}

// RecordIntervention increments the session's intervention counter. The
// throttle timestamp itself is stamped by CanRespondNow.
func (p *PolicyStore) RecordIntervention(key Key) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.get(key).interventionCount++
}

// SessionContext snapshots session-relative context for the decision stage.
func (p *PolicyStore) SessionContext(key Key) Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.get(key)
	msgs := make([]string, len(s.recentMessages))
	copy(msgs, s.recentMessages)
	return Context{
		StartedAt:         s.startedAt,
		Elapsed:           p.now().Sub(s.startedAt),
		InterventionCount: s.interventionCount,
		RecentMessages:    msgs,
	}
}

// SurveyOffered reports the one-shot survey flag.
func (p *PolicyStore) SurveyOffered(key Key) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.get(key).surveyOffered
}

// MarkSurveyOffered sets the one-shot survey flag; sticky for the session.
func (p *PolicyStore) MarkSurveyOffered(key Key) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.get(key).surveyOffered = true
}

// Clear removes all state for the key. Idempotent.
func (p *PolicyStore) Clear(key Key) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, key)
}

// Len reports the number of live sessions (for metrics).
func (p *PolicyStore) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}
