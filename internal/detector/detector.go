// Package detector converts a raw stream of text-change events into single
// "analyze now" decisions: a per-session debounce timer coalesces keystrokes,
// and word-set diffing against the session baseline distinguishes additive
// typing from deletions.
package detector

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"meetpilot/internal/session"
)

// Verdict is the outcome of evaluating a quiet-period snapshot.
type Verdict struct {
	// Analyze reports whether the pipeline should run for this snapshot.
	Analyze bool

	// Reason explains the decision for logging and metrics.
	Reason string

	// BaselineReset is set when the deletion override fired: the baseline
	// has already been reset to the current text, and the word-delta gate
	// must be bypassed for this turn.
	BaselineReset bool

	// Text is the snapshot that was evaluated (the last value before the
	// timer fired).
	Text string
}

// Handler receives verdicts when a session's debounce timer fires.
type Handler func(key session.Key, verdict Verdict)

// Detector owns one debounce timer per session. Only the last text value
// before the timer fires is evaluated; intermediate keystrokes produce no
// work.
type Detector struct {
	mu      sync.Mutex
	timers  map[session.Key]*time.Timer
	pending map[session.Key]string

	store   *session.PolicyStore
	handler Handler
	logger  *zap.Logger
}

// New creates a detector backed by the given policy store. The handler is
// invoked from the timer goroutine whenever a quiet period elapses,
// regardless of the verdict (callers use the verdict's Analyze flag).
func New(store *session.PolicyStore, handler Handler, logger *zap.Logger) *Detector {
	return &Detector{
		timers:  make(map[session.Key]*time.Timer),
		pending: make(map[session.Key]string),
		store:   store,
		handler: handler,
		logger:  logger.Named("detector"),
	}
}

// OnTextChange records the latest text for the session and resets its
// debounce timer (cancel previous, schedule new). Only one timer is ever
// live per key.
func (d *Detector) OnTextChange(key session.Key, text string) {
	debounce := d.store.Gating().Debounce()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[key] = text
	if timer, ok := d.timers[key]; ok {
		timer.Stop()
	}
	d.timers[key] = time.AfterFunc(debounce, func() {
		d.fire(key)
	})
}

// fire runs on the timer goroutine after a quiet period.
func (d *Detector) fire(key session.Key) {
	d.mu.Lock()
	text, ok := d.pending[key]
	delete(d.pending, key)
	delete(d.timers, key)
	d.mu.Unlock()
	if !ok {
		return
	}

	verdict := d.Evaluate(key, text)
	d.logger.Debug("quiet period elapsed",
		zap.String("session", key.String()),
		zap.Bool("analyze", verdict.Analyze),
		zap.String("reason", verdict.Reason))

	if d.handler != nil {
		d.handler(key, verdict)
	}
}

// Evaluate applies the decision table to the given snapshot. First match
// wins:
//
//  1. too little text overall
//  2. deletion override (resets the baseline immediately)
//  3. enough net-new words versus the baseline
//  4. otherwise, wait for more content
func (d *Detector) Evaluate(key session.Key, text string) Verdict {
	gating := d.store.Gating()
	current := session.Tokenize(text)
	_, baseline := d.store.Baseline(key)

	if len(current) < gating.MinWordsForAnalysis {
		return Verdict{Analyze: false, Reason: "too little text", Text: text}
	}

	deleted := session.DeletedWordCount(baseline, current)
	deletedPercent := 0.0
	if len(baseline) > 0 {
		deletedPercent = float64(deleted) / float64(len(baseline))
	}
	if deleted > 0 && (deletedPercent > gating.DeletionThresholdPercent || deleted > gating.DeletionThresholdWords) {
		// A deletion invalidates the incremental diff: treat the remaining
		// text as entirely new and force a full re-analysis.
		d.store.SetBaseline(key, text)
		return Verdict{Analyze: true, Reason: "deletion override", BaselineReset: true, Text: text}
	}

	if len(current)-len(baseline) >= gating.MinWordsDelta {
		// Baseline advances only after the pipeline run completes
		// (MarkBaseline), never here.
		return Verdict{Analyze: true, Reason: "word delta met", Text: text}
	}

	return Verdict{Analyze: false, Reason: "not enough new content yet", Text: text}
}

// MarkBaseline snapshots the analyzed text as the next comparison baseline.
// Called by the orchestrator strictly after a triggered run finishes, so
// cancelled or errored runs never advance the baseline.
func (d *Detector) MarkBaseline(key session.Key, text string) {
	d.store.SetBaseline(key, text)
}

// Cancel stops any pending timer for the session and drops its snapshot.
func (d *Detector) Cancel(key session.Key) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if timer, ok := d.timers[key]; ok {
		timer.Stop()
		delete(d.timers, key)
	}
	delete(d.pending, key)
}

// Stop cancels every pending timer. Used on shutdown.
func (d *Detector) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
		delete(d.pending, key)
	}
}
