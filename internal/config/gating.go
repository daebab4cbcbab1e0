package config

import (
	"fmt"
	"time"
)

// GatingConfig holds the thresholds consumed by the session policy store and
// the pause/change detector. All durations are expressed in milliseconds to
// match the wire/config surface.
type GatingConfig struct {
	// MinIntervalMs is the minimum spacing between consecutive interventions
	// for one session (the throttle).
	MinIntervalMs int `yaml:"min_interval_ms"`

	// DebounceMs is the quiet period required after the last text change
	// before analysis may fire.
	DebounceMs int `yaml:"debounce_ms"`

	// MinWordsForAnalysis is the minimum distinct-word count of the current
	// text before any analysis is considered.
	MinWordsForAnalysis int `yaml:"min_words_for_analysis"`

	// MinWordsDelta is the number of net-new distinct words (vs. the
	// baseline) required to trigger an incremental analysis.
	MinWordsDelta int `yaml:"min_words_delta"`

	// DeletionThresholdPercent triggers a forced re-analysis when this share
	// of baseline words disappears.
	DeletionThresholdPercent float64 `yaml:"deletion_threshold_percent"`

	// DeletionThresholdWords triggers a forced re-analysis when this many
	// baseline words disappear, regardless of percentage.
	DeletionThresholdWords int `yaml:"deletion_threshold_words"`

	// SurveyRichnessChars is the minimum profile text length below which the
	// one-shot profiling survey card is offered.
	SurveyRichnessChars int `yaml:"survey_richness_chars"`
}

// DefaultGatingConfig returns sensible defaults.
func DefaultGatingConfig() GatingConfig {
	return GatingConfig{
		MinIntervalMs:            90_000,
		DebounceMs:               3_000,
		MinWordsForAnalysis:      5,
		MinWordsDelta:            8,
		DeletionThresholdPercent: 0.3,
		DeletionThresholdWords:   10,
		SurveyRichnessChars:      200,
	}
}

// MinInterval returns the throttle spacing as a duration.
func (g GatingConfig) MinInterval() time.Duration {
	return time.Duration(g.MinIntervalMs) * time.Millisecond
}

// Debounce returns the quiet period as a duration.
func (g GatingConfig) Debounce() time.Duration {
	return time.Duration(g.DebounceMs) * time.Millisecond
}

// Validate checks the gating thresholds.
func (g GatingConfig) Validate() error {
	if g.MinIntervalMs < 0 {
		return fmt.Errorf("gating.min_interval_ms must be non-negative, got %d", g.MinIntervalMs)
	}
	if g.DebounceMs <= 0 {
		return fmt.Errorf("gating.debounce_ms must be positive, got %d", g.DebounceMs)
	}
	if g.MinWordsForAnalysis < 1 {
		return fmt.Errorf("gating.min_words_for_analysis must be at least 1, got %d", g.MinWordsForAnalysis)
	}
	if g.MinWordsDelta < 1 {
		return fmt.Errorf("gating.min_words_delta must be at least 1, got %d", g.MinWordsDelta)
	}
	if g.DeletionThresholdPercent <= 0 || g.DeletionThresholdPercent > 1 {
		return fmt.Errorf("gating.deletion_threshold_percent must be in (0,1], got %v", g.DeletionThresholdPercent)
	}
	if g.DeletionThresholdWords < 1 {
		return fmt.Errorf("gating.deletion_threshold_words must be at least 1, got %d", g.DeletionThresholdWords)
	}
	return nil
}
