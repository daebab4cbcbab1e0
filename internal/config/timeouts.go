package config

import (
	"fmt"
	"time"
)

// TimeoutConfig centralizes the two timeout layers of a pipeline turn.
// Each agent call runs under its own context nested inside the
// pipeline-total context; whichever expires first cancels the turn.
type TimeoutConfig struct {
	// Per-agent timeouts, bounding a single text-generation call each.
	FastPathMs  int `yaml:"fast_path_ms"`
	DeepMs      int `yaml:"deep_ms"`
	DeviationMs int `yaml:"deviation_ms"`
	DecisionMs  int `yaml:"decision_ms"`
	ComposeMs   int `yaml:"compose_ms"`

	// PipelineTotalMs bounds a whole turn: all stages plus local work.
	PipelineTotalMs int `yaml:"pipeline_total_ms"`
}

// DefaultTimeoutConfig returns sensible defaults. The deep stage gets the
// largest single budget since it carries historical context in its prompt.
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		FastPathMs:      10_000,
		DeepMs:          25_000,
		DeviationMs:     15_000,
		DecisionMs:      10_000,
		ComposeMs:       12_000,
		PipelineTotalMs: 60_000,
	}
}

// FastPath returns the fast-path stage budget.
func (t TimeoutConfig) FastPath() time.Duration { return ms(t.FastPathMs) }

// Deep returns the deep-analysis stage budget.
func (t TimeoutConfig) Deep() time.Duration { return ms(t.DeepMs) }

// Deviation returns the deviation-analysis stage budget.
func (t TimeoutConfig) Deviation() time.Duration { return ms(t.DeviationMs) }

// Decision returns the decision stage budget.
func (t TimeoutConfig) Decision() time.Duration { return ms(t.DecisionMs) }

// Compose returns the composition stage budget.
func (t TimeoutConfig) Compose() time.Duration { return ms(t.ComposeMs) }

// PipelineTotal returns the whole-turn budget.
func (t TimeoutConfig) PipelineTotal() time.Duration { return ms(t.PipelineTotalMs) }

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// Validate checks that every budget is positive and that no single stage
// budget exceeds the pipeline total.
func (t TimeoutConfig) Validate() error {
	stages := map[string]int{
		"fast_path_ms": t.FastPathMs,
		"deep_ms":      t.DeepMs,
		"deviation_ms": t.DeviationMs,
		"decision_ms":  t.DecisionMs,
		"compose_ms":   t.ComposeMs,
	}
	for name, v := range stages {
		if v <= 0 {
			return fmt.Errorf("timeouts.%s must be positive, got %d", name, v)
		}
		if v > t.PipelineTotalMs {
			return fmt.Errorf("timeouts.%s (%d) exceeds timeouts.pipeline_total_ms (%d)", name, v, t.PipelineTotalMs)
		}
	}
	if t.PipelineTotalMs <= 0 {
		return fmt.Errorf("timeouts.pipeline_total_ms must be positive, got %d", t.PipelineTotalMs)
	}
	return nil
}
