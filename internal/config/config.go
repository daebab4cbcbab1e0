// Package config holds all meetpilot configuration: YAML file loading,
// defaults, and environment overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all meetpilot configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Server transport
	Server ServerConfig `yaml:"server"`

	// Text-generation backend
	LLM LLMConfig `yaml:"llm"`

	// Gating thresholds for the detector and policy store
	Gating GatingConfig `yaml:"gating"`

	// Per-agent and pipeline timeouts
	Timeouts TimeoutConfig `yaml:"timeouts"`

	// Analysis tunables
	Analysis AnalysisConfig `yaml:"analysis"`

	// Persistence
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig configures the HTTP/WS transport.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StorageConfig configures the sqlite store.
type StorageConfig struct {
	// Path to the sqlite database file. ":memory:" is accepted for tests.
	Path string `yaml:"path"`
}

// AnalysisConfig holds tunables for the reasoning stages.
type AnalysisConfig struct {
	// MinInsightConfidence discards deep-analysis insights below this score.
	MinInsightConfidence float64 `yaml:"min_insight_confidence"`

	// MaxInsights caps the number of ranked insights kept per turn.
	MaxInsights int `yaml:"max_insights"`
}

// Default returns the full default configuration.
func Default() *Config {
	return &Config{
		Name:    "meetpilot",
		Version: "1.0.0",
		Server: ServerConfig{
			Addr: ":8080",
		},
		LLM:      DefaultLLMConfig(),
		Gating:   DefaultGatingConfig(),
		Timeouts: DefaultTimeoutConfig(),
		Analysis: AnalysisConfig{
			MinInsightConfidence: 0.25,
			MaxInsights:          5,
		},
		Storage: StorageConfig{
			Path: "meetpilot.db",
		},
	}
}

// Load reads configuration from a YAML file, layering it over defaults and
// then applying environment overrides. A missing file is not an error: the
// defaults plus environment are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides layers environment variables over file values.
// Secrets are expected to arrive this way rather than in the YAML file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MEETPILOT_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("MEETPILOT_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("MEETPILOT_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("MEETPILOT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("MEETPILOT_DB"); v != "" {
		c.Storage.Path = v
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime behavior.
func (c *Config) Validate() error {
	if err := c.Gating.Validate(); err != nil {
		return err
	}
	if err := c.Timeouts.Validate(); err != nil {
		return err
	}
	if c.Analysis.MinInsightConfidence < 0 || c.Analysis.MinInsightConfidence > 1 {
		return fmt.Errorf("analysis.min_insight_confidence must be in [0,1], got %v", c.Analysis.MinInsightConfidence)
	}
	if c.Analysis.MaxInsights <= 0 {
		return fmt.Errorf("analysis.max_insights must be positive, got %d", c.Analysis.MaxInsights)
	}
	return nil
}
