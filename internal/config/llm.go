package config

// LLMConfig configures the text-generation backend.
type LLMConfig struct {
	// Provider selects the client implementation: anthropic, openai, gemini.
	Provider string `yaml:"provider"`

	// APIKey is normally supplied via MEETPILOT_API_KEY rather than the file.
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`

	// Models assigns a model name per agent role. Fast, cheap models for the
	// gating stages; a stronger model for deep analysis and composition.
	Models ModelConfig `yaml:"models"`

	// Temperature and MaxTokens are shared across agent calls.
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`

	// RateLimitDelayMs is the minimum spacing between consecutive API
	// requests from one client.
	RateLimitDelayMs int `yaml:"rate_limit_delay_ms"`
}

// ModelConfig names the model used by each agent role.
type ModelConfig struct {
	FastPath  string `yaml:"fast_path"`
	Deep      string `yaml:"deep"`
	Deviation string `yaml:"deviation"`
	Decision  string `yaml:"decision"`
	Compose   string `yaml:"compose"`
}

// DefaultLLMConfig returns sensible defaults.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider: "anthropic",
		Models: ModelConfig{
			FastPath:  "claude-3-5-haiku-latest",
			Deep:      "claude-sonnet-4-20250514",
			Deviation: "claude-sonnet-4-20250514",
			Decision:  "claude-3-5-haiku-latest",
			Compose:   "claude-sonnet-4-20250514",
		},
		Temperature:      0.2,
		MaxTokens:        2048,
		RateLimitDelayMs: 300,
	}
}
