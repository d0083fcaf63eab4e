package llm

import (
	"fmt"
	"time"
)

// Config holds generative service configuration, bound from flags and
// environment in cmd/bandexam.
type Config struct {
	// Provider selects the backend: "gemini", "openai", or "mock".
	Provider string

	// APIKey authenticates against the selected provider.
	APIKey string

	// Model is the model name. Empty selects the provider default.
	Model string

	// BaseURL overrides the API endpoint for OpenAI-compatible servers.
	BaseURL string

	// Timeout bounds a single collaborator call, retries included.
	Timeout time.Duration

	Retry RetryConfig
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults. Gemini is the
// default backend.
func DefaultConfig() Config {
	return Config{
		Provider: "gemini",
		Timeout:  60 * time.Second,
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
	}
}

// Validate checks that the selected provider can be constructed.
func (c Config) Validate() error {
	switch c.Provider {
	case "gemini", "openai":
		if c.APIKey == "" {
			return fmt.Errorf("API key is required for the %s provider", c.Provider)
		}
	case "mock":
		// No key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
