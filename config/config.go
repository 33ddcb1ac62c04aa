// Package config loads relay configuration from the environment. The config
// is read once at startup and handed to the gateway and builder as an
// explicit dependency; nothing in the relay consults os.Getenv afterwards.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v9"
)

// Provider identifiers used for credential lookup and error attribution.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderTavily    = "tavily"
)

// Config holds the relay's runtime configuration. API keys are opaque
// secrets passed through to the provider SDKs; the relay never inspects them.
type Config struct {
	// AllowedModels is the allow-list of model identifiers a request may
	// select. A request referencing any other identifier is rejected at the
	// gateway before an agent is built.
	AllowedModels []string `env:"CHATRELAY_ALLOWED_MODELS" envSeparator:","`

	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`
	TavilyAPIKey    string `env:"TAVILY_API_KEY"`

	// ListenAddr is the gateway bind address.
	ListenAddr string `env:"CHATRELAY_LISTEN_ADDR" envDefault:"127.0.0.1:9999"`

	// MaxIterations bounds the reasoning loop (model calls per request).
	MaxIterations int `env:"CHATRELAY_MAX_ITERATIONS" envDefault:"10"`

	LogLevel  string `env:"CHATRELAY_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"CHATRELAY_LOG_FORMAT" envDefault:"json"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	for i, m := range cfg.AllowedModels {
		cfg.AllowedModels[i] = strings.TrimSpace(m)
	}
	return cfg, nil
}

// Validate checks the loaded configuration for values the relay cannot
// start without.
func (c *Config) Validate() error {
	if len(c.AllowedModels) == 0 {
		return fmt.Errorf("no allowed models configured (set CHATRELAY_ALLOWED_MODELS)")
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", c.MaxIterations)
	}
	return nil
}

// Allows reports whether the model identifier is on the allow-list.
func (c *Config) Allows(model string) bool {
	for _, m := range c.AllowedModels {
		if m == model {
			return true
		}
	}
	return false
}

// CredentialFor returns the API key configured for the provider, or "".
func (c *Config) CredentialFor(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	case ProviderTavily:
		return c.TavilyAPIKey
	}
	return ""
}

// ProviderFor infers the hosting provider from a model identifier. Unknown
// prefixes default to OpenAI, which also covers OpenAI-compatible endpoints.
func ProviderFor(model string) string {
	switch {
	case strings.HasPrefix(model, "claude-"):
		return ProviderAnthropic
	case strings.HasPrefix(model, "gemini-"):
		return ProviderGemini
	default:
		return ProviderOpenAI
	}
}
