package llm

import (
	"fmt"
	"strings"
)

// Supported provider names.
const (
	ProviderNone   = ""
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config selects and configures one text generation backend.
type Config struct {
	Provider        string
	APIKey          string
	BaseURL         string
	Model           string
	MaxOutputTokens int
	Temperature     float64
	MaxRetries      int
}

// Normalize trims fields and fills the default model for the chosen provider.
func (c Config) Normalize() (Config, error) {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.Model = strings.TrimSpace(c.Model)

	switch c.Provider {
	case ProviderNone:
		return c, nil
	case ProviderOpenAI:
		if c.Model == "" {
			c.Model = "gpt-4o-mini"
		}
	case ProviderGemini:
		if c.Model == "" {
			c.Model = "gemini-2.0-flash"
		}
	default:
		return Config{}, fmt.Errorf("unknown llm provider %q (valid: openai, gemini)", c.Provider)
	}

	if c.APIKey == "" {
		return Config{}, fmt.Errorf("llm provider %q requires an api key", c.Provider)
	}
	if c.MaxOutputTokens < 0 {
		return Config{}, fmt.Errorf("llm max_output_tokens must be >= 0")
	}
	if c.Temperature < 0 {
		return Config{}, fmt.Errorf("llm temperature must be >= 0")
	}
	return c, nil
}

// Enabled reports whether a provider is configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Provider) != ProviderNone
}
