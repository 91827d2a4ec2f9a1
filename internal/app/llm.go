package app

import (
	"context"
	"fmt"

	"github.com/samvad-hq/newstone/pkg/llm"
	"github.com/samvad-hq/newstone/pkg/llm/gemini"
	"github.com/samvad-hq/newstone/pkg/llm/openai"
)

// BuildGenerator returns the generator for cfg.Provider, or nil when no
// provider is configured.
func BuildGenerator(ctx context.Context, cfg llm.Config) (llm.Generator, llm.Config, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return nil, llm.Config{}, err
	}

	switch cfg.Provider {
	case llm.ProviderNone:
		return nil, cfg, nil
	case llm.ProviderOpenAI:
		retries := cfg.MaxRetries
		p, err := openai.New(openai.ProviderConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			MaxRetries: &retries,
		})
		if err != nil {
			return nil, llm.Config{}, err
		}
		return p, cfg, nil
	case llm.ProviderGemini:
		p, err := gemini.New(ctx, gemini.ProviderConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
		})
		if err != nil {
			return nil, llm.Config{}, err
		}
		return p, cfg, nil
	default:
		return nil, llm.Config{}, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
