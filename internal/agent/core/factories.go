package core

import (
	"fmt"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/provider"
	anthropic_provider "github.com/mohammad-safakhou/researcher/provider/anthropic"
	openai_provider "github.com/mohammad-safakhou/researcher/provider/openai"
)

// NewLLMProvider creates the provider selected by llm.routing.provider (or the
// only configured one).
func NewLLMProvider(cfg config.LLMConfig) (provider.Provider, error) {
	if len(cfg.Providers) == 0 {
		return nil, ErrNoProvider
	}
	name, p, ok := cfg.Selected()
	if !ok {
		return nil, fmt.Errorf("%w: set llm.routing.provider to choose one of %d providers", ErrNoProvider, len(cfg.Providers))
	}

	switch provider.Client(p.Type) {
	case provider.OpenAI:
		client, err := openai_provider.New(openai_provider.Options{
			APIKey:       p.APIKey,
			BaseURL:      p.BaseURL,
			DefaultModel: p.Model,
			Temperature:  float32(p.Temperature),
			MaxTokens:    p.MaxTokens,
			Timeout:      p.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}
		return client, nil
	case provider.Anthropic:
		client, err := anthropic_provider.New(anthropic_provider.Options{
			APIKey:       p.APIKey,
			BaseURL:      p.BaseURL,
			DefaultModel: p.Model,
			MaxTokens:    p.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%w: %s", provider.ErrUnsupportedProvider, p.Type)
	}
}
