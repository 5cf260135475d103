package core

import (
	"errors"
	"testing"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	_, err := NewLLMProvider(config.LLMConfig{})
	assert.True(t, errors.Is(err, ErrNoProvider))

	p, err := NewLLMProvider(config.LLMConfig{Providers: map[string]config.LLMProvider{
		"main": {Type: "openai", APIKey: "sk-test"},
	}})
	require.NoError(t, err)
	assert.Equal(t, provider.OpenAI, p.Name())

	p, err = NewLLMProvider(config.LLMConfig{
		Providers: map[string]config.LLMProvider{
			"a": {Type: "openai", APIKey: "sk-test"},
			"b": {Type: "anthropic", APIKey: "key"},
		},
		Routing: config.LLMRoutingConfig{Provider: "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, provider.Anthropic, p.Name())

	_, err = NewLLMProvider(config.LLMConfig{Providers: map[string]config.LLMProvider{
		"x": {Type: "local"},
	}})
	assert.True(t, errors.Is(err, provider.ErrUnsupportedProvider))
}
