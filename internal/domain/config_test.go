package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelConfig_Defaults(t *testing.T) {
	cfg := NewModelConfig("gpt-4o")
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.3, cfg.Temperature)
	assert.Equal(t, 4000, cfg.MaxTokens)
	assert.Equal(t, 1.0, cfg.TopP)
	assert.Equal(t, 50, cfg.TopK)
}

func TestModelConfig_NormalizeFillsUnset(t *testing.T) {
	cfg := ModelConfig{ModelID: "gpt-4o", Temperature: 0.9}.Normalize()

	assert.Equal(t, 0.9, cfg.Temperature)
	assert.Equal(t, DefaultMaxTokens, cfg.MaxTokens)
	assert.Equal(t, DefaultTopP, cfg.TopP)
	assert.Equal(t, DefaultTopK, cfg.TopK)
}

func TestModelConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ModelConfig)
	}{
		{"empty model id", func(c *ModelConfig) { c.ModelID = "  " }},
		{"temperature too high", func(c *ModelConfig) { c.Temperature = 2.5 }},
		{"temperature negative", func(c *ModelConfig) { c.Temperature = -0.1 }},
		{"maxTokens zero", func(c *ModelConfig) { c.MaxTokens = 0 }},
		{"maxTokens over ceiling", func(c *ModelConfig) { c.MaxTokens = 100001 }},
		{"topP over one", func(c *ModelConfig) { c.TopP = 1.1 }},
		{"topK zero", func(c *ModelConfig) { c.TopK = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewModelConfig("gpt-4o")
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestProviderConfig_DisplayName(t *testing.T) {
	cfg := ProviderConfig{ProviderID: "openai"}
	assert.Equal(t, "openai", cfg.DisplayName())

	cfg.ProviderName = "OpenAI"
	assert.Equal(t, "OpenAI", cfg.DisplayName())
}

func TestProviderConfig_Fingerprint(t *testing.T) {
	a := NewProviderConfig("openai").WithParam("apiKey", "k1")
	b := NewProviderConfig("openai").WithParam("apiKey", "k1")
	c := NewProviderConfig("openai").WithParam("apiKey", "k2")

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	// Parameter order must not matter.
	d := NewProviderConfig("openai").WithParam("apiKey", "k1").WithParam("org", "o1")
	e := NewProviderConfig("openai").WithParam("org", "o1").WithParam("apiKey", "k1")
	assert.Equal(t, d.Fingerprint(), e.Fingerprint())
}
