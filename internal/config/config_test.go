package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colmatch/internal/domain"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "colmatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfigFile(t, "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, domain.DefaultTemperature, cfg.Temperature)
	assert.Equal(t, domain.DefaultMaxTokens, cfg.MaxTokens)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.MappingsPath)
}

func TestLoadFromFile(t *testing.T) {
	// Isolate from any ambient API key; viper treats empty env vars as unset.
	t.Setenv("ANTHROPIC_API_KEY", "")

	path := writeConfigFile(t, `
provider: anthropic
model: claude-sonnet-4-20250514
temperature: 0.7
industry_context: manufacturing
anthropic:
  api_key: test-key
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Model)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, "manufacturing", cfg.IndustryContext)
	assert.Equal(t, "test-key", cfg.Anthropic.APIKey)
	// Untouched defaults survive partial files.
	assert.Equal(t, "https://api.anthropic.com/v1", cfg.Anthropic.BaseURL)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("COLMATCH_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg, err := Load(writeConfigFile(t, "provider: openai\n"))
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "env-key", cfg.Gemini.APIKey)
}

func TestProviderConfig(t *testing.T) {
	cfg := &Config{
		Provider: "openai",
		OpenAI: OpenAIConfig{
			APIKey:       "sk-test",
			BaseURL:      "https://example.com/v1",
			Organization: "org-1",
		},
	}

	pc, err := cfg.ProviderConfig()
	require.NoError(t, err)
	assert.Equal(t, "openai", pc.ProviderID)
	assert.Equal(t, "OpenAI", pc.DisplayName())
	assert.Equal(t, "sk-test", pc.Param("apiKey"))
	assert.Equal(t, "https://example.com/v1", pc.Param("baseURL"))
	assert.Equal(t, "org-1", pc.Param("organization"))
}

func TestProviderConfigUnknown(t *testing.T) {
	cfg := &Config{Provider: "bedrock"}
	_, err := cfg.ProviderConfig()
	assert.Error(t, err)
}

func TestModelConfigNormalizes(t *testing.T) {
	cfg := &Config{Model: "gpt-4o"}
	mc := cfg.ModelConfig()

	assert.Equal(t, "gpt-4o", mc.ModelID)
	assert.Equal(t, domain.DefaultTemperature, mc.Temperature)
	assert.Equal(t, domain.DefaultMaxTokens, mc.MaxTokens)
	assert.NoError(t, mc.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	// No config file anywhere under a scratch working directory.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
}
