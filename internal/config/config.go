// Package config loads colmatch settings from a YAML file, COLMATCH_*
// environment variables, and per-provider API key variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"colmatch/internal/domain"
)

// Config holds all configuration for colmatch.
type Config struct {
	Provider        string          `mapstructure:"provider"`
	Model           string          `mapstructure:"model"`
	Temperature     float64         `mapstructure:"temperature"`
	MaxTokens       int             `mapstructure:"max_tokens"`
	TopP            float64         `mapstructure:"top_p"`
	TopK            int             `mapstructure:"top_k"`
	MappingsPath    string          `mapstructure:"mappings_path"`
	IndustryContext string          `mapstructure:"industry_context"`
	LogLevel        string          `mapstructure:"log_level"`
	OpenAI          OpenAIConfig    `mapstructure:"openai"`
	Anthropic       AnthropicConfig `mapstructure:"anthropic"`
	Gemini          GeminiConfig    `mapstructure:"gemini"`
}

// OpenAIConfig holds OpenAI-specific settings.
type OpenAIConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	Organization string `mapstructure:"organization"`
}

// AnthropicConfig holds Anthropic-specific settings.
type AnthropicConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// GeminiConfig holds Google Gemini-specific settings.
type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// Load reads configuration from file, environment, and defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("provider", "openai")
	v.SetDefault("model", "gpt-4o")
	v.SetDefault("temperature", domain.DefaultTemperature)
	v.SetDefault("max_tokens", domain.DefaultMaxTokens)
	v.SetDefault("top_p", domain.DefaultTopP)
	v.SetDefault("top_k", domain.DefaultTopK)
	v.SetDefault("mappings_path", defaultMappingsPath())
	v.SetDefault("log_level", "info")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("anthropic.base_url", "https://api.anthropic.com/v1")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("colmatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/colmatch")
	}

	// Environment variables
	v.SetEnvPrefix("COLMATCH")
	v.AutomaticEnv()

	// Bind specific env vars
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.base_url", "COLMATCH_OPENAI_BASE_URL")
	_ = v.BindEnv("openai.organization", "OPENAI_ORGANIZATION")
	_ = v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("anthropic.base_url", "COLMATCH_ANTHROPIC_BASE_URL")
	_ = v.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("gemini.base_url", "COLMATCH_GEMINI_BASE_URL")
	_ = v.BindEnv("provider", "COLMATCH_PROVIDER")
	_ = v.BindEnv("model", "COLMATCH_MODEL")
	_ = v.BindEnv("mappings_path", "COLMATCH_MAPPINGS_PATH")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// ProviderConfig builds the backend configuration for the selected provider.
func (c *Config) ProviderConfig() (domain.ProviderConfig, error) {
	switch c.Provider {
	case "openai":
		cfg := domain.NewProviderConfig("openai")
		cfg.ProviderName = "OpenAI"
		cfg = cfg.WithParam("apiKey", c.OpenAI.APIKey)
		cfg = cfg.WithParam("baseURL", c.OpenAI.BaseURL)
		if c.OpenAI.Organization != "" {
			cfg = cfg.WithParam("organization", c.OpenAI.Organization)
		}
		return cfg, nil
	case "anthropic":
		cfg := domain.NewProviderConfig("anthropic")
		cfg.ProviderName = "Anthropic Claude"
		cfg = cfg.WithParam("apiKey", c.Anthropic.APIKey)
		cfg = cfg.WithParam("baseURL", c.Anthropic.BaseURL)
		return cfg, nil
	case "gemini":
		cfg := domain.NewProviderConfig("gemini")
		cfg.ProviderName = "Google Gemini"
		cfg = cfg.WithParam("apiKey", c.Gemini.APIKey)
		cfg = cfg.WithParam("baseURL", c.Gemini.BaseURL)
		return cfg, nil
	default:
		return domain.ProviderConfig{}, fmt.Errorf("unknown provider %q", c.Provider)
	}
}

// ModelConfig builds the generation parameters from the configured values.
// Unset sampling parameters fall back to the shared defaults.
func (c *Config) ModelConfig() domain.ModelConfig {
	return domain.ModelConfig{
		ModelID:     c.Model,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		TopP:        c.TopP,
		TopK:        c.TopK,
	}.Normalize()
}

func defaultMappingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "colmatch-mappings.db"
	}
	return filepath.Join(home, ".local", "share", "colmatch", "mappings.db")
}
