package domain

import (
	"fmt"
	"strings"
)

// Sampling defaults shared by every provider.
const (
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 4000
	DefaultTopP        = 1.0
	DefaultTopK        = 50

	maxTokensCeiling = 100000
)

// ModelConfig carries the model identifier and sampling parameters that are
// common across providers. Zero values are filled in by Normalize.
type ModelConfig struct {
	ModelID     string  `json:"modelId"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
	TopP        float64 `json:"topP"`
	TopK        int     `json:"topK"`
}

// NewModelConfig returns a config for the given model with default sampling
// parameters.
func NewModelConfig(modelID string) ModelConfig {
	return ModelConfig{
		ModelID:     modelID,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		TopP:        DefaultTopP,
		TopK:        DefaultTopK,
	}
}

// Normalize returns a copy with unset sampling parameters replaced by defaults.
// A zero TopP is treated as unset; there is no way to request TopP 0 and no
// model accepts it anyway.
func (c ModelConfig) Normalize() ModelConfig {
	out := c
	if out.Temperature == 0 {
		out.Temperature = DefaultTemperature
	}
	if out.MaxTokens == 0 {
		out.MaxTokens = DefaultMaxTokens
	}
	if out.TopP == 0 {
		out.TopP = DefaultTopP
	}
	if out.TopK == 0 {
		out.TopK = DefaultTopK
	}
	return out
}

// Validate checks the range invariants. It does not apply defaults; call
// Normalize first if zero values should mean "unset".
func (c ModelConfig) Validate() error {
	if strings.TrimSpace(c.ModelID) == "" {
		return fmt.Errorf("model id is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %.2f out of range [0, 2]", c.Temperature)
	}
	if c.MaxTokens < 1 || c.MaxTokens > maxTokensCeiling {
		return fmt.Errorf("maxTokens %d out of range [1, %d]", c.MaxTokens, maxTokensCeiling)
	}
	if c.TopP < 0 || c.TopP > 1 {
		return fmt.Errorf("topP %.2f out of range [0, 1]", c.TopP)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("topK %d must be positive", c.TopK)
	}
	return nil
}
