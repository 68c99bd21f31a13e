package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"colmatch/internal/domain"
)

// AnthropicProviderID identifies the Anthropic messages backend.
const AnthropicProviderID = "anthropic"

const defaultAnthropicBaseURL = "https://api.anthropic.com/v1"

var anthropicModels = []string{
	"claude-sonnet-4-20250514",
	"claude-opus-4-20250514",
	"claude-3-5-sonnet-20241022",
	"claude-3-5-haiku-20241022",
	"claude-3-opus-20240229",
}

// AnthropicProvider sends prompts to the Anthropic messages API.
type AnthropicProvider struct {
	apiKey     string
	baseURL    string
	ready      bool
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewAnthropicProvider returns an unvalidated Anthropic provider.
func NewAnthropicProvider() *AnthropicProvider {
	return &AnthropicProvider{
		baseURL:    defaultAnthropicBaseURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
	}
}

func (p *AnthropicProvider) ID() string          { return AnthropicProviderID }
func (p *AnthropicProvider) DisplayName() string { return "Anthropic" }

func (p *AnthropicProvider) Ready() bool {
	return p.ready && p.apiKey != ""
}

func (p *AnthropicProvider) SupportedModels() []string {
	out := make([]string, len(anthropicModels))
	copy(out, anthropicModels)
	return out
}

// ValidateConfig requires an apiKey parameter; baseURL is an optional override.
func (p *AnthropicProvider) ValidateConfig(cfg domain.ProviderConfig) error {
	if !cfg.IsValid() {
		return fmt.Errorf("provider configuration is invalid")
	}

	apiKey := cfg.Param("apiKey")
	if apiKey == "" {
		return fmt.Errorf("Anthropic API key is required")
	}

	p.apiKey = apiKey
	if base := cfg.Param("baseURL"); base != "" {
		p.baseURL = strings.TrimRight(base, "/")
	}
	p.ready = true
	return nil
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
	TopP        float64            `json:"top_p,omitempty"`
	TopK        int                `json:"top_k,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// SendRequest sends one prompt and returns the completion text.
func (p *AnthropicProvider) SendRequest(ctx context.Context, prompt string, model domain.ModelConfig) (string, error) {
	text, err := p.complete(ctx, prompt, model)
	if err != nil {
		return "", &TransportError{ProviderID: AnthropicProviderID, Err: err}
	}
	return text, nil
}

func (p *AnthropicProvider) complete(ctx context.Context, prompt string, model domain.ModelConfig) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("API key not configured")
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	reqBody := anthropicRequest{
		Model:       model.ModelID,
		MaxTokens:   model.MaxTokens,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
		Temperature: model.Temperature,
		TopP:        model.TopP,
		TopK:        model.TopK,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var aResp anthropicResponse
	if err := json.Unmarshal(body, &aResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if aResp.Error != nil {
		return "", fmt.Errorf("API error: %s", aResp.Error.Message)
	}
	if len(aResp.Content) == 0 {
		return "", fmt.Errorf("no completion returned")
	}

	var out strings.Builder
	for _, block := range aResp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}

	content := strings.TrimSpace(out.String())
	if content == "" {
		return "", fmt.Errorf("empty completion returned")
	}
	return content, nil
}
