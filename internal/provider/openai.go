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

// OpenAIProviderID identifies the OpenAI chat-completions backend.
const OpenAIProviderID = "openai"

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

var openAIModels = []string{
	"gpt-4o",
	"gpt-4o-mini",
	"gpt-4-turbo",
	"gpt-4",
	"gpt-3.5-turbo",
}

// OpenAIProvider sends prompts to the OpenAI chat completions API.
type OpenAIProvider struct {
	apiKey       string
	organization string
	baseURL      string
	ready        bool
	httpClient   *http.Client
	limiter      *rate.Limiter
}

// NewOpenAIProvider returns an unvalidated OpenAI provider.
func NewOpenAIProvider() *OpenAIProvider {
	return &OpenAIProvider{
		baseURL:    defaultOpenAIBaseURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
	}
}

func (p *OpenAIProvider) ID() string          { return OpenAIProviderID }
func (p *OpenAIProvider) DisplayName() string { return "OpenAI" }

func (p *OpenAIProvider) Ready() bool {
	return p.ready && p.apiKey != ""
}

func (p *OpenAIProvider) SupportedModels() []string {
	out := make([]string, len(openAIModels))
	copy(out, openAIModels)
	return out
}

// ValidateConfig requires an apiKey parameter; baseURL and organization are
// optional overrides.
func (p *OpenAIProvider) ValidateConfig(cfg domain.ProviderConfig) error {
	if !cfg.IsValid() {
		return fmt.Errorf("provider configuration is invalid")
	}

	apiKey := cfg.Param("apiKey")
	if apiKey == "" {
		return fmt.Errorf("OpenAI API key is required")
	}

	p.apiKey = apiKey
	p.organization = cfg.Param("organization")
	if base := cfg.Param("baseURL"); base != "" {
		p.baseURL = strings.TrimRight(base, "/")
	}
	p.ready = true
	return nil
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
	TopP        float64         `json:"top_p,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// SendRequest sends one prompt and returns the completion text.
func (p *OpenAIProvider) SendRequest(ctx context.Context, prompt string, model domain.ModelConfig) (string, error) {
	text, err := p.complete(ctx, prompt, model)
	if err != nil {
		return "", &TransportError{ProviderID: OpenAIProviderID, Err: err}
	}
	return text, nil
}

func (p *OpenAIProvider) complete(ctx context.Context, prompt string, model domain.ModelConfig) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("API key not configured")
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	reqBody := openAIRequest{
		Model:       model.ModelID,
		Messages:    []openAIMessage{{Role: "user", Content: prompt}},
		MaxTokens:   model.MaxTokens,
		Temperature: model.Temperature,
		TopP:        model.TopP,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	if p.organization != "" {
		req.Header.Set("OpenAI-Organization", p.organization)
	}

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

	var oaResp openAIResponse
	if err := json.Unmarshal(body, &oaResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if oaResp.Error != nil {
		return "", fmt.Errorf("API error: %s", oaResp.Error.Message)
	}
	if len(oaResp.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}

	content := strings.TrimSpace(oaResp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty completion returned")
	}
	return content, nil
}
