package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"colmatch/internal/domain"
)

// GeminiProviderID identifies the Google Gemini backend.
const GeminiProviderID = "gemini"

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

var geminiModels = []string{
	"gemini-2.0-flash",
	"gemini-2.5-flash",
	"gemini-2.5-pro",
	"gemini-1.5-pro",
	"gemini-1.5-flash",
}

// GeminiProvider sends prompts to the Gemini generateContent API.
type GeminiProvider struct {
	apiKey     string
	baseURL    string
	ready      bool
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewGeminiProvider returns an unvalidated Gemini provider.
func NewGeminiProvider() *GeminiProvider {
	return &GeminiProvider{
		baseURL:    defaultGeminiBaseURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
	}
}

func (p *GeminiProvider) ID() string          { return GeminiProviderID }
func (p *GeminiProvider) DisplayName() string { return "Google Gemini" }

func (p *GeminiProvider) Ready() bool {
	return p.ready && p.apiKey != ""
}

func (p *GeminiProvider) SupportedModels() []string {
	out := make([]string, len(geminiModels))
	copy(out, geminiModels)
	return out
}

// ValidateConfig requires an apiKey parameter; baseURL is an optional override.
func (p *GeminiProvider) ValidateConfig(cfg domain.ProviderConfig) error {
	if !cfg.IsValid() {
		return fmt.Errorf("provider configuration is invalid")
	}

	apiKey := cfg.Param("apiKey")
	if apiKey == "" {
		return fmt.Errorf("Gemini API key is required")
	}

	p.apiKey = apiKey
	if base := cfg.Param("baseURL"); base != "" {
		p.baseURL = strings.TrimRight(base, "/")
	}
	p.ready = true
	return nil
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
			Role  string       `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// SendRequest sends one prompt and returns the completion text.
func (p *GeminiProvider) SendRequest(ctx context.Context, prompt string, model domain.ModelConfig) (string, error) {
	text, err := p.complete(ctx, prompt, model)
	if err != nil {
		return "", &TransportError{ProviderID: GeminiProviderID, Err: err}
	}
	return text, nil
}

func (p *GeminiProvider) complete(ctx context.Context, prompt string, model domain.ModelConfig) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("API key not configured")
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     model.Temperature,
			MaxOutputTokens: model.MaxTokens,
			TopP:            model.TopP,
			TopK:            model.TopK,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		p.baseURL, url.PathEscape(model.ModelID), url.QueryEscape(p.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

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

	var gResp geminiResponse
	if err := json.Unmarshal(body, &gResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if gResp.Error != nil {
		return "", fmt.Errorf("API error: %s", gResp.Error.Message)
	}
	if len(gResp.Candidates) == 0 {
		return "", fmt.Errorf("no completion returned")
	}

	var out strings.Builder
	for _, part := range gResp.Candidates[0].Content.Parts {
		out.WriteString(part.Text)
	}

	content := strings.TrimSpace(out.String())
	if content == "" {
		return "", fmt.Errorf("empty completion returned")
	}
	return content, nil
}
