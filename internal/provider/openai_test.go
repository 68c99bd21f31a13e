package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"colmatch/internal/domain"
)

func openAITestConfig(baseURL string) domain.ProviderConfig {
	return domain.NewProviderConfig(OpenAIProviderID).
		WithParam("apiKey", "test-key").
		WithParam("baseURL", baseURL)
}

func TestOpenAIProvider_SendRequest_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("missing bearer token")
		}

		var body openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if body.Model != "gpt-4o" {
			t.Errorf("model = %s", body.Model)
		}
		if body.MaxTokens != 4000 {
			t.Errorf("max_tokens = %d", body.MaxTokens)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider()
	if err := p.ValidateConfig(openAITestConfig(server.URL)); err != nil {
		t.Fatalf("ValidateConfig failed: %v", err)
	}
	if !p.Ready() {
		t.Fatal("provider should be ready after validation")
	}

	got, err := p.SendRequest(context.Background(), "match this", domain.NewModelConfig("gpt-4o"))
	if err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}
	if got != `{"ok":true}` {
		t.Errorf("SendRequest = %q", got)
	}
}

func TestOpenAIProvider_SendRequest_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid key","type":"auth"}}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider()
	if err := p.ValidateConfig(openAITestConfig(server.URL)); err != nil {
		t.Fatalf("ValidateConfig failed: %v", err)
	}

	_, err := p.SendRequest(context.Background(), "x", domain.NewModelConfig("gpt-4o"))
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if transportErr.ProviderID != OpenAIProviderID {
		t.Errorf("ProviderID = %s", transportErr.ProviderID)
	}
}

func TestOpenAIProvider_SendRequest_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider()
	if err := p.ValidateConfig(openAITestConfig(server.URL)); err != nil {
		t.Fatalf("ValidateConfig failed: %v", err)
	}

	if _, err := p.SendRequest(context.Background(), "x", domain.NewModelConfig("gpt-4o")); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestOpenAIProvider_ValidateConfig_MissingKey(t *testing.T) {
	p := NewOpenAIProvider()
	err := p.ValidateConfig(domain.NewProviderConfig(OpenAIProviderID))
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
	if p.Ready() {
		t.Error("provider must not be ready after failed validation")
	}
}
