package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"colmatch/internal/domain"
)

// stubProvider counts validations so cache behavior is observable.
type stubProvider struct {
	id         string
	validated  int
	failConfig bool
	ready      bool
}

func (s *stubProvider) ID() string                { return s.id }
func (s *stubProvider) DisplayName() string       { return s.id }
func (s *stubProvider) Ready() bool               { return s.ready }
func (s *stubProvider) SupportedModels() []string { return []string{"stub-model"} }

func (s *stubProvider) ValidateConfig(cfg domain.ProviderConfig) error {
	s.validated++
	if s.failConfig {
		return fmt.Errorf("bad config")
	}
	s.ready = true
	return nil
}

func (s *stubProvider) SendRequest(ctx context.Context, prompt string, model domain.ModelConfig) (string, error) {
	return "", fmt.Errorf("not implemented")
}

func TestRegistry_ResolveUnknownProvider(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.Resolve(domain.NewProviderConfig("nope"))
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}

	_, err = r.Resolve(domain.ProviderConfig{})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider for empty id, got %v", err)
	}
}

func TestRegistry_ResolveCachesPerFingerprint(t *testing.T) {
	created := 0
	var last *stubProvider
	r := NewRegistry(nil)
	r.Register("stub", func() Provider {
		created++
		last = &stubProvider{id: "stub"}
		return last
	})

	cfg := domain.NewProviderConfig("stub").WithParam("apiKey", "k1")

	first, err := r.Resolve(cfg)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	second, err := r.Resolve(cfg)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if first != second {
		t.Error("same fingerprint must return the cached instance")
	}
	if created != 1 {
		t.Errorf("expected 1 instance, created %d", created)
	}

	// A different configuration must not reuse the old instance.
	_, err = r.Resolve(domain.NewProviderConfig("stub").WithParam("apiKey", "k2"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if created != 2 {
		t.Errorf("fingerprint change must create a new instance, created %d", created)
	}
	if last.validated != 1 {
		t.Errorf("new instance must be validated exactly once, got %d", last.validated)
	}
}

func TestRegistry_ResolveValidationFailure(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("stub", func() Provider {
		return &stubProvider{id: "stub", failConfig: true}
	})

	_, err := r.Resolve(domain.NewProviderConfig("stub"))
	var initErr *InitError
	if !errors.As(err, &initErr) {
		t.Fatalf("expected InitError, got %v", err)
	}
	if initErr.ProviderID != "stub" {
		t.Errorf("InitError.ProviderID = %s", initErr.ProviderID)
	}
}

func TestRegistry_RegisterDropsCachedInstances(t *testing.T) {
	created := 0
	factory := func() Provider {
		created++
		return &stubProvider{id: "stub"}
	}

	r := NewRegistry(nil)
	r.Register("stub", factory)

	cfg := domain.NewProviderConfig("stub").WithParam("apiKey", "k1")
	if _, err := r.Resolve(cfg); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	r.Register("stub", factory)
	if _, err := r.Resolve(cfg); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if created != 2 {
		t.Errorf("re-registration must invalidate the cache, created %d", created)
	}
}

func TestRegistry_Models(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("stub", func() Provider { return &stubProvider{id: "stub"} })

	models, err := r.Models("stub")
	if err != nil {
		t.Fatalf("Models failed: %v", err)
	}
	if len(models) != 1 || models[0] != "stub-model" {
		t.Errorf("Models() = %v", models)
	}

	if _, err := r.Models("nope"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestRegistry_Available(t *testing.T) {
	r := NewDefaultRegistry(nil)
	got := r.Available()
	want := []string{AnthropicProviderID, GeminiProviderID, OpenAIProviderID}
	if len(got) != len(want) {
		t.Fatalf("Available() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Available()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
