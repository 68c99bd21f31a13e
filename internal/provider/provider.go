// Package provider defines the backend abstraction for text-generation
// services and a registry that resolves configured provider instances.
//
// A Provider implements only what differs per backend: configuration
// validation and the transport call. The shared matching workflow lives in
// the matching package and treats SendRequest as an opaque prompt→text call.
package provider

import (
	"context"
	"errors"
	"fmt"

	"colmatch/internal/domain"
)

// Provider is implemented once per AI backend.
type Provider interface {
	// ID returns the stable provider identifier, e.g. "openai".
	ID() string

	// DisplayName returns the human-readable provider name.
	DisplayName() string

	// Ready reports whether the provider has been validated and its stored
	// configuration still passes its own checks.
	Ready() bool

	// SupportedModels returns the model IDs this backend accepts.
	SupportedModels() []string

	// ValidateConfig checks backend-specific parameters (API key, region,
	// base URL) and, on success, stores the configuration and flips the
	// provider to ready.
	ValidateConfig(cfg domain.ProviderConfig) error

	// SendRequest sends one prompt and returns the raw response text.
	// The model config has already been range-validated by the caller.
	SendRequest(ctx context.Context, prompt string, model domain.ModelConfig) (string, error)
}

// ErrUnknownProvider is returned by the registry when no factory is
// registered for the requested provider ID.
var ErrUnknownProvider = errors.New("unknown provider")

// InitError means a provider could not be initialized from its
// configuration. It aborts the whole matching call.
type InitError struct {
	ProviderID string
	Err        error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("provider %s: initialization failed: %v", e.ProviderID, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// TransportError means a single backend call failed. The matcher absorbs it
// into a default result for that header; it never aborts a batch.
type TransportError struct {
	ProviderID string
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("provider %s: request failed: %v", e.ProviderID, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SupportsModel reports whether modelID is in the provider's supported set.
func SupportsModel(p Provider, modelID string) bool {
	for _, m := range p.SupportedModels() {
		if m == modelID {
			return true
		}
	}
	return false
}
