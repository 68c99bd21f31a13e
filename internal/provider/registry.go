package provider

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"colmatch/internal/domain"
)

// Factory constructs an unvalidated provider instance.
type Factory func() Provider

// Registry resolves provider IDs to validated Provider instances.
//
// Instances are cached per (provider ID, configuration fingerprint), so a
// caller that resolves the same provider with a different API key or region
// gets a freshly validated instance instead of a stale cached one. The
// registry is owned by its creator; there is no package-level state.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	cache     map[string]Provider
	logger    *zap.Logger
}

// NewRegistry creates an empty registry. A nil logger disables logging.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		factories: map[string]Factory{},
		cache:     map[string]Provider{},
		logger:    logger,
	}
}

// NewDefaultRegistry returns a registry with all built-in backends registered.
func NewDefaultRegistry(logger *zap.Logger) *Registry {
	r := NewRegistry(logger)
	r.Register(OpenAIProviderID, func() Provider { return NewOpenAIProvider() })
	r.Register(AnthropicProviderID, func() Provider { return NewAnthropicProvider() })
	r.Register(GeminiProviderID, func() Provider { return NewGeminiProvider() })
	return r
}

// Register adds a factory for the given provider ID, replacing any previous
// registration and dropping instances cached from it.
func (r *Registry) Register(providerID string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[providerID] = factory
	prefix := providerID + "\x00"
	for key := range r.cache {
		if strings.HasPrefix(key, prefix) {
			delete(r.cache, key)
		}
	}
}

// Resolve returns a ready provider for the given configuration.
//
// A cached instance is reused only while it reports ready and was validated
// against the same configuration fingerprint. Any fingerprint change triggers
// construction and re-validation of a fresh instance.
func (r *Registry) Resolve(cfg domain.ProviderConfig) (Provider, error) {
	providerID := strings.TrimSpace(cfg.ProviderID)
	if providerID == "" {
		return nil, fmt.Errorf("%w: empty provider id", ErrUnknownProvider)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := providerID + "\x00" + cfg.Fingerprint()
	if cached, ok := r.cache[key]; ok && cached.Ready() {
		r.logger.Debug("provider cache hit", zap.String("provider", providerID))
		return cached, nil
	}

	factory, ok := r.factories[providerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, providerID)
	}

	p := factory()
	if err := p.ValidateConfig(cfg); err != nil {
		return nil, &InitError{ProviderID: providerID, Err: err}
	}

	r.cache[key] = p
	r.logger.Info("provider initialized",
		zap.String("provider", providerID),
		zap.String("name", p.DisplayName()))
	return p, nil
}

// Available returns the registered provider IDs in sorted order.
func (r *Registry) Available() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Models returns the model IDs a registered provider supports. It constructs
// a throwaway instance and never validates configuration.
func (r *Registry) Models(providerID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	factory, ok := r.factories[providerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, providerID)
	}
	return factory().SupportedModels(), nil
}
