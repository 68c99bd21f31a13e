package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// ProviderConfig identifies a backend and carries its opaque parameters
// (API keys, regions, base URLs). The core never interprets the parameter
// map; each provider pulls out what it needs during validation.
type ProviderConfig struct {
	ProviderID   string            `json:"providerId"`
	ProviderName string            `json:"providerName,omitempty"`
	Parameters   map[string]string `json:"parameters,omitempty"`
}

// NewProviderConfig returns a config with an initialized parameter map.
// The display name defaults to the provider ID.
func NewProviderConfig(providerID string) ProviderConfig {
	return ProviderConfig{
		ProviderID:   providerID,
		ProviderName: providerID,
		Parameters:   map[string]string{},
	}
}

// DisplayName returns the configured name, falling back to the provider ID.
func (c ProviderConfig) DisplayName() string {
	if name := strings.TrimSpace(c.ProviderName); name != "" {
		return name
	}
	return c.ProviderID
}

// Param returns the named parameter, trimmed, or "" when absent.
func (c ProviderConfig) Param(key string) string {
	return strings.TrimSpace(c.Parameters[key])
}

// WithParam returns a copy with the parameter set.
func (c ProviderConfig) WithParam(key, value string) ProviderConfig {
	params := make(map[string]string, len(c.Parameters)+1)
	for k, v := range c.Parameters {
		params[k] = v
	}
	params[key] = value
	out := c
	out.Parameters = params
	return out
}

// IsValid reports whether the config names a provider.
func (c ProviderConfig) IsValid() bool {
	return strings.TrimSpace(c.ProviderID) != ""
}

// Fingerprint returns a stable digest over the provider ID and parameters.
// The registry keys its cache on it so that a configuration change triggers
// re-validation instead of silently reusing a stale instance.
func (c ProviderConfig) Fingerprint() string {
	keys := make([]string, 0, len(c.Parameters))
	for k := range c.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	h.Write([]byte(c.ProviderID))
	for _, k := range keys {
		h.Write([]byte{0})
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(c.Parameters[k]))
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}
