// Package capabilities holds the embedded model catalog: display metadata,
// limits, seed defaults and the per-model rate table used for cost estimates.
package capabilities

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// DefaultContextWindow applies to models missing from the catalog.
const DefaultContextWindow = 32000

// Registry manages model capabilities across all providers
type Registry struct {
	providers map[string]*ProviderCapabilities
	models    map[string]*ModelCapabilities
	mu        sync.RWMutex
}

// NewRegistry loads every embedded provider file.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		providers: make(map[string]*ProviderCapabilities),
		models:    make(map[string]*ModelCapabilities),
	}

	entries, err := configFiles.ReadDir("config")
	if err != nil {
		return nil, fmt.Errorf("read capability configs: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		if err := r.loadProviderFile(path.Join("config", entry.Name())); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// loadProviderFile loads a provider's capability YAML file
func (r *Registry) loadProviderFile(filename string) error {
	data, err := configFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var providerCaps ProviderCapabilities
	if err := yaml.Unmarshal(data, &providerCaps); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}
	if providerCaps.Provider == "" {
		return fmt.Errorf("%s: missing provider", filename)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[providerCaps.Provider] = &providerCaps
	for i := range providerCaps.Models {
		m := &providerCaps.Models[i]
		if _, dup := r.models[m.ID]; dup {
			return fmt.Errorf("%s: model %s defined twice", filename, m.ID)
		}
		r.models[m.ID] = m
	}
	return nil
}

// GetModelCapabilities returns capabilities for a model id such as
// "google/gemini-2.5-flash".
func (r *Registry) GetModelCapabilities(modelID string) (*ModelCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[modelID]
	if !ok {
		return nil, fmt.Errorf("unknown model %s", modelID)
	}
	return m, nil
}

// Pricing returns the rate pair for a model, or false when the model is not
// in the catalog.
func (r *Registry) Pricing(modelID string) (Pricing, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[modelID]
	if !ok {
		return Pricing{}, false
	}
	return m.Pricing, true
}

// ContextWindow returns the model's context window, or DefaultContextWindow.
func (r *Registry) ContextWindow(modelID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if m, ok := r.models[modelID]; ok && m.ContextWindow > 0 {
		return m.ContextWindow
	}
	return DefaultContextWindow
}

// ListProviderModels returns all models for a provider (ordered as defined in YAML)
func (r *Registry) ListProviderModels(provider string) ([]ModelCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providerCaps, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	return providerCaps.Models, nil
}

// AllModels returns every model ordered by sort order, then id.
func (r *Registry) AllModels() []ModelCapabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ModelCapabilities, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// GetAllProviders returns the registered provider names, sorted
func (r *Registry) GetAllProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]string, 0, len(r.providers))
	for provider := range r.providers {
		providers = append(providers, provider)
	}
	sort.Strings(providers)
	return providers
}
