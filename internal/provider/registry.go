package provider

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/relaycode/codeagent/internal/logging"
	"github.com/relaycode/codeagent/pkg/types"
)

// Registry manages all available providers for the provider-abstraction
// branch of the LLM Transport (C4) — used when an Endpoint names a
// provider/model pair with no direct base URL, letting eino pick the
// SDK-backed client instead of a raw HTTP POST.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	config    *types.Config
}

// NewRegistry creates a new provider registry.
func NewRegistry(config *types.Config) *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		config:    config,
	}
}

// Register adds a provider to the registry. A duplicate ID is a
// startup error (spec §4.2's registration contract applies equally to
// the Tool Registry and this provider registry): silently overwriting
// an earlier entry would let a misconfigured second "anthropic" block
// shadow the first without any signal.
func (r *Registry) Register(provider Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[provider.ID()]; exists {
		return fmt.Errorf("provider %q already registered", provider.ID())
	}
	r.providers[provider.ID()] = provider
	return nil
}

// Get retrieves a provider by ID.
func (r *Registry) Get(providerID string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[providerID]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", providerID)
	}
	return provider, nil
}

// List returns all available providers.
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		providers = append(providers, p)
	}
	return providers
}

// GetModel retrieves a specific model from a provider.
func (r *Registry) GetModel(providerID, modelID string) (*types.Model, error) {
	provider, err := r.Get(providerID)
	if err != nil {
		return nil, err
	}

	for _, model := range provider.Models() {
		if model.ID == modelID {
			return &model, nil
		}
	}

	return nil, fmt.Errorf("model not found: %s/%s", providerID, modelID)
}

// AllModels returns all models from all providers, highest-priority first.
func (r *Registry) AllModels() []types.Model {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var models []types.Model
	for _, p := range r.providers {
		models = append(models, p.Models()...)
	}

	sort.Slice(models, func(i, j int) bool {
		return modelPriority(models[i].ID) > modelPriority(models[j].ID)
	})

	return models
}

// DefaultModel returns the default model, preferring the legacy
// top-level Config.Model if set.
func (r *Registry) DefaultModel() (*types.Model, error) {
	if r.config != nil && r.config.Model != "" {
		providerID, modelID := ParseModelString(r.config.Model)
		return r.GetModel(providerID, modelID)
	}

	if model, err := r.GetModel("anthropic", "claude-sonnet-4-20250514"); err == nil {
		return model, nil
	}

	models := r.AllModels()
	if len(models) == 0 {
		return nil, fmt.Errorf("no models available")
	}
	return &models[0], nil
}

// ParseModelString parses "provider/model" format.
func ParseModelString(s string) (providerID, modelID string) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "", s
}

// modelPriority returns sorting priority for models.
func modelPriority(modelID string) int {
	switch {
	case strings.Contains(modelID, "gpt-5"):
		return 100
	case strings.Contains(modelID, "claude-sonnet-4"):
		return 90
	case strings.Contains(modelID, "claude-opus"):
		return 85
	case strings.Contains(modelID, "gpt-4o"):
		return 80
	case strings.Contains(modelID, "claude-3-5"):
		return 75
	case strings.Contains(modelID, "gemini-2"):
		return 70
	default:
		return 50
	}
}

// InitializeProviders creates and registers one Provider per entry of
// config.Provider, keyed by the map key itself ("openai", "anthropic",
// "ark") rather than a separate npm-style type field — this runtime's
// narrower ProviderConfig has no such field (see DESIGN.md).
func InitializeProviders(ctx context.Context, config *types.Config) (*Registry, error) {
	registry := NewRegistry(config)

	configured := make(map[string]bool)

	for name, cfg := range config.Provider {
		if cfg.Disable {
			continue
		}
		configured[name] = true

		var p Provider
		var err error

		switch name {
		case "anthropic", "claude":
			if cfg.APIKey != "" {
				p, err = NewAnthropicProvider(ctx, "anthropic", cfg)
			}
		case "openai":
			if cfg.APIKey != "" || cfg.BaseURL != "" {
				p, err = NewOpenAIProvider(ctx, "openai", cfg)
			}
		case "ark":
			if cfg.APIKey != "" {
				p, err = NewArkProvider(ctx, "ark", cfg)
			}
		default:
			// OpenAI-compatible endpoints (local servers, third-party
			// hosts) register under an arbitrary key with a BaseURL.
			if cfg.BaseURL != "" {
				p, err = NewOpenAIProvider(ctx, name, cfg)
			}
		}

		if err != nil {
			logging.Warn().Str("provider", name).Err(err).Msg("failed to initialize provider")
			continue
		}
		if p != nil {
			if err := registry.Register(p); err != nil {
				return nil, fmt.Errorf("initializing providers: %w", err)
			}
		}
	}

	if !configured["anthropic"] {
		if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
			if p, err := NewAnthropicProvider(ctx, "anthropic", types.ProviderConfig{APIKey: apiKey}); err == nil && p != nil {
				if err := registry.Register(p); err != nil {
					return nil, fmt.Errorf("initializing providers: %w", err)
				}
			}
		}
	}
	if !configured["openai"] {
		if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
			if p, err := NewOpenAIProvider(ctx, "openai", types.ProviderConfig{APIKey: apiKey}); err == nil && p != nil {
				if err := registry.Register(p); err != nil {
					return nil, fmt.Errorf("initializing providers: %w", err)
				}
			}
		}
	}

	return registry, nil
}
