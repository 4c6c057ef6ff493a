// Package adapter provides implementations for external AI provider integrations.
// It builds provider-specific HTTP requests and normalizes their heterogeneous
// responses into plain generated text.
package adapter

import (
	"fmt"

	"github.com/hpn/hpn-text-optimizer/internal/domain"
)

const (
	// DefaultGrokURL is the xAI chat completions endpoint.
	DefaultGrokURL = "https://api.x.ai/v1/chat/completions"

	// DefaultClaudeURL is the Anthropic messages endpoint.
	DefaultClaudeURL = "https://api.anthropic.com/v1/messages"

	// DefaultGeminiURL is the Gemini generateContent endpoint for the default model.
	DefaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-pro:generateContent"
)

// Registry is the static provider catalog. Entries are never mutated after construction.
type Registry struct {
	providers map[domain.ProviderID]domain.ProviderConfig
	order     []domain.ProviderID
}

// NewRegistry creates a registry from the given entries, in order.
// A later entry with the same id replaces an earlier one.
func NewRegistry(configs ...domain.ProviderConfig) *Registry {
	r := &Registry{
		providers: make(map[domain.ProviderID]domain.ProviderConfig, len(configs)),
	}
	for _, cfg := range configs {
		if _, exists := r.providers[cfg.ID]; !exists {
			r.order = append(r.order, cfg.ID)
		}
		r.providers[cfg.ID] = cfg
	}
	return r
}

// DefaultRegistry returns the built-in catalog of the four supported providers.
func DefaultRegistry() *Registry {
	return NewRegistry(
		domain.ProviderConfig{
			ID:           domain.ProviderGrok,
			DisplayName:  "Grok",
			BaseURL:      DefaultGrokURL,
			DefaultModel: "grok-3-beta",
			SupportedModels: []string{
				"grok-3.5",
				"grok-3-beta",
				"grok-3-mini-beta",
				"grok-3-mini-fast-beta",
				"grok-2",
				"grok-1.5",
			},
			AuthMode: domain.AuthBearerHeader,
		},
		domain.ProviderConfig{
			ID:           domain.ProviderClaude,
			DisplayName:  "Claude",
			BaseURL:      DefaultClaudeURL,
			DefaultModel: "claude-3-5-sonnet-20241022",
			SupportedModels: []string{
				"claude-3-7-sonnet-20250219",
				"claude-3-5-sonnet-20241022",
				"claude-3-5-haiku-20241022",
				"claude-3-opus-20240229",
			},
			AuthMode: domain.AuthBearerHeader,
		},
		domain.ProviderConfig{
			ID:           domain.ProviderGemini,
			DisplayName:  "Gemini",
			BaseURL:      DefaultGeminiURL,
			DefaultModel: "gemini-1.5-pro",
			SupportedModels: []string{
				"gemini-2.0-flash",
				"gemini-1.5-pro",
				"gemini-1.5-flash",
				"gemini-1.5-flash-8b",
			},
			AuthMode: domain.AuthURLQueryParam,
		},
		domain.ProviderConfig{
			// Endpoint and model come entirely from user settings.
			ID:          domain.ProviderCustom,
			DisplayName: "Custom",
			AuthMode:    domain.AuthBearerHeader,
		},
	)
}

// Get returns the catalog entry for id.
func (r *Registry) Get(id domain.ProviderID) (domain.ProviderConfig, error) {
	cfg, ok := r.providers[id]
	if !ok {
		return domain.ProviderConfig{}, domain.NewError(domain.KindUnknownProvider,
			fmt.Sprintf("unknown provider %q", id))
	}
	return cfg.WithOverrides("", ""), nil
}

// List returns every entry in catalog order.
func (r *Registry) List() []domain.ProviderConfig {
	out := make([]domain.ProviderConfig, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.providers[id].WithOverrides("", ""))
	}
	return out
}
