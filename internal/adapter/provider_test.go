package adapter

import (
	"testing"

	"github.com/hpn/hpn-text-optimizer/internal/domain"
)

func TestRegistry_Get(t *testing.T) {
	registry := DefaultRegistry()

	tests := []struct {
		id       domain.ProviderID
		authMode domain.AuthMode
		baseURL  string
	}{
		{domain.ProviderGrok, domain.AuthBearerHeader, DefaultGrokURL},
		{domain.ProviderClaude, domain.AuthBearerHeader, DefaultClaudeURL},
		{domain.ProviderGemini, domain.AuthURLQueryParam, DefaultGeminiURL},
		{domain.ProviderCustom, domain.AuthBearerHeader, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			cfg, err := registry.Get(tt.id)
			if err != nil {
				t.Fatalf("Get(%s) error = %v", tt.id, err)
			}
			if cfg.AuthMode != tt.authMode {
				t.Errorf("AuthMode = %s, want %s", cfg.AuthMode, tt.authMode)
			}
			if cfg.BaseURL != tt.baseURL {
				t.Errorf("BaseURL = %s, want %s", cfg.BaseURL, tt.baseURL)
			}
			if tt.id != domain.ProviderCustom && !cfg.Supports(cfg.DefaultModel) {
				t.Errorf("default model %s missing from supported models", cfg.DefaultModel)
			}
		})
	}
}

func TestRegistry_UnknownProvider(t *testing.T) {
	_, err := DefaultRegistry().Get("openai")
	if !domain.IsKind(err, domain.KindUnknownProvider) {
		t.Errorf("Get(openai) error = %v, want UnknownProvider", err)
	}
}

func TestRegistry_EntriesAreImmutable(t *testing.T) {
	registry := DefaultRegistry()

	cfg, _ := registry.Get(domain.ProviderGrok)
	cfg.SupportedModels[0] = "tampered"
	_ = cfg.WithOverrides("https://proxy.example.com", "grok-2")

	again, _ := registry.Get(domain.ProviderGrok)
	if again.SupportedModels[0] != "grok-3.5" {
		t.Errorf("SupportedModels[0] = %s, want grok-3.5", again.SupportedModels[0])
	}
	if again.BaseURL != DefaultGrokURL {
		t.Errorf("BaseURL = %s, want %s", again.BaseURL, DefaultGrokURL)
	}
}

func TestRegistry_ListOrder(t *testing.T) {
	list := DefaultRegistry().List()
	want := []domain.ProviderID{domain.ProviderGrok, domain.ProviderClaude, domain.ProviderGemini, domain.ProviderCustom}

	if len(list) != len(want) {
		t.Fatalf("len(List()) = %d, want %d", len(list), len(want))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("List()[%d].ID = %s, want %s", i, list[i].ID, id)
		}
	}
}

func TestProviderConfig_WithOverrides(t *testing.T) {
	cfg, _ := DefaultRegistry().Get(domain.ProviderGrok)

	over := cfg.WithOverrides("https://proxy.example.com/v1/chat/completions", "grok-2")
	if over.BaseURL != "https://proxy.example.com/v1/chat/completions" {
		t.Errorf("BaseURL = %s", over.BaseURL)
	}
	if over.DefaultModel != "grok-2" {
		t.Errorf("DefaultModel = %s, want grok-2", over.DefaultModel)
	}

	same := cfg.WithOverrides("", "")
	if same.BaseURL != cfg.BaseURL || same.DefaultModel != cfg.DefaultModel {
		t.Errorf("empty overrides changed config: %+v", same)
	}
}
