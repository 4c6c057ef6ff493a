// Package domain contains the core business entities and value objects.
// These structs are framework-agnostic and represent the heart of the application.
package domain

import "fmt"

// ProviderID identifies one upstream LLM vendor.
type ProviderID string

const (
	ProviderGrok   ProviderID = "grok"
	ProviderClaude ProviderID = "claude"
	ProviderGemini ProviderID = "gemini"
	ProviderCustom ProviderID = "custom"
)

// AuthMode describes how the API key travels to the provider.
type AuthMode string

const (
	// AuthBearerHeader sends "Authorization: Bearer <key>".
	AuthBearerHeader AuthMode = "bearer-header"

	// AuthURLQueryParam appends "?key=<key>" to the endpoint URL.
	AuthURLQueryParam AuthMode = "url-query-param"
)

// ProviderConfig is an immutable catalog entry for a provider.
type ProviderConfig struct {
	// ID identifies the provider for routing logic.
	ID ProviderID `json:"id"`

	// DisplayName is the human-readable name of the provider.
	DisplayName string `json:"display_name"`

	// BaseURL is the full endpoint the request is POSTed to.
	BaseURL string `json:"base_url"`

	// DefaultModel is used when no model variant is configured.
	DefaultModel string `json:"default_model"`

	// SupportedModels lists known model variants in display order.
	SupportedModels []string `json:"supported_models"`

	// AuthMode selects header or query-string key transport.
	AuthMode AuthMode `json:"auth_mode"`
}

// WithOverrides returns a copy of the config with a user-supplied endpoint
// and default model applied. Empty values keep the catalog defaults.
func (c ProviderConfig) WithOverrides(baseURL, model string) ProviderConfig {
	out := c
	out.SupportedModels = append([]string(nil), c.SupportedModels...)
	if baseURL != "" {
		out.BaseURL = baseURL
	}
	if model != "" {
		out.DefaultModel = model
	}
	return out
}

// Supports reports whether model is in the supported-model list.
func (c ProviderConfig) Supports(model string) bool {
	for _, m := range c.SupportedModels {
		if m == model {
			return true
		}
	}
	return false
}

// GenerationRequest is the per-call value object handed to the request builder.
type GenerationRequest struct {
	ProviderID   ProviderID
	ModelVariant string
	Prompt       string
	MaxTokens    int
	Temperature  float64
}

// Validate checks generation parameter ranges.
func (r GenerationRequest) Validate() error {
	if r.MaxTokens <= 0 {
		return NewError(KindInvalidSettings, fmt.Sprintf("max tokens must be positive, got %d", r.MaxTokens))
	}
	if r.Temperature < 0 || r.Temperature > 2 {
		return NewError(KindInvalidSettings, fmt.Sprintf("temperature must be within [0, 2], got %g", r.Temperature))
	}
	return nil
}

// Template placeholders understood by the custom provider.
const (
	PlaceholderPrompt      = "__PROMPT__"
	PlaceholderModel       = "__MODEL__"
	PlaceholderTemperature = "__TEMPERATURE__"
	PlaceholderMaxTokens   = "__MAX_TOKENS__"
)

// CustomExtension carries the user-defined request/response shape of the custom provider.
type CustomExtension struct {
	// RequestFormatTemplate is JSON with placeholders; empty means OpenAI-style body.
	RequestFormatTemplate string `json:"requestFormat,omitempty" mapstructure:"requestformat"`

	// ResponsePath is a dot-separated path such as "choices.0.message.content".
	ResponsePath string `json:"responsePath,omitempty" mapstructure:"responsepath"`
}

// IsZero reports whether no custom fields are set.
func (e *CustomExtension) IsZero() bool {
	return e == nil || (e.RequestFormatTemplate == "" && e.ResponsePath == "")
}
