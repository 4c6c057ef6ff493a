// Package adapter provides implementations for external AI provider integrations.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hpn/hpn-text-optimizer/internal/domain"
)

// DefaultAnthropicVersion is sent in the anthropic-version header.
const DefaultAnthropicVersion = "2023-06-01"

// HTTPRequest is a transport-ready provider request.
type HTTPRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte

	// Model is the model variant the body was built for.
	Model string
}

// NewRequest converts the built request into an *http.Request bound to ctx.
func (r *HTTPRequest) NewRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, bytes.NewReader(r.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header = r.Header.Clone()
	return req, nil
}

// RequestBuilder encodes each provider's auth scheme and payload schema.
type RequestBuilder struct {
	anthropicVersion string
}

// RequestBuilderOption is a functional option for configuring RequestBuilder.
type RequestBuilderOption func(*RequestBuilder)

// WithAnthropicVersion overrides the anthropic-version header sent to claude.
func WithAnthropicVersion(version string) RequestBuilderOption {
	return func(b *RequestBuilder) {
		if version != "" {
			b.anthropicVersion = version
		}
	}
}

// NewRequestBuilder creates a RequestBuilder.
func NewRequestBuilder(opts ...RequestBuilderOption) *RequestBuilder {
	b := &RequestBuilder{
		anthropicVersion: DefaultAnthropicVersion,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build produces the request for cfg. It fails with MissingCredentials before
// anything else when the key or endpoint is absent, and with
// InvalidCustomTemplate when a custom template cannot be rendered. Falling back
// to the default body on a bad template is the caller's decision.
func (b *RequestBuilder) Build(cfg domain.ProviderConfig, req domain.GenerationRequest, apiKey string, ext *domain.CustomExtension) (*HTTPRequest, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, domain.NewError(domain.KindMissingCredentials,
			fmt.Sprintf("API key for %s is not configured", cfg.ID))
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, domain.NewError(domain.KindMissingCredentials,
			fmt.Sprintf("endpoint URL for %s is not configured", cfg.ID))
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	model := req.ModelVariant
	if model == "" {
		model = cfg.DefaultModel
	}

	var (
		body []byte
		err  error
	)
	switch cfg.ID {
	case domain.ProviderGemini:
		baseURL = geminiURL(baseURL, model)
		body, err = marshalJSON(mapToGeminiRequest(req.Prompt, req.MaxTokens, req.Temperature))
	case domain.ProviderGrok, domain.ProviderClaude:
		body, err = marshalJSON(chatBody(model, req))
	case domain.ProviderCustom:
		if ext != nil && strings.TrimSpace(ext.RequestFormatTemplate) != "" {
			body, err = RenderTemplate(ext.RequestFormatTemplate, req.Prompt, model, req.Temperature, req.MaxTokens)
		} else {
			body, err = marshalJSON(chatBody(model, req))
		}
	default:
		return nil, domain.NewError(domain.KindUnknownProvider, fmt.Sprintf("unknown provider %q", cfg.ID))
	}
	if err != nil {
		return nil, err
	}

	out := &HTTPRequest{
		Method: http.MethodPost,
		URL:    baseURL,
		Header: make(http.Header),
		Body:   body,
		Model:  model,
	}
	out.Header.Set("Content-Type", "application/json")

	switch cfg.AuthMode {
	case domain.AuthURLQueryParam:
		out.URL = appendKeyParam(baseURL, apiKey)
	default:
		out.Header.Set("Authorization", "Bearer "+apiKey)
	}

	if cfg.ID == domain.ProviderClaude {
		out.Header.Set("x-api-key", apiKey)
		out.Header.Set("anthropic-version", b.anthropicVersion)
	}

	return out, nil
}

// chatBody is the OpenAI-style body used by grok, claude and the default custom provider.
func chatBody(model string, req domain.GenerationRequest) ChatRequest {
	return ChatRequest{
		Model:       model,
		Messages:    []ChatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
}

// appendKeyParam appends key=<apiKey>, keeping any existing query string.
func appendKeyParam(baseURL, apiKey string) string {
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return baseURL + sep + "key=" + url.QueryEscape(apiKey)
}

// marshalJSON encodes v without HTML escaping so prompt text survives byte-for-byte.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
