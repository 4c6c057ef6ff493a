// Package adapter provides implementations for external AI provider integrations.
package adapter

import (
	"regexp"
	"strings"
)

// geminiModelSegment matches the model segment of a ".../models/<name>:<method>" URL.
var geminiModelSegment = regexp.MustCompile(`/models/([^/:?]+):`)

// geminiURL rewrites the model segment of baseURL to model. URLs without a
// recognizable model segment are returned as configured.
func geminiURL(baseURL, model string) string {
	url := strings.TrimSpace(baseURL)
	if model == "" {
		return url
	}
	m := geminiModelSegment.FindStringSubmatchIndex(url)
	if m == nil || url[m[2]:m[3]] == model {
		return url
	}
	return url[:m[2]] + model + url[m[3]:]
}

// mapToGeminiRequest builds a generateContent body with a single user turn.
func mapToGeminiRequest(prompt string, maxTokens int, temperature float64) GeminiRequest {
	return GeminiRequest{
		Contents: []GeminiContent{
			{
				Role:  "user",
				Parts: []GeminiPart{{Text: prompt}},
			},
		},
		GenerationConfig: GeminiGenerationConfig{
			Temperature:     &temperature,
			MaxOutputTokens: &maxTokens,
		},
	}
}

// ============================================================================
// Gemini API Types
// ============================================================================

// GeminiRequest represents a Gemini generateContent request.
type GeminiRequest struct {
	Contents         []GeminiContent        `json:"contents"`
	GenerationConfig GeminiGenerationConfig `json:"generationConfig"`
}

// GeminiContent represents a content block in Gemini format.
type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart represents a part of a content block.
type GeminiPart struct {
	Text string `json:"text"`
}

// GeminiGenerationConfig contains generation parameters.
type GeminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}
