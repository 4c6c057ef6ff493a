// Package adapter provides implementations for external AI provider integrations.
package adapter

import (
	"fmt"
	"strings"

	"github.com/hpn/hpn-text-optimizer/internal/domain"
	"github.com/tidwall/gjson"
)

// Extraction is the normalized text plus the path it was read from.
type Extraction struct {
	Text string
	Path string
}

// openAIContentPath is tried by the custom provider before the fallback list.
var openAIContentPath = PathAccessor("choices.0.message.content")

// Fixed read orders for the built-in providers. Each accessor skips its own
// path on a shape mismatch, so a malformed field never hides a later match.
var (
	chatCompletionAccessors = []Accessor{
		labeledAccessor("choices[0].message.content", "choices.0.message.content"),
		labeledAccessor("choices[0].text", "choices.0.text"),
		PathAccessor("text"),
	}
	claudeAccessors = []Accessor{
		labeledAccessor("content[0].text", "content.0.text"),
	}
)

const geminiPartsLabel = "candidates[0].content.parts[*].text"

// Extract pulls the generated text out of a provider response body.
// Text is trimmed and blank text counts as no match. When nothing matches,
// the error is ExtractionFailed and carries the raw body.
func Extract(id domain.ProviderID, ext *domain.CustomExtension, body []byte) (Extraction, error) {
	if !gjson.ValidBytes(body) {
		return Extraction{}, &domain.Error{
			Kind:    domain.KindParseError,
			Message: "response body is not valid JSON",
			Body:    body,
		}
	}
	doc := gjson.ParseBytes(body)

	var (
		out Extraction
		ok  bool
	)
	switch id {
	case domain.ProviderGrok:
		out, ok = firstExtraction(doc, chatCompletionAccessors)
	case domain.ProviderClaude:
		out, ok = firstExtraction(doc, claudeAccessors)
	case domain.ProviderGemini:
		out, ok = extractGemini(doc)
	case domain.ProviderCustom:
		out, ok = extractCustom(ext, doc)
	default:
		return Extraction{}, domain.NewError(domain.KindUnknownProvider, fmt.Sprintf("unknown provider %q", id))
	}

	if !ok {
		return Extraction{}, &domain.Error{
			Kind:    domain.KindExtractionFailed,
			Message: fmt.Sprintf("no text found in %s response", id),
			Body:    body,
		}
	}
	return out, nil
}

func firstExtraction(doc gjson.Result, accessors []Accessor) (Extraction, bool) {
	s, path, ok := FirstMatch(doc, accessors)
	return Extraction{Text: s, Path: path}, ok
}

// extractGemini joins every string part of the first candidate with a single space.
func extractGemini(doc gjson.Result) (Extraction, bool) {
	parts, ok := WalkPath(doc, "candidates.0.content.parts")
	if !ok || !parts.IsArray() {
		return Extraction{}, false
	}
	texts := make([]string, 0, len(parts.Array()))
	for _, p := range parts.Array() {
		if !p.IsObject() {
			continue
		}
		if t := p.Get("text"); t.Type == gjson.String && t.Str != "" {
			texts = append(texts, t.Str)
		}
	}
	s, ok := trimmed(strings.Join(texts, " "))
	return Extraction{Text: s, Path: geminiPartsLabel}, ok
}

// extractCustom tries the configured response path, the OpenAI shape, then the
// fallback list, in that order.
func extractCustom(ext *domain.CustomExtension, doc gjson.Result) (Extraction, bool) {
	if ext != nil && strings.TrimSpace(ext.ResponsePath) != "" {
		path := PathAccessor(ext.ResponsePath)
		if s, ok := path.Get(doc); ok {
			return Extraction{Text: s, Path: path.Path}, true
		}
	}
	if s, ok := openAIContentPath.Get(doc); ok {
		return Extraction{Text: s, Path: openAIContentPath.Path}, true
	}
	if s, path, ok := FirstMatch(doc, FallbackAccessors); ok {
		return Extraction{Text: s, Path: path}, true
	}
	return Extraction{}, false
}

func trimmed(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

// ProviderErrorMessage digs the human-readable message out of an error body:
// error.message, then a plain string error field. It reports false otherwise.
func ProviderErrorMessage(body []byte) (string, bool) {
	if !gjson.ValidBytes(body) {
		return "", false
	}
	doc := gjson.ParseBytes(body)
	if s, ok := stringValue(doc.Get("error.message")); ok {
		return s, true
	}
	if s, ok := stringValue(doc.Get("error")); ok {
		return s, true
	}
	if s, ok := stringValue(doc.Get("message")); ok {
		return s, true
	}
	return "", false
}
