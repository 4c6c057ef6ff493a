// Package adapter provides implementations for external AI provider integrations.
package adapter

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/hpn/hpn-text-optimizer/internal/domain"
)

// probeReplacer makes bare numeric placeholders parseable so the template
// itself can be checked before substitution.
var probeReplacer = strings.NewReplacer(
	domain.PlaceholderTemperature, "0",
	domain.PlaceholderMaxTokens, "0",
)

// RenderTemplate substitutes the four placeholders into a custom request template.
//
// String placeholders (__PROMPT__, __MODEL__) are replaced with JSON-escaped text
// and are expected inside string literals. Numeric placeholders are replaced with
// number literals, whether bare or as a whole quoted string. Substitution happens
// in one pass, so placeholder-like text inside the prompt is never expanded.
func RenderTemplate(tmpl, prompt, model string, temperature float64, maxTokens int) ([]byte, error) {
	if !json.Valid([]byte(probeReplacer.Replace(tmpl))) {
		return nil, domain.NewError(domain.KindInvalidCustomTemplate,
			"custom request format is not valid JSON")
	}

	promptText, err := escapeJSONString(prompt)
	if err != nil {
		return nil, err
	}
	modelText, err := escapeJSONString(model)
	if err != nil {
		return nil, err
	}
	temp := strconv.FormatFloat(temperature, 'f', -1, 64)
	tokens := strconv.Itoa(maxTokens)

	r := strings.NewReplacer(
		`"`+domain.PlaceholderTemperature+`"`, temp,
		`"`+domain.PlaceholderMaxTokens+`"`, tokens,
		domain.PlaceholderTemperature, temp,
		domain.PlaceholderMaxTokens, tokens,
		domain.PlaceholderPrompt, promptText,
		domain.PlaceholderModel, modelText,
	)
	rendered := r.Replace(tmpl)

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(rendered)); err != nil {
		return nil, domain.WrapError(domain.KindInvalidCustomTemplate,
			"custom request format is not valid JSON after substitution", err)
	}
	return buf.Bytes(), nil
}

// escapeJSONString returns s encoded as the inside of a JSON string literal.
func escapeJSONString(s string) (string, error) {
	b, err := marshalJSON(s)
	if err != nil {
		return "", err
	}
	return string(b[1 : len(b)-1]), nil
}
