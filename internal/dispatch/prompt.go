package dispatch

import "strings"

// TextPlaceholder marks where the user's text goes in a prompt template.
const TextPlaceholder = "{text}"

// DefaultPromptTemplate is used when the user has not configured one.
const DefaultPromptTemplate = "{text}，请用更专业的语言重新组织这段文字，使其更清晰、更有说服力，同时保持原意。"

// BuildPrompt fills the first {text} in template with text. A template without
// the placeholder gets the text appended on its own line.
func BuildPrompt(template, text string) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultPromptTemplate
	}
	if !strings.Contains(template, TextPlaceholder) {
		return template + "\n" + text
	}
	return strings.Replace(template, TextPlaceholder, text, 1)
}
