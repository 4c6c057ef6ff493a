// Package adapter provides implementations for external AI provider integrations.
package adapter

// OpenAI-compatible request types, shared by grok and the default
// custom-provider body.

// ChatRequest represents a chat completion request.
type ChatRequest struct {
	// Model specifies which model to use (e.g., "grok-3-beta").
	Model string `json:"model"`

	// Messages contains the conversation; the optimizer always sends one user message.
	Messages []ChatMessage `json:"messages"`

	// MaxTokens limits the response length.
	MaxTokens int `json:"max_tokens"`

	// Temperature controls randomness (0.0-2.0). Zero is sent explicitly.
	Temperature float64 `json:"temperature"`
}

// ChatMessage represents a single message in the conversation.
type ChatMessage struct {
	// Role is one of: "system", "user", "assistant".
	Role string `json:"role"`

	// Content is the message text content.
	Content string `json:"content"`
}
