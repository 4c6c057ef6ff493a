package domain

// ResultKind tags a Result as success or error.
type ResultKind string

const (
	ResultSuccess ResultKind = "success"
	ResultError   ResultKind = "error"
)

// Result is the single terminal outcome of an optimize call.
type Result struct {
	Kind ResultKind `json:"kind"`

	// Text is the generated text (success only).
	Text string `json:"text,omitempty"`

	// Message is the user-facing error message (error only).
	Message string `json:"message,omitempty"`

	// ErrorKind classifies the failure (error only).
	ErrorKind ErrorKind `json:"error_kind,omitempty"`

	// DebugTag is a short diagnostic label such as "HTTP 401".
	DebugTag string `json:"debug"`
}

// Success builds a successful Result.
func Success(text, debugTag string) Result {
	return Result{Kind: ResultSuccess, Text: text, DebugTag: debugTag}
}

// Failure builds an error Result.
func Failure(kind ErrorKind, message, debugTag string) Result {
	return Result{Kind: ResultError, ErrorKind: kind, Message: message, DebugTag: debugTag}
}

// IsSuccess reports whether r carries generated text.
func (r Result) IsSuccess() bool {
	return r.Kind == ResultSuccess
}

// ConnectionResult is the outcome of a test-connection call.
type ConnectionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
