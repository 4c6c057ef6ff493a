package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the dispatch layer can report.
type ErrorKind string

const (
	KindInputTooShort         ErrorKind = "InputTooShort"
	KindMissingCredentials    ErrorKind = "MissingCredentials"
	KindInvalidCustomTemplate ErrorKind = "InvalidCustomTemplate"
	KindNetworkFailure        ErrorKind = "NetworkFailure"
	KindRequestTimeout        ErrorKind = "RequestTimeout"
	KindAuthError             ErrorKind = "AuthError"
	KindServerError           ErrorKind = "ServerError"
	KindAPIError              ErrorKind = "ApiError"
	KindParseError            ErrorKind = "ParseError"
	KindExtractionFailed      ErrorKind = "ExtractionFailed"
	KindUnknownProvider       ErrorKind = "UnknownProvider"
	KindInvalidSettings       ErrorKind = "InvalidSettings"
	KindInternal              ErrorKind = "Internal"
)

// IsNetwork reports whether the kind is a transport-level failure.
// RequestTimeout is a NetworkFailure.
func (k ErrorKind) IsNetwork() bool {
	return k == KindNetworkFailure || k == KindRequestTimeout
}

// IsProviderFailure reports whether the provider answered with a non-2xx status.
func (k ErrorKind) IsProviderFailure() bool {
	return k == KindAuthError || k == KindServerError || k == KindAPIError
}

// Error is the typed failure carried through the dispatch layer.
type Error struct {
	Kind    ErrorKind
	Message string

	// Status is the HTTP status code, when the provider answered.
	Status int

	// Body is the raw provider body kept for diagnostics.
	Body []byte

	Err error
}

// NewError creates an Error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError creates an Error of the given kind wrapping cause.
func WrapError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind checks if err is a domain Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == kind
}
