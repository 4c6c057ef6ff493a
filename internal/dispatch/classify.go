package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/hpn/hpn-text-optimizer/internal/adapter"
	"github.com/hpn/hpn-text-optimizer/internal/domain"
)

// classifyStatus maps a non-2xx provider response to AuthError, ServerError or ApiError.
func classifyStatus(provider domain.ProviderID, status int, body []byte) *domain.Error {
	var (
		kind    domain.ErrorKind
		message string
	)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = domain.KindAuthError
		message = fmt.Sprintf("authentication failed (HTTP %d): check that the %s API key is valid and not expired", status, provider)
	case status >= 500:
		kind = domain.KindServerError
		message = fmt.Sprintf("%s server error (HTTP %d), please try again later", provider, status)
	default:
		kind = domain.KindAPIError
		message = fmt.Sprintf("%s request failed (HTTP %d)", provider, status)
	}

	if detail, ok := adapter.ProviderErrorMessage(body); ok {
		message += ": " + detail
	}

	return &domain.Error{
		Kind:    kind,
		Message: message,
		Status:  status,
		Body:    body,
	}
}

// classifyTransport maps a failed round trip to RequestTimeout or NetworkFailure.
func classifyTransport(err error, timeout time.Duration) *domain.Error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return domain.WrapError(domain.KindRequestTimeout,
			fmt.Sprintf("request timed out after %s, please try again later", timeout), err)
	case errors.Is(err, context.Canceled):
		return domain.WrapError(domain.KindNetworkFailure, "request was canceled", err)
	default:
		return domain.WrapError(domain.KindNetworkFailure, "network request failed", err)
	}
}

// shouldCache reports whether an error result is stored. Only deterministic
// provider-side failures are; transport, parse and extraction failures are not.
func shouldCache(kind domain.ErrorKind) bool {
	return kind.IsProviderFailure()
}

// errResponseTooLarge marks a 2xx body cut off at the configured read limit.
var errResponseTooLarge = errors.New("response too large")

// debugTag labels an error for the debug field of a Result.
func debugTag(err error) string {
	var de *domain.Error
	if !errors.As(err, &de) {
		return "internal error"
	}
	if de.Status > 0 && de.Kind.IsProviderFailure() {
		return fmt.Sprintf("HTTP %d", de.Status)
	}
	switch de.Kind {
	case domain.KindInputTooShort:
		return "input too short"
	case domain.KindMissingCredentials:
		return "missing credentials"
	case domain.KindInvalidCustomTemplate:
		return "invalid custom template"
	case domain.KindRequestTimeout:
		return "timeout"
	case domain.KindNetworkFailure:
		return "network error"
	case domain.KindParseError:
		if errors.Is(de.Err, errResponseTooLarge) {
			return fmt.Sprintf("response too large (HTTP %d)", de.Status)
		}
		return fmt.Sprintf("invalid JSON (HTTP %d)", de.Status)
	case domain.KindExtractionFailed:
		return fmt.Sprintf("no text in response (HTTP %d)", de.Status)
	case domain.KindUnknownProvider:
		return "unknown provider"
	case domain.KindInvalidSettings:
		return "invalid settings"
	default:
		return string(de.Kind)
	}
}
