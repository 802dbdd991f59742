package fetch

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies an orchestrator failure for the boundary layer.
type ErrorKind int

const (
	// KindTemporary means retries were exhausted on a transient failure or a
	// local guard (rate limiter, bulkhead, attempt timeout) rejected the call.
	// Retrying after RetryAfter is the right response.
	KindTemporary ErrorKind = iota
	// KindUnavailable means the provider's circuit breaker is open and no
	// stale data was available. RetryAfter is the breaker cooldown.
	KindUnavailable
	// KindUnauthorized means credentials are missing or rejected.
	KindUnauthorized
	// KindForbidden means the token lacks access to the resource.
	KindForbidden
	// KindNotFound means the PR or repo does not exist.
	KindNotFound
	// KindMalformed means the provider returned a response we could not use.
	KindMalformed
)

// String returns the string representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindTemporary:
		return "temporary"
	case KindUnavailable:
		return "unavailable"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not-found"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is a classified orchestrator failure. It carries enough structure
// for the boundary layer to choose a user-facing action: wait and retry,
// fix credentials, or report not-found.
type Error struct {
	Kind     ErrorKind
	Provider string

	// RetryAfter suggests how long to wait before retrying. Zero means
	// retrying will not help (terminal kinds).
	RetryAfter time.Duration

	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("fetch %s: %s", e.Provider, e.Kind)
	if e.RetryAfter > 0 {
		msg = fmt.Sprintf("%s (retry after %s)", msg, e.RetryAfter)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the classification from err. The second return is false
// when err is not an orchestrator error.
func KindOf(err error) (ErrorKind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

// RetryAfterOf extracts the retry-after hint from err, or zero when err is
// not an orchestrator error or retrying will not help.
func RetryAfterOf(err error) time.Duration {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.RetryAfter
	}
	return 0
}
