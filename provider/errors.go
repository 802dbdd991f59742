package provider

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a provider failure for retry and user-facing handling.
type ErrorKind int

const (
	// KindTransient covers network failures, timeouts, and 5xx responses.
	KindTransient ErrorKind = iota
	// KindRateLimited means the provider throttled us (429 or API quota).
	KindRateLimited
	// KindUnauthorized means credentials are missing or rejected (401).
	KindUnauthorized
	// KindForbidden means the token lacks access to the resource (403).
	KindForbidden
	// KindNotFound means the PR or repo does not exist (404).
	KindNotFound
	// KindMalformed means the provider returned a response we could not use.
	KindMalformed
)

// String returns the string representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRateLimited:
		return "rate-limited"
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

// Retryable reports whether a failure of this kind is worth retrying.
// Rate limits are transient from the caller's perspective: the provider
// recovers on its own once the window resets.
func (k ErrorKind) Retryable() bool {
	return k == KindTransient || k == KindRateLimited
}

// Error is a classified provider failure. Adapters construct these; the core
// inspects Kind to drive retry, breaker, and user-facing classification.
type Error struct {
	Kind     ErrorKind
	Provider string
	Status   int // HTTP status when applicable, 0 otherwise
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("provider %s: %s", e.Provider, e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
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

// IsRetryable reports whether the error is worth retrying.
func (e *Error) IsRetryable() bool {
	return e.Kind.Retryable()
}

// Transient wraps err as a retryable transient failure.
func Transient(name string, err error) *Error {
	return &Error{Kind: KindTransient, Provider: name, Err: err}
}

// FromStatus builds an Error from an HTTP response status.
func FromStatus(name string, status int) *Error {
	e := &Error{Provider: name, Status: status}
	switch {
	case status == 401:
		e.Kind = KindUnauthorized
	case status == 403:
		e.Kind = KindForbidden
	case status == 404:
		e.Kind = KindNotFound
	case status == 429:
		e.Kind = KindRateLimited
	case status >= 500:
		e.Kind = KindTransient
	default:
		e.Kind = KindMalformed
	}
	return e
}

// Retryable reports whether err should be retried. Unclassified errors are
// treated as transient so that a forgetful adapter degrades to retrying
// rather than surfacing raw errors to users.
func Retryable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.IsRetryable()
	}
	return err != nil
}

// KindOf extracts the classification from err, defaulting to KindTransient
// for unclassified errors.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindTransient
}
