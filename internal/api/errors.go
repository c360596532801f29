package api

import (
	"errors"
	"fmt"
)

// AuthError indicates the session is missing or expired (HTTP 401).
// It is never retried; the UI surfaces it as a need-to-reauthenticate
// condition.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication required: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// RateLimitError indicates the service throttled the request (HTTP 429).
type RateLimitError struct {
	Method string
	Path   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (429) on %s %s", e.Method, e.Path)
}

// IsRateLimited reports whether err is a rate-limit rejection.
func IsRateLimited(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}

// APIError is an application-level rejection: the service answered, with a
// non-success status and (usually) an {"error": ...} payload. It is
// definitive and never retried.
type APIError struct {
	Status  int
	Method  string
	Path    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (%d) on %s %s: %s",
			e.Status, e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("unexpected status %d on %s %s",
		e.Status, e.Method, e.Path)
}

// TransportError is a network-level failure: the call never produced a
// response. Treated like rate limiting for retry purposes.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable is the default retry predicate: only throttling and
// transport-level failures are transient. Application errors, auth
// failures, and malformed requests are definitive.
func Retryable(err error) bool {
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return true
	}
	var tErr *TransportError
	return errors.As(err, &tErr)
}
