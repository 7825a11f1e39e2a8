package uvst

import (
	"fmt"
	"time"
)

// ConfigError reports missing or unusable configuration such as an unknown
// environment or absent credentials. It is fatal for the call.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("uvst configuration error for %q: %s: %v", e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("uvst configuration error for %q: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// ValidationError reports a query parameter rejected before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// AuthError is an upstream 401 or 403. Callers must re-authenticate.
type AuthError struct {
	Environment string
	StatusCode  int
	Body        []byte
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("uvst %s authentication failed (status %d)", e.Environment, e.StatusCode)
}

// TimeoutError is returned when the upstream did not answer within Timeout.
type TimeoutError struct {
	Environment string
	Timeout     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("uvst %s request timeout after %s", e.Environment, e.Timeout)
}

// UpstreamError is any other non-2xx answer, or a transport failure when
// StatusCode is 0. Body holds the upstream payload unchanged.
type UpstreamError struct {
	Environment string
	StatusCode  int
	Body        []byte
	Cause       error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("uvst %s unreachable: %v", e.Environment, e.Cause)
	}
	return fmt.Sprintf("uvst %s error (status %d)", e.Environment, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Cause }

// ParseError is a 2xx answer whose body could not be decoded.
type ParseError struct {
	Environment string
	RawResponse string
	Cause       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("uvst %s response parse error: %v", e.Environment, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }
