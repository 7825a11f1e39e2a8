package client

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTokenRequired is returned by queries issued before authenticating.
	ErrTokenRequired = errors.New("token required, authenticate first")

	// ErrTokenExpired is returned by queries issued with an expired token.
	ErrTokenExpired = errors.New("token expired, authenticate again")
)

// AuthError is a rejected authentication or a 401/403 from a query. The
// caller must authenticate from scratch.
type AuthError struct {
	Status int
	Body   []byte
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (status %d)", e.Status)
}

// TimeoutError means the register or the portal did not answer in time.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("upstream not responding after %s, please retry", e.Timeout)
	}
	return "upstream not responding, please retry"
}

// GatewayError is any other failed call. Kind is the gateway failure kind
// and Body the envelope data.
type GatewayError struct {
	Status  int
	Kind    string
	Message string
	Body    []byte
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway call failed (status %d, %s): %s", e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("gateway call failed (status %d)", e.Status)
}
