package auth

import (
	"context"
	"errors"
)

// KeySource resolves a named secret. *secrets.Manager implements it.
type KeySource interface {
	Lookup(ctx context.Context, name string) (string, error)
}

// Principal is the authenticated caller.
type Principal struct {
	// Name is the secret name the key matched.
	Name string

	// Source describes where the key was presented, e.g. "header:Authorization".
	Source string
}

// Validator checks a presented key.
type Validator interface {
	Validate(ctx context.Context, key string) (*Principal, error)
}

var (
	// ErrInvalidKey is returned for a wrong key.
	ErrInvalidKey = errors.New("invalid API key")

	// ErrNotConfigured is returned when no key is set up at all.
	ErrNotConfigured = errors.New("admin API key not configured")
)
