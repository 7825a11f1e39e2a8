// Package secrets resolves the credentials the portal needs at request time.
package secrets

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no provider holds the requested secret.
var ErrNotFound = errors.New("secret not found")

// Provider retrieves secrets from one backend.
type Provider interface {
	// Lookup returns the value stored under name, or an error wrapping
	// ErrNotFound when the backend has no such secret.
	Lookup(ctx context.Context, name string) (string, error)

	// Names lists the secret names the backend currently holds.
	// Values are never included.
	Names(ctx context.Context) ([]string, error)

	// Name identifies the provider in logs ("env", "file").
	Name() string
}

// Refreshable is a Provider that can drop its own cached state.
type Refreshable interface {
	Provider
	Refresh(ctx context.Context) error
}
