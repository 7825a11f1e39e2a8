package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"grundbuch-online/portal/pkg/security/secrets"
)

// SecretKeyValidator compares presented keys against one named secret.
type SecretKeyValidator struct {
	keys KeySource
	name string
}

// NewSecretKeyValidator creates a validator for the secret called name.
func NewSecretKeyValidator(keys KeySource, name string) *SecretKeyValidator {
	return &SecretKeyValidator{keys: keys, name: name}
}

// Validate checks key in constant time.
func (v *SecretKeyValidator) Validate(ctx context.Context, key string) (*Principal, error) {
	expected, err := v.keys.Lookup(ctx, v.name)
	if errors.Is(err, secrets.ErrNotFound) || (err == nil && expected == "") {
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", v.name, err)
	}
	if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
		return nil, ErrInvalidKey
	}
	return &Principal{Name: v.name}, nil
}
