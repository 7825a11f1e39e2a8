package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvProvider reads secrets from environment variables.
//
// A secret name is upper-cased, hyphens become underscores and the prefix is
// prepended: "uvst-test-api-key" with prefix "PORTAL_SECRET_" is read from
// PORTAL_SECRET_UVST_TEST_API_KEY.
type EnvProvider struct {
	Prefix string
}

// NewEnvProvider creates an environment variable provider.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{Prefix: prefix}
}

// Lookup reads the variable for name. Empty values count as missing.
func (p *EnvProvider) Lookup(ctx context.Context, name string) (string, error) {
	key := p.variable(name)
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%w: %s (env var: %s)", ErrNotFound, name, key)
	}
	return value, nil
}

// Names returns the secret names of all prefixed variables.
func (p *EnvProvider) Names(ctx context.Context) ([]string, error) {
	var names []string
	for _, kv := range os.Environ() {
		key, _, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, p.Prefix) {
			continue
		}
		names = append(names, p.secretName(key))
	}
	return names, nil
}

// Name returns "env".
func (p *EnvProvider) Name() string {
	return "env"
}

func (p *EnvProvider) variable(name string) string {
	return p.Prefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

func (p *EnvProvider) secretName(key string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, p.Prefix), "_", "-"))
}
