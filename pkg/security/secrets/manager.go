package secrets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"grundbuch-online/portal/pkg/config"
)

// Well-known secret names.
const (
	AdminAPIKey       = "admin-api-key"
	WebhookSigningKey = "webhook-signing-key"
)

// UVSTSecretName returns the secret name for one field of an environment's
// upstream credentials, e.g. UVSTSecretName("test", "api-key").
func UVSTSecretName(environment, field string) string {
	return "uvst-" + environment + "-" + field
}

// Credentials are the upstream credentials for one environment.
type Credentials struct {
	Username string
	Password string
	APIKey   string
}

// Manager resolves secrets from an ordered list of providers. The first
// provider that has a value wins, and hits are cached.
type Manager struct {
	providers []Provider
	cache     *Cache
	logger    *slog.Logger
}

// NewManager creates a manager over providers.
func NewManager(providers []Provider, cache *Cache) *Manager {
	if cache == nil {
		cache = NewCache(0)
	}
	return &Manager{
		providers: providers,
		cache:     cache,
		logger:    slog.Default().With("component", "secrets"),
	}
}

// New builds the manager described by cfg: a file provider when a directory
// is configured, followed by the environment provider.
func New(cfg config.SecretsConfig) (*Manager, error) {
	var providers []Provider
	if cfg.Directory != "" {
		fp, err := NewFileProvider(cfg.Directory, cfg.Watch)
		if err != nil {
			return nil, err
		}
		providers = append(providers, fp)
	}
	providers = append(providers, NewEnvProvider(cfg.EnvPrefix))
	return NewManager(providers, NewCache(cfg.CacheTTL)), nil
}

// Lookup returns the secret stored under name.
func (m *Manager) Lookup(ctx context.Context, name string) (string, error) {
	if value, ok := m.cache.Get(name); ok {
		return value, nil
	}

	var lastErr error
	for _, p := range m.providers {
		value, err := p.Lookup(ctx, name)
		if err != nil {
			lastErr = err
			if !errors.Is(err, ErrNotFound) {
				m.logger.Warn("secret provider failed",
					"provider", p.Name(),
					"name", redact(name),
					"error", err,
				)
			}
			continue
		}
		m.cache.Set(name, value)
		m.logger.Debug("secret resolved", "provider", p.Name(), "name", redact(name))
		return value, nil
	}

	if lastErr != nil {
		return "", fmt.Errorf("failed to get secret %q: %w", name, lastErr)
	}
	return "", fmt.Errorf("%w: %q (no providers configured)", ErrNotFound, name)
}

// UVSTCredentials resolves username, password and API key for environment.
// Missing fields are reported together.
func (m *Manager) UVSTCredentials(ctx context.Context, environment string) (Credentials, error) {
	var (
		creds   Credentials
		missing []string
	)
	fields := []struct {
		name string
		dst  *string
	}{
		{"username", &creds.Username},
		{"password", &creds.Password},
		{"api-key", &creds.APIKey},
	}
	for _, f := range fields {
		value, err := m.Lookup(ctx, UVSTSecretName(environment, f.name))
		if err != nil {
			missing = append(missing, UVSTSecretName(environment, f.name))
			continue
		}
		*f.dst = value
	}
	if len(missing) > 0 {
		return Credentials{}, fmt.Errorf("%w: %s", ErrNotFound, strings.Join(missing, ", "))
	}
	return creds, nil
}

// Refresh refreshes every refreshable provider and clears the cache.
func (m *Manager) Refresh(ctx context.Context) error {
	var errs []error
	for _, p := range m.providers {
		if r, ok := p.(Refreshable); ok {
			if err := r.Refresh(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			}
		}
	}
	m.cache.Clear()
	return errors.Join(errs...)
}

// Names returns the union of all provider secret names.
func (m *Manager) Names(ctx context.Context) []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range m.providers {
		list, err := p.Names(ctx)
		if err != nil {
			m.logger.Warn("failed to list secrets", "provider", p.Name(), "error", err)
			continue
		}
		for _, n := range list {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names
}

// Close releases provider resources such as file watchers.
func (m *Manager) Close() error {
	var errs []error
	for _, p := range m.providers {
		if c, ok := p.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

func redact(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}
