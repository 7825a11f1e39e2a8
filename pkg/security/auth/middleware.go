package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// APIKeySource defines where to extract API keys from
type APIKeySource struct {
	Type   string // header, query
	Name   string // Header name or query param
	Scheme string // "Bearer", etc. (optional)
}

// DefaultSources accepts a bearer token or the X-Admin-Key header.
var DefaultSources = []APIKeySource{
	{Type: "header", Name: "Authorization", Scheme: "Bearer"},
	{Type: "header", Name: "X-Admin-Key"},
}

// APIKeyMiddleware is HTTP middleware for API key authentication
type APIKeyMiddleware struct {
	validator Validator
	sources   []APIKeySource
}

// NewAPIKeyMiddleware creates a new API key authentication middleware
func NewAPIKeyMiddleware(validator Validator, sources []APIKeySource) *APIKeyMiddleware {
	if len(sources) == 0 {
		sources = DefaultSources
	}
	return &APIKeyMiddleware{
		validator: validator,
		sources:   sources,
	}
}

// Handle wraps an HTTP handler with API key authentication
func (m *APIKeyMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, source := m.extractAPIKey(r)

		principal, err := m.validator.Validate(r.Context(), key)
		switch {
		case err == nil:
		case errors.Is(err, ErrNotConfigured):
			slog.ErrorContext(r.Context(), "admin request rejected, no admin key configured", "path", r.URL.Path)
			writeError(w, http.StatusServiceUnavailable, "admin API is not configured")
			return
		case errors.Is(err, ErrInvalidKey):
			slog.WarnContext(r.Context(), "invalid API key",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
				"key_present", key != "",
			)
			writeError(w, http.StatusUnauthorized, "missing or invalid API key")
			return
		default:
			slog.ErrorContext(r.Context(), "API key validation failed", "error", err)
			writeError(w, http.StatusInternalServerError, "authentication unavailable")
			return
		}

		principal.Source = source
		ctx := context.WithValue(r.Context(), principalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractAPIKey extracts the API key from the request using configured sources
func (m *APIKeyMiddleware) extractAPIKey(r *http.Request) (string, string) {
	for _, source := range m.sources {
		switch source.Type {
		case "header":
			value := r.Header.Get(source.Name)
			if value == "" {
				continue
			}
			if source.Scheme != "" {
				prefix := source.Scheme + " "
				if len(value) > len(prefix) && strings.EqualFold(value[:len(prefix)], prefix) {
					return strings.TrimSpace(value[len(prefix):]), "header:" + source.Name
				}
				continue
			}
			return value, "header:" + source.Name

		case "query":
			if value := r.URL.Query().Get(source.Name); value != "" {
				return value, "query:" + source.Name
			}
		}
	}
	return "", ""
}

func writeError(w http.ResponseWriter, status int, message string) {
	errType := "authentication_error"
	if status >= 500 {
		errType = "service_unavailable"
	}
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="portal-admin"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"message": message, "type": errType},
	})
}

// Context key for the authenticated principal
type contextKey string

// #nosec G101 - This is a context key constant, not a credential
const principalKey contextKey = "admin_principal"

// GetPrincipal retrieves the authenticated caller from the request context.
func GetPrincipal(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}
