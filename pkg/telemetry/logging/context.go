package logging

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	requestIDKey   contextKey = "request_id"
	environmentKey contextKey = "environment"
	orderKey       contextKey = "order_number"
)

// WithRequestID stores the request ID in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request ID stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithEnvironment stores the upstream environment ("test" or "production").
func WithEnvironment(ctx context.Context, env string) context.Context {
	return context.WithValue(ctx, environmentKey, env)
}

// WithOrderNumber stores the order number being processed.
func WithOrderNumber(ctx context.Context, number string) context.Context {
	return context.WithValue(ctx, orderKey, number)
}

// contextAttrs returns the request-scoped fields present in ctx.
func contextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var attrs []slog.Attr
	for _, key := range []contextKey{requestIDKey, environmentKey, orderKey} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}
	return attrs
}
