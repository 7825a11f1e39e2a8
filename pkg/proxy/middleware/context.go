package middleware

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// RequestIDKey is the context key for the request ID.
	RequestIDKey contextKey = "request_id"

	// StartTimeKey is the context key for request start time.
	StartTimeKey contextKey = "start_time"
)
