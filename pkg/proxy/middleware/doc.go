// Package middleware provides the HTTP middleware of the portal API.
//
// # Middleware Chain
//
// The server wraps the whole mux as
//
//	handler = RequestID(Recovery(Logging(CORS(mux))))
//
// and each route individually with Metrics, and the public write routes
// with Limits:
//
//	mux.Handle("POST /api/orders", Metrics(c, "orders.create")(Limits(m, opts)(create)))
//
// # Request ID
//
// RequestIDMiddleware accepts a printable X-Request-ID of up to 128 bytes
// or generates a UUID v4. The ID is stored in the context for handlers and
// for the log handler, and echoed in the response.
//
// # Logging
//
// LoggingMiddleware writes one structured line per request:
//
//	{
//	  "level": "INFO",
//	  "msg": "request completed",
//	  "method": "POST",
//	  "path": "/api/uvst-proxy",
//	  "status": 200,
//	  "latency_ms": 412,
//	  "request_id": "550e8400-e29b-41d4-a716-446655440000"
//	}
//
// Query strings are never logged.
//
// # Rate Limits
//
// LimitsMiddleware keys clients by remote address (or X-Forwarded-For when
// configured) and answers 429 with Retry-After once a client's bucket is
// empty.
//
// # Recovery
//
// RecoveryMiddleware turns panics into a generic 500 error body and logs
// the stack. http.ErrAbortHandler is re-raised so the server can abort the
// connection.
package middleware
