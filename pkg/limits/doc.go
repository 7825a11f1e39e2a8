// Package limits throttles the portal's public endpoints per client.
//
// Order submission and address normalization need no credentials, so each
// client address gets its own token bucket (golang.org/x/time/rate). A
// client over its bucket is told how long to wait; nothing is queued.
//
// # Usage
//
//	manager := limits.NewManager(cfg.Server.RateLimit)
//	result := manager.Check(clientIP)
//	if !result.Allowed {
//	    // 429 with Retry-After: result.RetryAfter
//	}
//
// State for clients that have been idle longer than the configured TTL is
// dropped on the next check, so memory stays proportional to the number of
// recently active clients.
package limits
