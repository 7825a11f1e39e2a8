package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"grundbuch-online/portal/pkg/limits"
	"grundbuch-online/portal/pkg/proxy"
	"grundbuch-online/portal/pkg/proxy/types"
	"grundbuch-online/portal/pkg/telemetry/metrics"
)

// LimitsOptions configures LimitsMiddleware.
type LimitsOptions struct {
	// Route labels the rejection metric.
	Route string

	// Metrics counts rejections. May be nil.
	Metrics *metrics.Collector

	// TrustForwardedFor keys clients by X-Forwarded-For.
	TrustForwardedFor bool
}

// LimitsMiddleware throttles requests per client address.
//
// It sets X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset on
// every response and answers 429 with Retry-After when the client is over
// its limit.
//
// Example:
//
//	manager := limits.NewManager(cfg.Server.RateLimit)
//	handler := LimitsMiddleware(manager, LimitsOptions{Route: "orders.create"})(next)
func LimitsMiddleware(manager *limits.Manager, opts LimitsOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if manager == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ClientAddress(r, opts.TrustForwardedFor)
			result := manager.Check(key)

			setLimitHeaders(w, result)

			if !result.Allowed {
				opts.Metrics.RecordRateLimited(opts.Route)
				slog.WarnContext(r.Context(), "rate limit exceeded",
					"route", opts.Route,
					"client", key,
					"retry_after_ms", result.RetryAfter.Milliseconds(),
				)
				handleLimitViolation(w, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientAddress returns the host part of the client's address. With
// trustForwarded set, the first X-Forwarded-For entry wins.
func ClientAddress(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// setLimitHeaders sets rate limit headers on the response.
func setLimitHeaders(w http.ResponseWriter, result limits.CheckResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.Reset.Unix(), 10))

	if result.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(result)))
	}
}

// retrySeconds rounds up to whole seconds so clients never retry early.
// Sub-millisecond float noise from the limiter does not add a second.
func retrySeconds(result limits.CheckResult) int {
	return int((result.RetryAfter + time.Second - time.Millisecond) / time.Second)
}

// handleLimitViolation writes the 429 body.
func handleLimitViolation(w http.ResponseWriter, result limits.CheckResult) {
	_ = proxy.WriteJSONResponse(w, http.StatusTooManyRequests, types.NewErrorResponse(
		fmt.Sprintf("too many requests, please retry in %ds", retrySeconds(result)),
		types.ErrorTypeRateLimited,
		"",
		"",
	))
}
