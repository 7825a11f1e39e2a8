package middleware

import (
	"net/http"
	"time"

	"grundbuch-online/portal/pkg/telemetry/metrics"
)

// MetricsMiddleware counts requests and observes latency under route, a
// fixed label such as "orders.list". Using the route name rather than the
// path keeps order ids out of the label set.
func MetricsMiddleware(collector *metrics.Collector, route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if collector == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)
			collector.RecordHTTP(route, rw.statusCode, time.Since(start))
		})
	}
}
