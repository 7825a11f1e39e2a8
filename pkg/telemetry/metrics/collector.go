package metrics

import (
	"time"

	"grundbuch-online/portal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the portal's Prometheus metrics. A nil *Collector is valid
// and records nothing, so components can take one unconditionally.
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	gatewayCalls    *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec

	geocoderLookups *prometheus.CounterVec

	ordersCreated prometheus.Counter
	ordersUpdated *prometheus.CounterVec
	dispatchTasks *prometheus.CounterVec
	auditDropped  prometheus.Counter
	auditPruned   prometheus.Counter
	rateLimited   *prometheus.CounterVec
}

// NewCollector registers every portal metric with registry, or with a fresh
// registry when nil. It returns nil when metrics are disabled.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if !cfg.Enabled {
		return nil
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	ns := cfg.Namespace

	c := &Collector{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"route"}),
		gatewayCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "gateway", Name: "calls_total",
			Help: "Upstream calls made by the proxy gateway, by action, environment and outcome.",
		}, []string{"action", "environment", "outcome"}),
		gatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: "gateway", Name: "call_duration_seconds",
			Help:    "Upstream call latency.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"action", "environment"}),
		geocoderLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "geocoder", Name: "lookups_total",
			Help: "Address lookups, by result (street, locality, fallback, error).",
		}, []string{"result"}),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "orders", Name: "created_total",
			Help: "Orders created.",
		}),
		ordersUpdated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "orders", Name: "status_changes_total",
			Help: "Order status transitions, by new status.",
		}, []string{"status"}),
		dispatchTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "dispatch", Name: "tasks_total",
			Help: "Downstream task delivery attempts, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		auditDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "audit", Name: "dropped_total",
			Help: "Audit records dropped because the recorder buffer was full.",
		}),
		auditPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "audit", Name: "pruned_total",
			Help: "Audit records deleted by retention.",
		}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "http", Name: "rate_limited_total",
			Help: "Requests rejected by the per-client rate limit, by route.",
		}, []string{"route"}),
	}

	registry.MustRegister(
		c.httpRequests, c.httpDuration,
		c.gatewayCalls, c.gatewayDuration,
		c.geocoderLookups,
		c.ordersCreated, c.ordersUpdated,
		c.dispatchTasks,
		c.auditDropped, c.auditPruned,
		c.rateLimited,
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordHTTP records one served request.
func (c *Collector) RecordHTTP(route string, code int, d time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(route, statusLabel(code)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RecordGatewayCall records one upstream call. outcome is "ok" or a failure kind.
func (c *Collector) RecordGatewayCall(action, environment, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.gatewayCalls.WithLabelValues(action, environment, outcome).Inc()
	c.gatewayDuration.WithLabelValues(action, environment).Observe(d.Seconds())
}

// RecordGeocode records one address lookup result.
func (c *Collector) RecordGeocode(result string) {
	if c == nil {
		return
	}
	c.geocoderLookups.WithLabelValues(result).Inc()
}

// RecordOrderCreated counts a new order.
func (c *Collector) RecordOrderCreated() {
	if c == nil {
		return
	}
	c.ordersCreated.Inc()
}

// RecordOrderStatus counts a status transition.
func (c *Collector) RecordOrderStatus(status string) {
	if c == nil {
		return
	}
	c.ordersUpdated.WithLabelValues(status).Inc()
}

// RecordDispatch records one delivery attempt. outcome is "delivered",
// "retry" or "failed".
func (c *Collector) RecordDispatch(kind, outcome string) {
	if c == nil {
		return
	}
	c.dispatchTasks.WithLabelValues(kind, outcome).Inc()
}

// RecordAuditDropped counts a dropped audit record.
func (c *Collector) RecordAuditDropped() {
	if c == nil {
		return
	}
	c.auditDropped.Inc()
}

// RecordAuditPruned counts records removed by retention.
func (c *Collector) RecordAuditPruned(n int64) {
	if c == nil || n <= 0 {
		return
	}
	c.auditPruned.Add(float64(n))
}

// RecordRateLimited records one request rejected with 429.
func (c *Collector) RecordRateLimited(route string) {
	if c == nil {
		return
	}
	c.rateLimited.WithLabelValues(route).Inc()
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
