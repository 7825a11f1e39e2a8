package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"grundbuch-online/portal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	c := NewCollector(config.MetricsConfig{Enabled: true, Namespace: "test"}, prometheus.NewRegistry())
	if c == nil {
		t.Fatal("expected collector")
	}
	return c
}

func TestNewCollector_Disabled(t *testing.T) {
	c := NewCollector(config.MetricsConfig{Enabled: false}, nil)
	if c != nil {
		t.Fatal("expected nil collector when disabled")
	}

	// nil collector must be safe to use
	c.RecordHTTP("/x", 200, time.Millisecond)
	c.RecordGatewayCall("authenticate", "test", "ok", time.Second)
	c.RecordOrderCreated()
	c.RecordAuditPruned(3)
	c.RecordRateLimited("orders.create")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 from nil collector handler, got %d", rec.Code)
	}
}

func TestCollector_GatewayCalls(t *testing.T) {
	c := newTestCollector(t)

	c.RecordGatewayCall("query-deed", "test", "ok", 200*time.Millisecond)
	c.RecordGatewayCall("query-deed", "test", "ok", 300*time.Millisecond)
	c.RecordGatewayCall("query-deed", "test", "timeout", 30*time.Second)

	if got := testutil.ToFloat64(c.gatewayCalls.WithLabelValues("query-deed", "test", "ok")); got != 2 {
		t.Errorf("ok calls = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.gatewayCalls.WithLabelValues("query-deed", "test", "timeout")); got != 1 {
		t.Errorf("timeout calls = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(c.gatewayDuration); n != 1 {
		t.Errorf("expected one duration series, got %d", n)
	}
}

func TestCollector_HTTPStatusBuckets(t *testing.T) {
	c := newTestCollector(t)

	tests := []struct {
		code  int
		label string
	}{
		{200, "2xx"}, {201, "2xx"}, {302, "3xx"}, {404, "4xx"}, {504, "5xx"},
	}
	for _, tt := range tests {
		c.RecordHTTP("/api/uvst-proxy", tt.code, time.Millisecond)
	}

	if got := testutil.ToFloat64(c.httpRequests.WithLabelValues("/api/uvst-proxy", "2xx")); got != 2 {
		t.Errorf("2xx = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.httpRequests.WithLabelValues("/api/uvst-proxy", "5xx")); got != 1 {
		t.Errorf("5xx = %v, want 1", got)
	}
}

func TestCollector_DomainCounters(t *testing.T) {
	c := newTestCollector(t)

	c.RecordGeocode("street")
	c.RecordGeocode("fallback")
	c.RecordOrderCreated()
	c.RecordOrderStatus("completed")
	c.RecordDispatch("email", "delivered")
	c.RecordAuditDropped()
	c.RecordAuditPruned(5)
	c.RecordAuditPruned(0)

	if got := testutil.ToFloat64(c.ordersCreated); got != 1 {
		t.Errorf("orders created = %v", got)
	}
	if got := testutil.ToFloat64(c.auditPruned); got != 5 {
		t.Errorf("audit pruned = %v, want 5", got)
	}
	if got := testutil.ToFloat64(c.dispatchTasks.WithLabelValues("email", "delivered")); got != 1 {
		t.Errorf("dispatch delivered = %v", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := newTestCollector(t)
	c.RecordOrderCreated()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_orders_created_total 1") {
		t.Errorf("expected orders counter in output:\n%s", rec.Body.String())
	}
}
