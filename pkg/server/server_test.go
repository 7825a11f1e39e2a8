package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"grundbuch-online/portal/pkg/address"
	"grundbuch-online/portal/pkg/config"
	"grundbuch-online/portal/pkg/gateway"
	"grundbuch-online/portal/pkg/orders"
	"grundbuch-online/portal/pkg/orders/store"
	"grundbuch-online/portal/pkg/security/secrets"
	"grundbuch-online/portal/pkg/telemetry/metrics"
)

const testAdminKey = "s3cret-admin"

const validDraft = `{
	"contact": {"name": "Maria Huber", "email": "maria.huber@example.at"},
	"property": {"kg": "01004", "ez": "123", "address": {"street": "Hauptstraße", "houseNumber": "5", "city": "Wien"}},
	"products": {"current": true}
}`

type staticRelay struct{}

func (staticRelay) Handle(ctx context.Context, req gateway.Request, meta gateway.CallMeta) gateway.Envelope {
	return gateway.Envelope{Success: true, Status: http.StatusOK, Data: map[string]string{"action": req.Action}}
}

type adminKeys map[string]string

func (k adminKeys) Lookup(ctx context.Context, name string) (string, error) {
	if v, ok := k[name]; ok {
		return v, nil
	}
	return "", secrets.ErrNotFound
}

func testConfig() *config.ServerConfig {
	cfg := config.Default().Server
	cfg.ListenAddress = "127.0.0.1:0"
	cfg.ShutdownTimeout = time.Second
	return &cfg
}

func newTestServer(t *testing.T, cfg *config.ServerConfig, collector *metrics.Collector) http.Handler {
	t.Helper()
	svc := orders.NewService(store.NewMemoryStore())
	srv := NewServer(cfg, Deps{
		Gateway:     staticRelay{},
		Resolver:    address.NewNormalizer(nil, collector),
		Orders:      svc,
		AdminKeys:   adminKeys{secrets.AdminAPIKey: testAdminKey},
		Metrics:     collector,
		MetricsPath: "/metrics",
	})
	return srv.Handler()
}

func request(h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_Routes(t *testing.T) {
	h := newTestServer(t, testConfig(), nil)
	bearer := map[string]string{"Authorization": "Bearer " + testAdminKey}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		header map[string]string
		want   int
	}{
		{"gateway", http.MethodPost, "/api/uvst-proxy", `{"action":"authenticate","environment":"test"}`, nil, http.StatusOK},
		{"gateway wrong method", http.MethodGet, "/api/uvst-proxy", "", nil, http.StatusMethodNotAllowed},
		{"address", http.MethodPost, "/api/address/normalize", `{"street":"hauptstraße","city":"Wien"}`, nil, http.StatusOK},
		{"order create", http.MethodPost, "/api/orders", validDraft, nil, http.StatusCreated},
		{"order list without key", http.MethodGet, "/api/orders", "", nil, http.StatusUnauthorized},
		{"order list wrong key", http.MethodGet, "/api/orders", "", map[string]string{"X-Admin-Key": "nope"}, http.StatusUnauthorized},
		{"order list", http.MethodGet, "/api/orders", "", bearer, http.StatusOK},
		{"order get unknown", http.MethodGet, "/api/orders/missing", "", bearer, http.StatusNotFound},
		{"health", http.MethodGet, "/health", "", nil, http.StatusOK},
		{"ready", http.MethodGet, "/ready", "", nil, http.StatusOK},
		{"version", http.MethodGet, "/version", "", nil, http.StatusOK},
		{"unknown route", http.MethodGet, "/nope", "", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(h, tt.method, tt.path, tt.body, tt.header)
			if w.Code != tt.want {
				t.Errorf("%s %s = %d, want %d (body %s)", tt.method, tt.path, w.Code, tt.want, w.Body.String())
			}
			if w.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID header")
			}
		})
	}
}

func TestServer_AdminWithoutKeySource(t *testing.T) {
	srv := NewServer(testConfig(), Deps{
		Gateway:  staticRelay{},
		Resolver: address.NewNormalizer(nil, nil),
		Orders:   orders.NewService(store.NewMemoryStore()),
	})

	w := request(srv.Handler(), http.MethodGet, "/api/orders", "", map[string]string{"X-Admin-Key": "anything"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestServer_OrderLifecycle(t *testing.T) {
	h := newTestServer(t, testConfig(), nil)
	admin := map[string]string{"X-Admin-Key": testAdminKey}

	w := request(h, http.MethodPost, "/api/orders", validDraft, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		ID          string `json:"id"`
		OrderNumber string `json:"order_number"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = request(h, http.MethodPatch, "/api/orders/"+created.OrderNumber, `{"status":"completed"}`, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("patch = %d: %s", w.Code, w.Body.String())
	}

	w = request(h, http.MethodGet, "/api/orders/"+created.ID, "", admin)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d: %s", w.Code, w.Body.String())
	}
	var got orders.Order
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != orders.StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
}

func TestServer_RateLimitPublicRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Burst = 2
	cfg.RateLimit.RequestsPerMinute = 1
	h := newTestServer(t, cfg, nil)

	body := `{"street":"Hauptstraße","city":"Graz"}`
	for i := 0; i < 2; i++ {
		if w := request(h, http.MethodPost, "/api/address/normalize", body, nil); w.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, w.Code)
		}
	}
	w := request(h, http.MethodPost, "/api/address/normalize", body, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	// The gateway route is not limited.
	for i := 0; i < 5; i++ {
		if w := request(h, http.MethodPost, "/api/uvst-proxy", `{"action":"authenticate","environment":"test"}`, nil); w.Code != http.StatusOK {
			t.Fatalf("gateway request %d = %d", i, w.Code)
		}
	}
}

func TestServer_RateLimitDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Enabled = false
	cfg.RateLimit.Burst = 1
	h := newTestServer(t, cfg, nil)

	for i := 0; i < 5; i++ {
		w := request(h, http.MethodPost, "/api/address/normalize", `{"street":"Ring","city":"Linz"}`, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, w.Code)
		}
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	collector := metrics.NewCollector(config.MetricsConfig{Enabled: true, Namespace: "portal"}, prometheus.NewRegistry())
	h := newTestServer(t, testConfig(), collector)

	request(h, http.MethodPost, "/api/uvst-proxy", `{"action":"authenticate","environment":"test"}`, nil)

	w := request(h, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `portal_http_requests_total{code="2xx",route="gateway"} 1`) {
		t.Errorf("gateway request not counted:\n%s", w.Body.String())
	}
}

func TestServer_StartShutdown(t *testing.T) {
	srv := NewServer(testConfig(), Deps{
		Gateway:  staticRelay{},
		Resolver: address.NewNormalizer(nil, nil),
		Orders:   orders.NewService(store.NewMemoryStore()),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Addr() == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.Addr() == nil {
		t.Fatal("server did not start listening")
	}

	resp, err := http.Get("http://" + srv.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
	if srv.IsRunning() {
		t.Error("server still reports running")
	}
}
