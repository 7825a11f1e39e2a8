package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestChecker_Readiness(t *testing.T) {
	tests := []struct {
		name     string
		checks   map[string]CheckFunc
		want     string
		wantCode int
	}{
		{
			name:     "no checks",
			checks:   nil,
			want:     "ready",
			wantCode: http.StatusOK,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"orders": func(context.Context) error { return nil },
				"audit":  func(context.Context) error { return nil },
			},
			want:     "ready",
			wantCode: http.StatusOK,
		},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"orders":   func(context.Context) error { return nil },
				"dispatch": func(context.Context) error { return errors.New("database is locked") },
			},
			want:     "degraded",
			wantCode: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(time.Second)
			for n, fn := range tt.checks {
				c.Register(n, fn)
			}

			rec := httptest.NewRecorder()
			c.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantCode)
			}
			var st Status
			if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
				t.Fatal(err)
			}
			if st.Status != tt.want {
				t.Errorf("status = %q, want %q", st.Status, tt.want)
			}
			if len(st.Checks) != len(tt.checks) {
				t.Errorf("expected %d check results, got %d", len(tt.checks), len(st.Checks))
			}
		})
	}
}

func TestChecker_Timeout(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	})

	st := c.Readiness(context.Background())
	if st.Checks["slow"].Status != "unhealthy" {
		t.Errorf("expected timed-out check to be unhealthy, got %+v", st.Checks["slow"])
	}
}

func TestLivenessAndVersion(t *testing.T) {
	c := New(0)

	rec := httptest.NewRecorder()
	c.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("liveness code = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	VersionHandler("1.2.3", "abc", "now").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	var info VersionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.Version != "1.2.3" || info.GoVersion == "" {
		t.Errorf("unexpected version info: %+v", info)
	}

	rec = httptest.NewRecorder()
	c.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/health", nil))
	if rec.Body.Len() != 0 {
		t.Error("HEAD should not write a body")
	}
}

func TestChecker_Names(t *testing.T) {
	c := New(0)
	c.Register("orders", func(context.Context) error { return nil })
	c.Register("audit", func(context.Context) error { return nil })
	names := c.Names()
	if len(names) != 2 || names[0] != "audit" {
		t.Errorf("unexpected names %v", names)
	}
}
