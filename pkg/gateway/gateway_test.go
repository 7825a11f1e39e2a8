package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"grundbuch-online/portal/pkg/audit"
	"grundbuch-online/portal/pkg/config"
	"grundbuch-online/portal/pkg/security/secrets"
	"grundbuch-online/portal/pkg/uvst"
)

type staticCreds map[string]secrets.Credentials

func (s staticCreds) UVSTCredentials(ctx context.Context, env string) (secrets.Credentials, error) {
	c, ok := s[env]
	if !ok {
		return secrets.Credentials{}, secrets.ErrNotFound
	}
	return c, nil
}

type memRecorder struct {
	mu      sync.Mutex
	records []*audit.Record
}

func (m *memRecorder) Record(ctx context.Context, r *audit.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

type fixture struct {
	gw       *Gateway
	calls    *atomic.Int32
	recorder *memRecorder
}

func newFixture(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *fixture {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := uvst.New(config.UVSTConfig{
		Environments: map[string]config.EnvironmentConfig{
			uvst.EnvTest:       {BaseURL: srv.URL},
			uvst.EnvProduction: {BaseURL: srv.URL},
		},
		Timeout:      timeout,
		APIKeyHeader: "X-API-Key",
		Client:       config.ClientIdentity{OperatingSystem: "Linux", SoftwareName: "Grundbuch-Portal", SoftwareVersion: "1.0.0"},
	})

	rec := &memRecorder{}
	gw := New(client, staticCreds{
		uvst.EnvTest: {Username: "notar", Password: "secret", APIKey: "key"},
	}, WithRecorder(rec))

	return &fixture{gw: gw, calls: &calls, recorder: rec}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestGateway_Authenticate(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		var body uvst.AuthRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != uvst.HashPassword("secret") {
			t.Errorf("password not hashed: %q", body.Password)
		}
		_, _ = io.WriteString(w, `{"accessToken":"tok-1","expiresIn":3600,"tokenType":"Bearer"}`)
	}, time.Second)

	env := f.gw.Handle(context.Background(), Request{Action: ActionAuthenticate, Environment: "test"}, CallMeta{RequestID: "req-1"})
	if !env.Success || env.Status != 200 {
		t.Fatalf("unexpected envelope %+v", env)
	}
	tok, ok := env.Data.(*Token)
	if !ok || tok.AccessToken != "tok-1" || tok.ExpiresIn != 3600 {
		t.Errorf("unexpected data %#v", env.Data)
	}

	if len(f.recorder.records) != 1 {
		t.Fatalf("expected one audit record, got %d", len(f.recorder.records))
	}
	rec := f.recorder.records[0]
	if rec.Action != ActionAuthenticate || !rec.Success || rec.RequestID != "req-1" || rec.Outcome != "ok" {
		t.Errorf("unexpected audit record %+v", rec)
	}
}

func TestGateway_CancelledCallNotAudited(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 5*time.Second)
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	env := f.gw.Handle(ctx, Request{Action: ActionAuthenticate, Environment: "test"}, CallMeta{RequestID: "req-2"})
	if env.Success || env.Kind != KindCancelled || env.Status != StatusClientClosed {
		t.Fatalf("expected cancelled envelope, got %+v", env)
	}

	f.recorder.mu.Lock()
	defer f.recorder.mu.Unlock()
	if len(f.recorder.records) != 0 {
		t.Errorf("cancelled call wrote %d audit records", len(f.recorder.records))
	}
}

func TestGateway_MissingCredentials(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {}, time.Second)

	res := f.gw.Authenticate(context.Background(), "production")
	if res.Failure == nil || res.Failure.Kind != KindConfig {
		t.Fatalf("expected configuration failure, got %+v", res)
	}
	if f.calls.Load() != 0 {
		t.Error("no upstream call expected")
	}
}

func TestGateway_TokenRequired(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called")
	}, time.Second)

	tests := []struct {
		name string
		req  Request
	}{
		{"document", Request{Action: ActionQueryDocument, Environment: "test", Data: mustJSON(t, map[string]any{"kg": "01004", "ez": "1"})}},
		{"deed", Request{Action: ActionQueryDeed, Environment: "test", Data: mustJSON(t, map[string]any{"kg": "01004", "documentNumber": "1", "year": "2020"})}},
		{"no data", Request{Action: ActionQueryDocument, Environment: "test"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := f.gw.Handle(context.Background(), tt.req, CallMeta{})
			if env.Success || env.Kind != KindTokenRequired || env.Status != http.StatusUnauthorized {
				t.Errorf("unexpected envelope %+v", env)
			}
			if env.HTTPStatus() != http.StatusOK {
				t.Errorf("HTTPStatus() = %d, want 200", env.HTTPStatus())
			}
			data := env.Data.(map[string]string)
			if data["error"] != string(KindTokenRequired) {
				t.Errorf("data = %v", data)
			}
		})
	}
	if f.calls.Load() != 0 {
		t.Errorf("upstream called %d times", f.calls.Load())
	}
}

func TestGateway_QueryDocument(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" || r.Header.Get("X-API-Key") != "key" {
			t.Errorf("missing auth headers: %v", r.Header)
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF"))
	}, time.Second)

	env := f.gw.Handle(context.Background(), Request{
		Action:      ActionQueryDocument,
		Environment: "test",
		Data:        mustJSON(t, map[string]any{"token": "tok", "kg": "01004", "ez": "123", "format": "pdf"}),
	}, CallMeta{})

	if !env.Success || env.Status != 200 {
		t.Fatalf("unexpected envelope %+v", env)
	}
	payload := env.Data.(map[string]string)
	if payload["encoding"] != "base64" || payload["content"] != "JVBERg==" {
		t.Errorf("unexpected payload %v", payload)
	}
}

func TestGateway_UpstreamPassthrough(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind FailureKind
		wantData any
	}{
		{"json body", http.StatusNotFound, `{"fehler":"EZ nicht gefunden"}`, KindUpstream, json.RawMessage(`{"fehler":"EZ nicht gefunden"}`)},
		{"text body", http.StatusInternalServerError, "kaputt", KindUpstream, "kaputt"},
		{"unauthorized", http.StatusUnauthorized, `{"message":"token expired"}`, KindAuth, json.RawMessage(`{"message":"token expired"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}, time.Second)

			env := f.gw.Handle(context.Background(), Request{
				Action:      ActionQueryDeed,
				Environment: "test",
				Data:        mustJSON(t, map[string]any{"token": "tok", "kg": "01004", "documentNumber": "77", "year": "2021"}),
			}, CallMeta{})

			if env.Success || env.Status != tt.status || env.Kind != tt.wantKind {
				t.Fatalf("unexpected envelope %+v", env)
			}
			got, _ := json.Marshal(env.Data)
			want, _ := json.Marshal(tt.wantData)
			if string(got) != string(want) {
				t.Errorf("data = %s, want %s", got, want)
			}
		})
	}
}

func TestGateway_Timeout(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 30*time.Millisecond)
	defer close(release)

	res := f.gw.QueryDocument(context.Background(), "test", "tok", uvst.DocumentQuery{KG: "01004", EZ: "1"})
	if res.Failure == nil || res.Failure.Kind != KindTimeout || res.Failure.Status != http.StatusGatewayTimeout {
		t.Fatalf("unexpected result %+v", res.Failure)
	}
	if res.Failure.Message != TimeoutMessage {
		t.Errorf("message = %q", res.Failure.Message)
	}
}

func TestGateway_Validation(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {}, time.Second)

	res := f.gw.QueryDocument(context.Background(), "test", "tok", uvst.DocumentQuery{KG: "12", EZ: "1"})
	if res.Failure == nil || res.Failure.Kind != KindValidation {
		t.Fatalf("expected validation failure, got %+v", res)
	}
	if f.calls.Load() != 0 {
		t.Error("no upstream call expected")
	}
}

func TestGateway_BadRequests(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {}, time.Second)

	tests := []struct {
		name string
		req  Request
	}{
		{"unknown action", Request{Action: "delete-everything", Environment: "test"}},
		{"unknown environment", Request{Action: ActionAuthenticate, Environment: "staging"}},
		{"malformed data", Request{Action: ActionQueryDeed, Environment: "test", Data: json.RawMessage(`[1,2]`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := f.gw.Handle(context.Background(), tt.req, CallMeta{})
			if env.Success || env.Kind != KindBadRequest || env.HTTPStatus() != http.StatusBadRequest {
				t.Errorf("unexpected envelope %+v", env)
			}
		})
	}
}

func TestFailureFromError(t *testing.T) {
	tests := []struct {
		err    error
		kind   FailureKind
		status int
	}{
		{context.Canceled, KindCancelled, StatusClientClosed},
		{&uvst.UpstreamError{Environment: "test", Cause: errors.New("connection refused")}, KindUnreachable, http.StatusBadGateway},
		{&uvst.ParseError{Environment: "test"}, KindParse, http.StatusBadGateway},
		{&uvst.ConfigError{Field: "x"}, KindConfig, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		f := failureFromError(tt.err)
		if f.Kind != tt.kind || f.Status != tt.status {
			t.Errorf("failureFromError(%T) = %s/%d, want %s/%d", tt.err, f.Kind, f.Status, tt.kind, tt.status)
		}
	}
}

func TestEnvelope_JSON(t *testing.T) {
	env := failureEnvelope(&Failure{Kind: KindTimeout, Status: 504, Message: TimeoutMessage}, 1234*time.Millisecond)
	b, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"success":false,"status":504,"data":{"error":"timeout","message":"upstream not responding, please retry"},"duration":1234}`
	if string(b) != want {
		t.Errorf("json = %s\nwant   %s", b, want)
	}
}
