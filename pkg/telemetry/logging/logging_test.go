package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"grundbuch-online/portal/pkg/config"
)

func newTestLogger(t *testing.T, format string) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "debug", Format: format}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return logger, &buf
}

func TestNew_InvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LoggingConfig
	}{
		{"bad level", config.LoggingConfig{Level: "verbose", Format: "json"}},
		{"bad format", config.LoggingConfig{Level: "info", Format: "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLogger_RedactsSensitiveKeys(t *testing.T) {
	logger, buf := newTestLogger(t, "json")

	logger.Info("authenticating",
		"username", "notar",
		"password", "5f4dcc3b5aa765d61d8327deb882cf99",
		"api_key", "abcd1234efgh",
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if rec["username"] != "notar" {
		t.Errorf("username should pass through, got %v", rec["username"])
	}
	if rec["password"] != "5f4d***" {
		t.Errorf("password not masked: %v", rec["password"])
	}
	if rec["api_key"] != "abcd***" {
		t.Errorf("api key not masked: %v", rec["api_key"])
	}
}

func TestLogger_RedactsValuePatterns(t *testing.T) {
	logger, buf := newTestLogger(t, "text")

	logger.Info("forwarding",
		"header", "Bearer eyJhbGciOiJIUzI1NiJ9.payload.sig",
		"customer", "maria.huber@example.at",
	)

	out := buf.String()
	if strings.Contains(out, "eyJhbGci") {
		t.Errorf("bearer token leaked: %s", out)
	}
	if strings.Contains(out, "maria.huber@") {
		t.Errorf("email leaked: %s", out)
	}
	if !strings.Contains(out, "m***@example.at") {
		t.Errorf("expected shortened email, got %s", out)
	}
}

func TestLogger_WithAttrsRedacted(t *testing.T) {
	logger, buf := newTestLogger(t, "json")

	logger.With("token", "tok_1234567890").Info("session")

	if strings.Contains(buf.String(), "tok_1234567890") {
		t.Errorf("token leaked through With: %s", buf.String())
	}
}

func TestLogger_ContextFields(t *testing.T) {
	logger, buf := newTestLogger(t, "json")

	ctx := WithRequestID(context.Background(), "req-42")
	ctx = WithEnvironment(ctx, "test")
	ctx = WithOrderNumber(ctx, "GB-20260101-ABC123")
	logger.InfoContext(ctx, "order created")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if rec["request_id"] != "req-42" || rec["environment"] != "test" || rec["order_number"] != "GB-20260101-ABC123" {
		t.Errorf("missing context fields: %v", rec)
	}
	if RequestID(ctx) != "req-42" {
		t.Errorf("RequestID() = %q", RequestID(ctx))
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level: %s", buf.String())
	}
	logger.Warn("kept")
	if buf.Len() == 0 {
		t.Error("warn should be logged")
	}
}

func TestRedactor_Strings(t *testing.T) {
	r := NewRedactor()
	tests := []struct {
		in   string
		want string
	}{
		{`{"password":"secret123"}`, `{"password":"***"}`},
		{"api_key=abc123", "api_key=***"},
		{"postgres://portal:pw@db:5432/portal", "postgres://***@db:5432/portal"},
		{"KG 01004 EZ 123", "KG 01004 EZ 123"},
	}
	for _, tt := range tests {
		if got := r.RedactString(tt.in); got != tt.want {
			t.Errorf("RedactString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMask(t *testing.T) {
	if Mask("") != "" || Mask("short") != "***" || Mask("longsecretvalue") != "long***" {
		t.Error("unexpected mask output")
	}
}
