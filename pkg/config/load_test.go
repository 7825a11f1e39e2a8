package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portal.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "0.0.0.0:8080"
  read_timeout: "60s"

uvst:
  environments:
    test:
      base_url: "https://uvst-test.example.at"
  timeout: "20s"

orders:
  backend: "memory"

dispatch:
  webhooks:
    - kind: email
      url: "https://hooks.example.at/email"

telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:8080" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:8080", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout %v, got %v", 60*time.Second, cfg.Server.ReadTimeout)
	}
	if got := cfg.UVST.Environments["test"].BaseURL; got != "https://uvst-test.example.at" {
		t.Errorf("expected test base URL, got %q", got)
	}
	if cfg.UVST.Timeout != 20*time.Second {
		t.Errorf("expected uvst timeout 20s, got %v", cfg.UVST.Timeout)
	}
	if len(cfg.Dispatch.Webhooks) != 1 || cfg.Dispatch.Webhooks[0].Kind != "email" {
		t.Errorf("expected one email webhook, got %+v", cfg.Dispatch.Webhooks)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfig_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, `
orders:
  backend: "memory"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("expected default listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.UVST.Timeout != DefaultUVSTTimeout {
		t.Errorf("expected default uvst timeout, got %v", cfg.UVST.Timeout)
	}
	if cfg.Client.LogCapacity != 50 {
		t.Errorf("expected log capacity 50, got %d", cfg.Client.LogCapacity)
	}
	if !cfg.Geocoder.Enabled {
		t.Error("expected geocoder enabled by default")
	}
	if !cfg.Audit.Enabled {
		t.Error("expected audit enabled by default")
	}
	if cfg.Dispatch.SweepSchedule != "@every 1m" {
		t.Errorf("expected default sweep schedule, got %q", cfg.Dispatch.SweepSchedule)
	}
}

func TestLoadConfig_SwitchesCanBeTurnedOff(t *testing.T) {
	path := writeConfig(t, `
geocoder:
  enabled: false
audit:
  enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Geocoder.Enabled {
		t.Error("expected geocoder disabled")
	}
	if cfg.Audit.Enabled {
		t.Error("expected audit disabled")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/portal.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read configuration file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unterminated")

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "failed to parse configuration file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
orders:
  backend: "mongodb"
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var vErr ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if vErr.Errors[0].Field != "orders.backend" {
		t.Errorf("expected orders.backend error, got %q", vErr.Errors[0].Field)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8080"
orders:
  backend: "memory"
`)

	t.Setenv("PORTAL_SERVER_LISTEN_ADDRESS", "0.0.0.0:9999")
	t.Setenv("PORTAL_UVST_PRODUCTION_BASE_URL", "https://uvst.example.at")
	t.Setenv("PORTAL_UVST_TIMEOUT", "45s")
	t.Setenv("PORTAL_ORDERS_BACKEND", "postgres")
	t.Setenv("PORTAL_ORDERS_POSTGRES_DSN", "postgres://portal@localhost/portal")
	t.Setenv("PORTAL_AUDIT_ENABLED", "false")
	t.Setenv("PORTAL_SERVER_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9999" {
		t.Errorf("expected env listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.UVST.Environments["production"].BaseURL != "https://uvst.example.at" {
		t.Errorf("expected production base URL from env, got %+v", cfg.UVST.Environments)
	}
	if cfg.UVST.Timeout != 45*time.Second {
		t.Errorf("expected timeout 45s, got %v", cfg.UVST.Timeout)
	}
	if cfg.Orders.Backend != "postgres" || cfg.Orders.Postgres.DSN == "" {
		t.Errorf("expected postgres backend with DSN, got %+v", cfg.Orders)
	}
	if cfg.Audit.Enabled {
		t.Error("expected audit disabled by env")
	}
	if len(cfg.Server.CORS.AllowedOrigins) != 2 || cfg.Server.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins: %v", cfg.Server.CORS.AllowedOrigins)
	}
}

func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	t.Setenv("PORTAL_ORDERS_BACKEND", "memory")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Orders.Backend != "memory" {
		t.Errorf("expected memory backend, got %q", cfg.Orders.Backend)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("PORTAL_UVST_TIMEOUT", "not-a-duration")
	t.Setenv("PORTAL_DISPATCH_MAX_ATTEMPTS", "many")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.UVST.Timeout != DefaultUVSTTimeout {
		t.Errorf("expected default timeout, got %v", cfg.UVST.Timeout)
	}
	if cfg.Dispatch.MaxAttempts != DefaultDispatchMaxAttempts {
		t.Errorf("expected default max attempts, got %d", cfg.Dispatch.MaxAttempts)
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	first := *cfg
	ApplyDefaults(cfg)

	if cfg.Server.ListenAddress != first.Server.ListenAddress || cfg.Audit.Retention.Days != first.Audit.Retention.Days {
		t.Error("ApplyDefaults changed values on second call")
	}
}
