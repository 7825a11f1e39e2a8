package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_MinimalConfig(t *testing.T) {
	if err := Validate(MinimalConfig()); err != nil {
		t.Fatalf("expected minimal config to be valid, got %v", err)
	}
}

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("expected defaults to be valid, got %v", err)
	}
}

func TestValidate_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{
			name:   "empty listen address",
			modify: func(c *Config) { c.Server.ListenAddress = "" },
			field:  "server.listen_address",
		},
		{
			name: "unknown environment",
			modify: func(c *Config) {
				c.UVST.Environments["staging"] = EnvironmentConfig{BaseURL: "https://x.example"}
			},
			field: "uvst.environments.staging",
		},
		{
			name: "environment without scheme",
			modify: func(c *Config) {
				c.UVST.Environments["production"] = EnvironmentConfig{BaseURL: "uvst.example.at"}
			},
			field: "uvst.environments.production.base_url",
		},
		{
			name:   "postgres without dsn",
			modify: func(c *Config) { c.Orders.Backend = "postgres" },
			field:  "orders.postgres.dsn",
		},
		{
			name:   "bad orders backend",
			modify: func(c *Config) { c.Orders.Backend = "redis" },
			field:  "orders.backend",
		},
		{
			name: "bad webhook kind",
			modify: func(c *Config) {
				c.Dispatch.Webhooks = []WebhookConfig{{Kind: "sms", URL: "https://hooks.example"}}
			},
			field: "dispatch.webhooks[0].kind",
		},
		{
			name:   "zero max attempts",
			modify: func(c *Config) { c.Dispatch.MaxAttempts = 0 },
			field:  "dispatch.max_attempts",
		},
		{
			name:   "negative retention",
			modify: func(c *Config) { c.Audit.Retention.Days = -1 },
			field:  "audit.retention.days",
		},
		{
			name:   "bad log level",
			modify: func(c *Config) { c.Telemetry.Logging.Level = "trace" },
			field:  "telemetry.logging.level",
		},
		{
			name:   "sample ratio out of range",
			modify: func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 },
			field:  "telemetry.tracing.sample_ratio",
		},
		{
			name:   "bad client environment",
			modify: func(c *Config) { c.Client.Environment = "prod" },
			field:  "client.environment",
		},
		{
			name:   "zero geocoder rate",
			modify: func(c *Config) { c.Geocoder.RequestsPerSecond = 0 },
			field:  "geocoder.requests_per_second",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MinimalConfig()
			tt.modify(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}

			var vErr ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}

			found := false
			for _, fe := range vErr.Errors {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error for field %q, got %v", tt.field, vErr.Errors)
			}
		})
	}
}

func TestValidate_DisabledSectionsSkipped(t *testing.T) {
	cfg := MinimalConfig()
	cfg.Dispatch.Enabled = false
	cfg.Dispatch.Backend = "nonsense"
	cfg.Audit.Enabled = false
	cfg.Audit.Backend = "nonsense"

	if err := Validate(cfg); err != nil {
		t.Fatalf("expected disabled sections to be skipped, got %v", err)
	}
}

func TestValidationError_Format(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if single.Error() != "configuration validation failed: a: bad" {
		t.Errorf("unexpected single error: %q", single.Error())
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	if !strings.Contains(multi.Error(), "with 2 errors") || !strings.Contains(multi.Error(), "  - b: worse") {
		t.Errorf("unexpected multi error: %q", multi.Error())
	}

	if (ValidationError{}).Error() != "configuration validation failed" {
		t.Error("unexpected empty error message")
	}
}
