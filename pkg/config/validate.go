package config

import (
	"fmt"
	"net/url"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateUVST(&cfg.UVST)...)
	errs = append(errs, validateGeocoder(&cfg.Geocoder)...)
	errs = append(errs, validateOrders(&cfg.Orders)...)
	errs = append(errs, validateDispatch(&cfg.Dispatch)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateClient(&cfg.Client)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must be non-negative",
		})
	}
	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" {
			errs = append(errs, FieldError{
				Field:   "server.tls.cert_file",
				Message: "cert file is required when TLS is enabled",
			})
		}
		if cfg.TLS.KeyFile == "" {
			errs = append(errs, FieldError{
				Field:   "server.tls.key_file",
				Message: "key file is required when TLS is enabled",
			})
		}
	}
	switch cfg.TLS.MinVersion {
	case "", "1.2", "1.3":
	default:
		errs = append(errs, FieldError{
			Field:   "server.tls.min_version",
			Message: fmt.Sprintf("unsupported TLS version %q (use 1.2 or 1.3)", cfg.TLS.MinVersion),
		})
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RequestsPerMinute < 1 {
			errs = append(errs, FieldError{
				Field:   "server.rate_limit.requests_per_minute",
				Message: "must be at least 1",
			})
		}
		if cfg.RateLimit.Burst < 1 {
			errs = append(errs, FieldError{
				Field:   "server.rate_limit.burst",
				Message: "must be at least 1",
			})
		}
	}

	return errs
}

func validateUVST(cfg *UVSTConfig) []FieldError {
	var errs []FieldError

	for name, env := range cfg.Environments {
		prefix := fmt.Sprintf("uvst.environments.%s", name)
		if name != EnvironmentTest && name != EnvironmentProduction {
			errs = append(errs, FieldError{
				Field:   prefix,
				Message: fmt.Sprintf("unknown environment %q: must be 'test' or 'production'", name),
			})
			continue
		}
		if env.BaseURL == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".base_url",
				Message: "base URL is required",
			})
			continue
		}
		if err := validateURL(env.BaseURL); err != nil {
			errs = append(errs, FieldError{
				Field:   prefix + ".base_url",
				Message: err.Error(),
			})
		}
	}

	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "uvst.timeout",
			Message: "timeout must be positive",
		})
	}
	if cfg.APIKeyHeader == "" {
		errs = append(errs, FieldError{
			Field:   "uvst.api_key_header",
			Message: "API key header is required",
		})
	}

	return errs
}

func validateGeocoder(cfg *GeocoderConfig) []FieldError {
	var errs []FieldError
	if !cfg.Enabled {
		return errs
	}

	if err := validateURL(cfg.BaseURL); err != nil {
		errs = append(errs, FieldError{
			Field:   "geocoder.base_url",
			Message: err.Error(),
		})
	}
	if cfg.RequestsPerSecond <= 0 {
		errs = append(errs, FieldError{
			Field:   "geocoder.requests_per_second",
			Message: "requests per second must be positive",
		})
	}

	return errs
}

func validateOrders(cfg *OrdersConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "orders.sqlite.path",
				Message: "sqlite path is required when backend is 'sqlite'",
			})
		}
	case "postgres":
		if cfg.Postgres.DSN == "" {
			errs = append(errs, FieldError{
				Field:   "orders.postgres.dsn",
				Message: "postgres DSN is required when backend is 'postgres'",
			})
		}
		if cfg.Postgres.MaxConns < 1 {
			errs = append(errs, FieldError{
				Field:   "orders.postgres.max_conns",
				Message: "max conns must be at least 1",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "orders.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory', 'sqlite', or 'postgres'", cfg.Backend),
		})
	}

	return errs
}

func validateDispatch(cfg *DispatchConfig) []FieldError {
	var errs []FieldError
	if !cfg.Enabled {
		return errs
	}

	if cfg.Backend != "memory" && cfg.Backend != "sqlite" {
		errs = append(errs, FieldError{
			Field:   "dispatch.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", cfg.Backend),
		})
	}
	if cfg.Backend == "sqlite" && cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{
			Field:   "dispatch.sqlite.path",
			Message: "sqlite path is required when backend is 'sqlite'",
		})
	}
	if cfg.MaxAttempts < 1 {
		errs = append(errs, FieldError{
			Field:   "dispatch.max_attempts",
			Message: "max attempts must be at least 1",
		})
	}
	if cfg.SweepSchedule == "" {
		errs = append(errs, FieldError{
			Field:   "dispatch.sweep_schedule",
			Message: "sweep schedule is required",
		})
	}

	for i, hook := range cfg.Webhooks {
		prefix := fmt.Sprintf("dispatch.webhooks[%d]", i)
		if hook.Kind != "email" && hook.Kind != "invoice" {
			errs = append(errs, FieldError{
				Field:   prefix + ".kind",
				Message: fmt.Sprintf("invalid kind %q: must be 'email' or 'invoice'", hook.Kind),
			})
		}
		if err := validateURL(hook.URL); err != nil {
			errs = append(errs, FieldError{
				Field:   prefix + ".url",
				Message: err.Error(),
			})
		}
	}

	return errs
}

func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError
	if !cfg.Enabled {
		return errs
	}

	if cfg.Backend != "memory" && cfg.Backend != "sqlite" {
		errs = append(errs, FieldError{
			Field:   "audit.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", cfg.Backend),
		})
	}
	if cfg.Backend == "sqlite" && cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{
			Field:   "audit.sqlite.path",
			Message: "sqlite path is required when backend is 'sqlite'",
		})
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention.days",
			Message: "retention days must be non-negative (0 = keep forever)",
		})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention.max_records",
			Message: "max records must be non-negative (0 = unlimited)",
		})
	}
	if cfg.AsyncBuffer < 1 {
		errs = append(errs, FieldError{
			Field:   "audit.async_buffer",
			Message: "async buffer must be at least 1",
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}

func validateClient(cfg *ClientConfig) []FieldError {
	var errs []FieldError

	if cfg.Environment != EnvironmentTest && cfg.Environment != EnvironmentProduction {
		errs = append(errs, FieldError{
			Field:   "client.environment",
			Message: fmt.Sprintf("invalid environment %q: must be 'test' or 'production'", cfg.Environment),
		})
	}
	if err := validateURL(cfg.GatewayURL); err != nil {
		errs = append(errs, FieldError{
			Field:   "client.gateway_url",
			Message: err.Error(),
		})
	}
	if cfg.LogCapacity < 1 {
		errs = append(errs, FieldError{
			Field:   "client.log_capacity",
			Message: "log capacity must be at least 1",
		})
	}

	return errs
}

// validateURL requires an absolute http or https URL.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL format: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must use http or https scheme")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}
