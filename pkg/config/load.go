package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix shared by every configuration override variable.
const EnvPrefix = "PORTAL_"

// LoadConfig loads configuration from a YAML file at the specified path.
// The document is decoded on top of Default, so switches that default to on
// stay on unless the file turns them off. The result is validated.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow PORTAL_SECTION_FIELD
// (e.g. PORTAL_SERVER_LISTEN_ADDRESS) and always win over the file.
//
// An empty path skips the file and starts from Default.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies PORTAL_* environment variables to cfg.
// Unparseable values are ignored.
func applyEnvOverrides(cfg *Config) {
	// Server
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envBool("SERVER_CORS_ENABLED", &cfg.Server.CORS.Enabled)
	if val := os.Getenv(EnvPrefix + "SERVER_CORS_ALLOWED_ORIGINS"); val != "" {
		cfg.Server.CORS.AllowedOrigins = splitList(val)
	}

	envBool("SERVER_TLS_ENABLED", &cfg.Server.TLS.Enabled)
	envString("SERVER_TLS_CERT_FILE", &cfg.Server.TLS.CertFile)
	envString("SERVER_TLS_KEY_FILE", &cfg.Server.TLS.KeyFile)
	envBool("SERVER_RATE_LIMIT_ENABLED", &cfg.Server.RateLimit.Enabled)
	envInt("SERVER_RATE_LIMIT_RPM", &cfg.Server.RateLimit.RequestsPerMinute)

	// UVST environments
	for _, env := range []string{EnvironmentTest, EnvironmentProduction} {
		key := fmt.Sprintf("UVST_%s_BASE_URL", strings.ToUpper(env))
		if val := os.Getenv(EnvPrefix + key); val != "" {
			if cfg.UVST.Environments == nil {
				cfg.UVST.Environments = make(map[string]EnvironmentConfig)
			}
			cfg.UVST.Environments[env] = EnvironmentConfig{BaseURL: val}
		}
	}
	envDuration("UVST_TIMEOUT", &cfg.UVST.Timeout)

	// Secrets
	envString("SECRETS_DIRECTORY", &cfg.Secrets.Directory)
	envBool("SECRETS_WATCH", &cfg.Secrets.Watch)

	// Geocoder
	envBool("GEOCODER_ENABLED", &cfg.Geocoder.Enabled)
	envString("GEOCODER_BASE_URL", &cfg.Geocoder.BaseURL)
	envString("GEOCODER_USER_AGENT", &cfg.Geocoder.UserAgent)
	envString("GEOCODER_EMAIL", &cfg.Geocoder.Email)

	// Orders
	envString("ORDERS_BACKEND", &cfg.Orders.Backend)
	envString("ORDERS_SQLITE_PATH", &cfg.Orders.SQLite.Path)
	envString("ORDERS_POSTGRES_DSN", &cfg.Orders.Postgres.DSN)

	// Dispatch
	envBool("DISPATCH_ENABLED", &cfg.Dispatch.Enabled)
	envString("DISPATCH_BACKEND", &cfg.Dispatch.Backend)
	envString("DISPATCH_SQLITE_PATH", &cfg.Dispatch.SQLite.Path)
	envString("DISPATCH_SWEEP_SCHEDULE", &cfg.Dispatch.SweepSchedule)
	envInt("DISPATCH_MAX_ATTEMPTS", &cfg.Dispatch.MaxAttempts)

	// Audit
	envBool("AUDIT_ENABLED", &cfg.Audit.Enabled)
	envString("AUDIT_BACKEND", &cfg.Audit.Backend)
	envString("AUDIT_SQLITE_PATH", &cfg.Audit.SQLite.Path)
	envInt("AUDIT_RETENTION_DAYS", &cfg.Audit.Retention.Days)

	// Telemetry
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}

	// Client
	envString("CLIENT_GATEWAY_URL", &cfg.Client.GatewayURL)
	envString("CLIENT_ENVIRONMENT", &cfg.Client.Environment)
	envDuration("CLIENT_TIMEOUT", &cfg.Client.Timeout)
}

func envString(key string, dst *string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
