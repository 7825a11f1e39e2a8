package config

import "time"

// Config is the root configuration structure for the Grundbuch portal backend.
// It covers the HTTP server, the UVST upstream, secret resolution, address
// normalization, order persistence, downstream dispatch, call auditing,
// telemetry and the client-side harness.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts and CORS.
	Server ServerConfig `yaml:"server"`

	// UVST contains the upstream land-register API configuration.
	UVST UVSTConfig `yaml:"uvst"`

	// Secrets configures where credentials are resolved from.
	Secrets SecretsConfig `yaml:"secrets"`

	// Geocoder configures the address normalization lookup.
	Geocoder GeocoderConfig `yaml:"geocoder"`

	// Orders configures the order store.
	Orders OrdersConfig `yaml:"orders"`

	// Dispatch configures downstream email/invoice delivery.
	Dispatch DispatchConfig `yaml:"dispatch"`

	// Audit configures server-side recording of gateway calls.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains logging, metrics and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Client configures the client-side session used by the harness.
	Client ClientConfig `yaml:"client"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It must exceed uvst.timeout so upstream timeouts can still be
	// reported to the caller.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes limits request bodies accepted by the API handlers.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration for the
	// ordering wizard.
	CORS CORSConfig `yaml:"cors"`

	// TLS serves HTTPS directly instead of behind a terminating proxy.
	TLS TLSConfig `yaml:"tls"`

	// RateLimit throttles the public endpoints per client.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig configures per-client throttling of the public endpoints
// (order submission and address normalization).
type RateLimitConfig struct {
	// Enabled turns throttling on.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// RequestsPerMinute is the sustained rate per client.
	// Default: 30
	RequestsPerMinute int `yaml:"requests_per_minute"`

	// Burst is how many requests a client may make at once.
	// Default: 10
	Burst int `yaml:"burst"`

	// IdleTTL is how long an inactive client's state is kept.
	// Default: 10m
	IdleTTL time.Duration `yaml:"idle_ttl"`

	// TrustForwardedFor keys clients by the first X-Forwarded-For address.
	// Only enable it behind a proxy that sets the header.
	TrustForwardedFor bool `yaml:"trust_forwarded_for"`
}

// TLSConfig configures HTTPS serving.
type TLSConfig struct {
	// Enabled turns HTTPS on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// CertFile is the PEM certificate chain. It is reloaded when the file
	// changes on disk.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the PEM private key.
	KeyFile string `yaml:"key_file"`

	// MinVersion is "1.2" or "1.3".
	// Default: "1.2"
	MinVersion string `yaml:"min_version"`
}

// CORSConfig contains CORS configuration.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins lists allowed origins. ["*"] allows all.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods lists allowed methods.
	// Default: ["GET", "POST", "PATCH", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders lists allowed request headers.
	// Default: ["Authorization", "Content-Type", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// MaxAge is the preflight cache lifetime in seconds.
	// Default: 3600
	MaxAge int `yaml:"max_age"`
}

// UVSTConfig contains configuration for the upstream register API.
type UVSTConfig struct {
	// Environments maps "test" and "production" to their base URLs.
	Environments map[string]EnvironmentConfig `yaml:"environments"`

	// Timeout bounds every upstream call.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// APIKeyHeader is the header carrying the API key.
	// Default: "X-API-Key"
	APIKeyHeader string `yaml:"api_key_header"`

	// Client holds the client identification the upstream contract requires
	// in every query body.
	Client ClientIdentity `yaml:"client"`
}

// EnvironmentConfig describes one upstream environment.
type EnvironmentConfig struct {
	// BaseURL is the environment host, e.g. "https://uvst-test.example.at".
	BaseURL string `yaml:"base_url"`
}

// ClientIdentity is the fixed client identification sent upstream.
type ClientIdentity struct {
	OperatingSystem string `yaml:"operating_system"`
	SoftwareName    string `yaml:"software_name"`
	SoftwareVersion string `yaml:"software_version"`
}

// SecretsConfig configures secret providers.
type SecretsConfig struct {
	// EnvPrefix is prepended to environment variable names.
	// Default: "PORTAL_SECRET_"
	EnvPrefix string `yaml:"env_prefix"`

	// Directory optionally points at a directory of secret files.
	Directory string `yaml:"directory"`

	// Watch reloads the directory when files change.
	Watch bool `yaml:"watch"`

	// CacheTTL is how long resolved secrets are cached. Zero disables caching.
	// Default: 5m
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// GeocoderConfig configures the address lookup.
type GeocoderConfig struct {
	// Enabled turns the lookup on. When disabled every address takes the
	// title-casing fallback.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// BaseURL is the Nominatim-compatible search endpoint host.
	// Default: "https://nominatim.openstreetmap.org"
	BaseURL string `yaml:"base_url"`

	// UserAgent identifies the portal to the geocoder.
	// Default: "grundbuch-portal/<version>"
	UserAgent string `yaml:"user_agent"`

	// Email is sent as contact parameter when set.
	Email string `yaml:"email"`

	// RequestsPerSecond throttles outbound lookups.
	// Default: 1
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Timeout bounds one lookup.
	// Default: 5s
	Timeout time.Duration `yaml:"timeout"`
}

// OrdersConfig configures the order store.
type OrdersConfig struct {
	// Backend is one of "memory", "sqlite", "postgres".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite configures the sqlite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Postgres configures the postgres backend.
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig configures a SQLite database file.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait for locks.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`
}

// PostgresConfig configures the hosted relational store.
type PostgresConfig struct {
	// DSN is the connection string. Prefer setting it via PORTAL_ORDERS_POSTGRES_DSN.
	DSN string `yaml:"dsn"`

	// MaxConns caps the pool size.
	// Default: 10
	MaxConns int32 `yaml:"max_conns"`
}

// DispatchConfig configures downstream task delivery.
type DispatchConfig struct {
	// Enabled turns dispatch on.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend is "memory" or "sqlite".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite configures the outbox database.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// SweepSchedule is a cron expression for redelivering due tasks.
	// Default: "@every 1m"
	SweepSchedule string `yaml:"sweep_schedule"`

	// MaxAttempts before a task is marked failed.
	// Default: 8
	MaxAttempts int `yaml:"max_attempts"`

	// InitialBackoff is the first redelivery delay; it doubles per attempt.
	// Default: 30s
	InitialBackoff time.Duration `yaml:"initial_backoff"`

	// Timeout bounds one webhook delivery.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// Webhooks registers downstream endpoints per task kind.
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// WebhookConfig registers one downstream endpoint.
type WebhookConfig struct {
	// Kind is "email" or "invoice".
	Kind string `yaml:"kind"`

	// URL receives the POST.
	URL string `yaml:"url"`
}

// AuditConfig configures gateway call recording.
type AuditConfig struct {
	// Enabled turns recording on.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend is "memory" or "sqlite".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite configures the audit database.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// AsyncBuffer is the recorder channel size.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// Retention configures pruning.
	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig configures audit pruning.
type RetentionConfig struct {
	// Days to keep records. 0 keeps forever.
	// Default: 30
	Days int `yaml:"days"`

	// MaxRecords caps the table size. 0 is unlimited.
	MaxRecords int64 `yaml:"max_records"`

	// Schedule is a cron expression.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled exposes metrics.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the scrape path.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes metric names.
	// Default: "portal"
	Namespace string `yaml:"namespace"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// Enabled installs an OTLP exporter.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure"`

	// SampleRatio is the parent-based sampling ratio.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is reported as service.name.
	// Default: "grundbuch-portal"
	ServiceName string `yaml:"service_name"`
}

// ClientConfig configures the client-side session.
type ClientConfig struct {
	// GatewayURL is the base URL of a running portal server.
	// Default: "http://127.0.0.1:8080"
	GatewayURL string `yaml:"gateway_url"`

	// Environment is the UVST environment the session uses.
	// Default: "test"
	Environment string `yaml:"environment"`

	// Timeout bounds one gateway call from the client.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// LogCapacity is the request/response log size.
	// Default: 50
	LogCapacity int `yaml:"log_capacity"`
}
