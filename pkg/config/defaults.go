package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxBodyBytes    = int64(1048576)
	DefaultCORSMaxAge      = 3600
	DefaultRateLimitRPM    = 30
	DefaultRateLimitBurst  = 10
	DefaultRateLimitIdle   = 10 * time.Minute

	// UVST defaults
	DefaultUVSTTimeout       = 30 * time.Second
	DefaultAPIKeyHeader      = "X-API-Key"
	DefaultClientOS          = "Linux"
	DefaultClientSoftware    = "Grundbuch-Portal"
	DefaultClientVersion     = "1.0.0"
	EnvironmentTest          = "test"
	EnvironmentProduction    = "production"
	DefaultSecretsEnvPrefix  = "PORTAL_SECRET_"
	DefaultSecretsCacheTTL   = 5 * time.Minute

	// Geocoder defaults
	DefaultGeocoderBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultGeocoderUserAgent = "grundbuch-portal/1.0"
	DefaultGeocoderRate      = 1.0
	DefaultGeocoderTimeout   = 5 * time.Second

	// Store defaults
	DefaultOrdersBackend       = "sqlite"
	DefaultOrdersSQLitePath    = "data/orders.db"
	DefaultSQLiteBusyTimeout   = 5 * time.Second
	DefaultPostgresMaxConns    = int32(10)
	DefaultDispatchBackend     = "sqlite"
	DefaultDispatchSQLitePath  = "data/dispatch.db"
	DefaultDispatchSweep       = "@every 1m"
	DefaultDispatchMaxAttempts = 8
	DefaultDispatchBackoff     = 30 * time.Second
	DefaultDispatchTimeout     = 10 * time.Second
	DefaultAuditBackend        = "sqlite"
	DefaultAuditSQLitePath     = "data/audit.db"
	DefaultAuditAsyncBuffer    = 1000
	DefaultAuditRetentionDays  = 30
	DefaultAuditSchedule       = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "portal"
	DefaultTracingEndpoint  = "localhost:4317"
	DefaultTracingRatio     = 1.0
	DefaultServiceName      = "grundbuch-portal"

	// Client defaults
	DefaultGatewayURL        = "http://127.0.0.1:8080"
	DefaultClientTimeout     = 30 * time.Second
	DefaultClientLogCapacity = 50
)

// Default returns a configuration with every default applied and the
// boolean switches that default to on already set. It is the starting point
// for LoadConfig before the YAML document is decoded on top of it.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.CORS.Enabled = true
	cfg.Server.RateLimit.Enabled = true
	cfg.Geocoder.Enabled = true
	cfg.Dispatch.Enabled = true
	cfg.Audit.Enabled = true
	cfg.Telemetry.Metrics.Enabled = true
	cfg.Orders.SQLite.WALMode = true
	cfg.Dispatch.SQLite.WALMode = true
	cfg.Audit.SQLite.WALMode = true
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with defaults. Boolean switches are
// left alone because false is a meaningful value; see Default.
// This function is idempotent.
func ApplyDefaults(cfg *Config) {
	// Server
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if len(cfg.Server.CORS.AllowedOrigins) == 0 {
		cfg.Server.CORS.AllowedOrigins = []string{"*"}
	}
	if len(cfg.Server.CORS.AllowedMethods) == 0 {
		cfg.Server.CORS.AllowedMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	}
	if len(cfg.Server.CORS.AllowedHeaders) == 0 {
		cfg.Server.CORS.AllowedHeaders = []string{"Authorization", "Content-Type", "X-Request-ID", "X-Admin-Key"}
	}
	if cfg.Server.CORS.MaxAge == 0 {
		cfg.Server.CORS.MaxAge = DefaultCORSMaxAge
	}
	if cfg.Server.RateLimit.RequestsPerMinute == 0 {
		cfg.Server.RateLimit.RequestsPerMinute = DefaultRateLimitRPM
	}
	if cfg.Server.RateLimit.Burst == 0 {
		cfg.Server.RateLimit.Burst = DefaultRateLimitBurst
	}
	if cfg.Server.RateLimit.IdleTTL == 0 {
		cfg.Server.RateLimit.IdleTTL = DefaultRateLimitIdle
	}

	// UVST
	if cfg.UVST.Environments == nil {
		cfg.UVST.Environments = make(map[string]EnvironmentConfig)
	}
	if cfg.UVST.Timeout == 0 {
		cfg.UVST.Timeout = DefaultUVSTTimeout
	}
	if cfg.UVST.APIKeyHeader == "" {
		cfg.UVST.APIKeyHeader = DefaultAPIKeyHeader
	}
	if cfg.UVST.Client.OperatingSystem == "" {
		cfg.UVST.Client.OperatingSystem = DefaultClientOS
	}
	if cfg.UVST.Client.SoftwareName == "" {
		cfg.UVST.Client.SoftwareName = DefaultClientSoftware
	}
	if cfg.UVST.Client.SoftwareVersion == "" {
		cfg.UVST.Client.SoftwareVersion = DefaultClientVersion
	}

	// Secrets
	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = DefaultSecretsEnvPrefix
	}
	if cfg.Secrets.CacheTTL == 0 {
		cfg.Secrets.CacheTTL = DefaultSecretsCacheTTL
	}

	// Geocoder
	if cfg.Geocoder.BaseURL == "" {
		cfg.Geocoder.BaseURL = DefaultGeocoderBaseURL
	}
	if cfg.Geocoder.UserAgent == "" {
		cfg.Geocoder.UserAgent = DefaultGeocoderUserAgent
	}
	if cfg.Geocoder.RequestsPerSecond == 0 {
		cfg.Geocoder.RequestsPerSecond = DefaultGeocoderRate
	}
	if cfg.Geocoder.Timeout == 0 {
		cfg.Geocoder.Timeout = DefaultGeocoderTimeout
	}

	// Orders
	if cfg.Orders.Backend == "" {
		cfg.Orders.Backend = DefaultOrdersBackend
	}
	if cfg.Orders.SQLite.Path == "" {
		cfg.Orders.SQLite.Path = DefaultOrdersSQLitePath
	}
	if cfg.Orders.SQLite.BusyTimeout == 0 {
		cfg.Orders.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Orders.Postgres.MaxConns == 0 {
		cfg.Orders.Postgres.MaxConns = DefaultPostgresMaxConns
	}

	// Dispatch
	if cfg.Dispatch.Backend == "" {
		cfg.Dispatch.Backend = DefaultDispatchBackend
	}
	if cfg.Dispatch.SQLite.Path == "" {
		cfg.Dispatch.SQLite.Path = DefaultDispatchSQLitePath
	}
	if cfg.Dispatch.SQLite.BusyTimeout == 0 {
		cfg.Dispatch.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Dispatch.SweepSchedule == "" {
		cfg.Dispatch.SweepSchedule = DefaultDispatchSweep
	}
	if cfg.Dispatch.MaxAttempts == 0 {
		cfg.Dispatch.MaxAttempts = DefaultDispatchMaxAttempts
	}
	if cfg.Dispatch.InitialBackoff == 0 {
		cfg.Dispatch.InitialBackoff = DefaultDispatchBackoff
	}
	if cfg.Dispatch.Timeout == 0 {
		cfg.Dispatch.Timeout = DefaultDispatchTimeout
	}

	// Audit
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}
	if cfg.Audit.SQLite.Path == "" {
		cfg.Audit.SQLite.Path = DefaultAuditSQLitePath
	}
	if cfg.Audit.SQLite.BusyTimeout == 0 {
		cfg.Audit.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Audit.AsyncBuffer == 0 {
		cfg.Audit.AsyncBuffer = DefaultAuditAsyncBuffer
	}
	if cfg.Audit.Retention.Days == 0 {
		cfg.Audit.Retention.Days = DefaultAuditRetentionDays
	}
	if cfg.Audit.Retention.Schedule == "" {
		cfg.Audit.Retention.Schedule = DefaultAuditSchedule
	}

	// Telemetry
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultServiceName
	}

	// Client
	if cfg.Client.GatewayURL == "" {
		cfg.Client.GatewayURL = DefaultGatewayURL
	}
	if cfg.Client.Environment == "" {
		cfg.Client.Environment = EnvironmentTest
	}
	if cfg.Client.Timeout == 0 {
		cfg.Client.Timeout = DefaultClientTimeout
	}
	if cfg.Client.LogCapacity == 0 {
		cfg.Client.LogCapacity = DefaultClientLogCapacity
	}
}
