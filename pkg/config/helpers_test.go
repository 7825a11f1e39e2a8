package config

// MinimalConfig returns a valid configuration that needs no external services.
func MinimalConfig() *Config {
	cfg := Default()
	cfg.Orders.Backend = "memory"
	cfg.Dispatch.Backend = "memory"
	cfg.Audit.Backend = "memory"
	cfg.UVST.Environments[EnvironmentTest] = EnvironmentConfig{BaseURL: "https://uvst-test.example.at"}
	return cfg
}
