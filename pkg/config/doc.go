// Package config provides configuration management for the Grundbuch portal.
//
// Configuration is loaded from a YAML file with environment variable
// overrides:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("portal.yaml")
//
// # Environment Variable Overrides
//
// Variables follow the naming convention PORTAL_SECTION_FIELD:
//
//   - PORTAL_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - PORTAL_UVST_TEST_BASE_URL overrides uvst.environments.test.base_url
//   - PORTAL_ORDERS_POSTGRES_DSN overrides orders.postgres.dsn
//
// Credentials are never part of this file. They are resolved at request time
// through pkg/security/secrets (PORTAL_SECRET_* variables or a secrets
// directory).
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Loading
//
//	cfg, err := config.LoadConfigWithEnvOverrides("portal.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// There is no package-level instance; callers pass *Config (or the section
// they need) to constructors.
//
// # Example Configuration
//
//	server:
//	  listen_address: "0.0.0.0:8080"
//
//	uvst:
//	  environments:
//	    test:
//	      base_url: "https://uvst-test.example.at"
//	    production:
//	      base_url: "https://uvst.example.at"
//	  timeout: 30s
//
//	orders:
//	  backend: "postgres"
//
//	dispatch:
//	  webhooks:
//	    - kind: email
//	      url: "https://hooks.example.at/email"
//	    - kind: invoice
//	      url: "https://hooks.example.at/invoice"
package config
