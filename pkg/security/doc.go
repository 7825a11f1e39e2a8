/*
Package security groups the portal's transport security, secret resolution
and admin authentication.

# TLS

Serve HTTPS directly, reloading the certificate when the files change:

	tlsConfig, reloader, err := tls.ServerConfig(cfg.Server.TLS)
	if err != nil {
		log.Fatal(err)
	}
	if reloader != nil {
		_ = reloader.Watch(ctx)
	}

# Secrets

UVST credentials, the admin key and the webhook signing key never live in
the config file. They are resolved from a secrets directory and the
environment:

	manager, err := secrets.New(cfg.Secrets)
	creds, err := manager.UVSTCredentials(ctx, "test")
	adminKey, err := manager.Lookup(ctx, secrets.AdminAPIKey)

# Admin Authentication

	validator := auth.NewSecretKeyValidator(manager, secrets.AdminAPIKey)
	mw := auth.NewAPIKeyMiddleware(validator, auth.DefaultSources)
	mux.Handle("GET /api/orders", mw.Handle(list))
*/
package security
