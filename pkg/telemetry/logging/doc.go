// Package logging configures log/slog for the portal.
//
// New returns a *slog.Logger whose handler masks credentials (UVST
// passwords and API keys, bearer tokens, signing keys) and shortens e-mail
// addresses before anything is written. Request-scoped fields stored with
// WithRequestID, WithEnvironment and WithOrderNumber are attached to every
// record logged with a *Context method:
//
//	logger, _ := logging.New(cfg.Telemetry.Logging, os.Stderr)
//	slog.SetDefault(logger)
//	ctx = logging.WithRequestID(ctx, id)
//	slog.InfoContext(ctx, "query forwarded", "action", "query-deed")
package logging
