// Package server provides the HTTP server of the Grundbuch portal.
//
// The server ties the route handlers of pkg/proxy/handlers to the middleware
// chain and manages the listener lifecycle: optional TLS with certificate hot
// reload, and graceful shutdown when the start context is cancelled.
//
// # Routes
//
//	POST  /api/uvst-proxy          UVST gateway envelope
//	POST  /api/address/normalize   address normalisation (rate limited)
//	POST  /api/orders              order submission (rate limited)
//	GET   /api/orders              order listing (admin key)
//	GET   /api/orders/{id}         order lookup by id or number (admin key)
//	PATCH /api/orders/{id}         status and payment updates (admin key)
//	GET   /health, /ready          liveness and readiness
//	GET   /version                 build information
//	GET   /metrics                 Prometheus exposition, when enabled
//
// Every request passes RequestID, Recovery, Logging and CORS, in that order.
//
// # Usage
//
//	srv := server.NewServer(&cfg.Server, server.Deps{
//	    Gateway:   gw,
//	    Resolver:  normalizer,
//	    Orders:    svc,
//	    AdminKeys: secretStore,
//	})
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
