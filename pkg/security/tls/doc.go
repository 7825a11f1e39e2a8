// Package tls builds the HTTPS configuration of the portal server.
//
// The certificate pair is loaded once at startup and reloaded whenever
// either file changes on disk, so renewed certificates are picked up
// without a restart. Expired or not-yet-valid certificates are rejected
// at load time, and certificates close to expiry are logged as warnings.
package tls
