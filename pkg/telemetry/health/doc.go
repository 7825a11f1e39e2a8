// Package health provides liveness, readiness and version endpoints.
// Readiness aggregates checks registered for the order store, the dispatch
// outbox and the audit store.
package health
