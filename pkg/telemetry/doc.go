// Package telemetry groups the portal's observability packages:
//
//   - logging: slog setup with credential redaction
//   - metrics: Prometheus collectors for gateway, geocoder, orders, dispatch and audit
//   - tracing: OpenTelemetry spans exported over OTLP/gRPC
//   - health: liveness, readiness and version endpoints
package telemetry
