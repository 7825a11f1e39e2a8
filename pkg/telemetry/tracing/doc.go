// Package tracing sets up OpenTelemetry tracing. Spans cover inbound HTTP
// requests, upstream UVST calls, geocoder lookups and webhook deliveries;
// the W3C traceparent header is propagated on outbound calls.
package tracing
