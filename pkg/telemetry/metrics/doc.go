// Package metrics exposes Prometheus metrics for the portal:
//
//	portal_http_requests_total{route,code}
//	portal_http_request_duration_seconds{route}
//	portal_gateway_calls_total{action,environment,outcome}
//	portal_gateway_call_duration_seconds{action,environment}
//	portal_geocoder_lookups_total{result}
//	portal_orders_created_total
//	portal_orders_status_changes_total{status}
//	portal_dispatch_tasks_total{kind,outcome}
//	portal_audit_dropped_total
//	portal_audit_pruned_total
package metrics
