// Package proxy holds the HTTP plumbing shared by the portal API handlers:
// body decoding with size limits, the common error body and the mapping of
// domain errors to status codes.
//
// # Layout
//
//   - handlers: the routes /api/uvst-proxy, /api/address/normalize and
//     /api/orders
//   - middleware: request IDs, logging, metrics, CORS, rate limits and panic
//     recovery
//   - types: JSON bodies that no domain package owns
//
// # Error Handling
//
// The gateway route always answers with its own envelope. Every other route
// answers errors as
//
//	{
//	  "error": {
//	    "message": "invalid field \"status\": must be one of pending, processing, completed, failed, cancelled",
//	    "type": "invalid_request_error",
//	    "param": "status",
//	    "code": "invalid_value"
//	  }
//	}
//
// Storage causes are logged but never echoed to the caller.
package proxy
