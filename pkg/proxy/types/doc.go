// Package types defines the JSON bodies of the portal API that are not owned
// by a domain package.
//
// The gateway envelope lives in pkg/gateway and orders in pkg/orders; this
// package holds the shared error body and the list wrappers.
//
// Every non-gateway error is answered with:
//
//	{
//	  "error": {
//	    "message": "invalid field \"email\": not a valid address",
//	    "type": "invalid_request_error",
//	    "param": "email",
//	    "code": "invalid_value"
//	  }
//	}
package types
