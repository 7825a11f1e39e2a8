// Package uvst is the HTTP client for the UVST land-register API.
//
// Three calls exist: authenticate (credentials for a bearer token), the
// current/historical extract query and the deed ("Urkunden") query. Query
// parameters are validated before anything goes on the wire; KG numbers are
// five digits, EZ numbers positive integers and formats one of XML, PDF or
// HTML.
//
// Failures are typed: *ConfigError, *ValidationError, *AuthError,
// *TimeoutError, *UpstreamError and *ParseError. Nothing is retried.
package uvst
