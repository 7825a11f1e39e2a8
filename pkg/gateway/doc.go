// Package gateway is the server-side relay between the ordering wizard and
// the UVST register API.
//
// The gateway holds the upstream credentials, hashes the password, and
// forwards three actions to the test or production environment:
//
//	authenticate                   credentials for a bearer token
//	query-current-or-historical    extract for a KG/EZ pair
//	query-deed                     deed by document number and year
//
// No error crosses the package boundary. Each action returns a result that
// carries either a payload or a *Failure, and Handle projects any of them
// onto the wire Envelope {success, status, data, duration}. Queries without
// a token are rejected before any network call.
package gateway
