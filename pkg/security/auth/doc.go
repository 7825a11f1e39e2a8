/*
Package auth guards the admin endpoints of the portal with a shared API key.

The key is not part of the configuration. It is resolved through the
secrets manager under the name "admin-api-key" on every request (the
manager caches it), so rotating the secret takes effect without a restart.
When no key is configured the admin endpoints answer 503 rather than
being open.

# Usage

	validator := auth.NewSecretKeyValidator(secretsManager, secrets.AdminAPIKey)
	mw := auth.NewAPIKeyMiddleware(validator, auth.DefaultSources)
	mux.Handle("GET /api/orders", mw.Handle(listHandler))

Keys are accepted as "Authorization: Bearer <key>" or in the X-Admin-Key
header, and compared in constant time.
*/
package auth
