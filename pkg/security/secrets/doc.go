// Credentials never appear in the YAML configuration. They are looked up by
// name when a request needs them:
//
//	uvst-<environment>-username
//	uvst-<environment>-password
//	uvst-<environment>-api-key
//	admin-api-key
//	webhook-signing-key
//
// Providers are tried in order. With a secrets directory configured the
// layout is
//
//	/run/secrets/uvst-test-username   (mode 0600)
//	/run/secrets/uvst-test-password
//
// and otherwise values come from PORTAL_SECRET_* variables, e.g.
// PORTAL_SECRET_UVST_TEST_API_KEY.
package secrets
