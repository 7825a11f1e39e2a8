// Portal is the backend of the Grundbuch ordering portal.
//
// It relays land-register queries to the UVST API, normalizes Austrian
// addresses, accepts orders and forwards them to downstream webhooks:
//
//	# Start the server
//	portal run --config /etc/portal/portal.yaml
//
//	# Exercise a running server end to end
//	portal harness --kg 01004 --ez 123 --copy
//
//	# Inspect and update orders
//	portal orders list --status pending
//	portal orders set-status GB-20240517-ABC123 --status completed
//
//	# Inspect gateway calls
//	portal audit query --since 24h --output csv
package main

import "os"

func main() {
	os.Exit(Execute())
}
