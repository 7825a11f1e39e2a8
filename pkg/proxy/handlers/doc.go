// Package handlers provides the HTTP handlers of the portal API.
//
//   - POST /api/uvst-proxy: GatewayHandler relays to the register
//   - POST /api/address/normalize: AddressHandler
//   - POST /api/orders: OrdersHandler.Create (public)
//   - GET /api/orders, GET and PATCH /api/orders/{id}: OrdersHandler (admin)
//
// Handlers depend on small interfaces so they can be tested with fakes;
// authentication and rate limits are applied by middleware at registration.
package handlers
