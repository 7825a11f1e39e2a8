package types

import "grundbuch-online/portal/pkg/orders"

// OrderList is the body of GET /api/orders.
type OrderList struct {
	Orders []*orders.Order `json:"orders"`
	Count  int             `json:"count"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// OrderCreated is the body of POST /api/orders. The wizard only needs the
// number to show the confirmation page.
type OrderCreated struct {
	ID          string        `json:"id"`
	OrderNumber string        `json:"order_number"`
	Status      orders.Status `json:"status"`
}
