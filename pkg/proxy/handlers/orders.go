package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"grundbuch-online/portal/pkg/orders"
	"grundbuch-online/portal/pkg/proxy"
	"grundbuch-online/portal/pkg/proxy/types"
	"grundbuch-online/portal/pkg/telemetry/logging"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// OrderService is the order use-case layer. *orders.Service implements it.
type OrderService interface {
	Create(ctx context.Context, d orders.Draft) (*orders.Order, error)
	Get(ctx context.Context, id string) (*orders.Order, error)
	List(ctx context.Context, f orders.Filter) ([]*orders.Order, error)
	Update(ctx context.Context, id string, p orders.Patch) (*orders.Order, error)
}

// OrdersHandler serves the /api/orders routes.
type OrdersHandler struct {
	service OrderService
	maxBody int64
}

// NewOrdersHandler creates the handler.
func NewOrdersHandler(service OrderService, maxBody int64) *OrdersHandler {
	return &OrdersHandler{service: service, maxBody: maxBody}
}

// Create serves POST /api/orders.
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft orders.Draft
	if err := proxy.DecodeJSON(r, h.maxBody, &draft, true); err != nil {
		h.fail(w, r, err)
		return
	}

	o, err := h.service.Create(r.Context(), draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/orders/"+o.ID)
	_ = proxy.WriteJSONResponse(w, http.StatusCreated, types.OrderCreated{
		ID:          o.ID,
		OrderNumber: o.Number,
		Status:      o.Status,
	})
}

// List serves GET /api/orders?status=&payment_status=&limit=&offset=.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	list, err := h.service.List(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	_ = proxy.WriteJSONResponse(w, http.StatusOK, types.OrderList{
		Orders: list,
		Count:  len(list),
		Limit:  f.Limit,
		Offset: f.Offset,
	})
}

// Get serves GET /api/orders/{id}. The id may also be an order number.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = proxy.WriteJSONResponse(w, http.StatusOK, o)
}

// Update serves PATCH /api/orders/{id}.
func (h *OrdersHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := proxy.ReadBody(r, h.maxBody)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	patch, err := orders.ParsePatch(body)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	o, err := h.service.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := logging.WithOrderNumber(r.Context(), o.Number)
	slog.InfoContext(ctx, "order updated", "status", o.Status, "payment_status", o.PaymentStatus)
	_ = proxy.WriteJSONResponse(w, http.StatusOK, o)
}

func (h *OrdersHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	resp := proxy.HandleError(err)
	if resp.Error.HTTPStatusCode() >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "order request failed", "path", r.URL.Path, "error", err)
	}
	_ = proxy.WriteErrorResponse(w, resp)
}

func parseFilter(r *http.Request) (orders.Filter, error) {
	q := r.URL.Query()
	f := orders.Filter{
		Status:        orders.Status(q.Get("status")),
		PaymentStatus: orders.PaymentStatus(q.Get("payment_status")),
		Limit:         defaultListLimit,
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, &proxy.RequestError{
			Message: fmt.Sprintf("unknown status %q", f.Status),
			Code:    types.CodeInvalidValue,
			Param:   "status",
		}
	}
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		return f, &proxy.RequestError{
			Message: fmt.Sprintf("unknown payment status %q", f.PaymentStatus),
			Code:    types.CodeInvalidValue,
			Param:   "payment_status",
		}
	}

	var err error
	if f.Limit, err = intParam(q.Get("limit"), "limit", defaultListLimit, 1, maxListLimit); err != nil {
		return f, err
	}
	if f.Offset, err = intParam(q.Get("offset"), "offset", 0, 0, -1); err != nil {
		return f, err
	}
	return f, nil
}

// intParam parses an optional integer query parameter. hi < 0 means no
// upper bound.
func intParam(raw, name string, def, lo, hi int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || (hi >= 0 && n > hi) {
		msg := fmt.Sprintf("%s must be an integer >= %d", name, lo)
		if hi >= 0 {
			msg = fmt.Sprintf("%s must be an integer between %d and %d", name, lo, hi)
		}
		return 0, &proxy.RequestError{Message: msg, Code: types.CodeInvalidValue, Param: name}
	}
	return n, nil
}
