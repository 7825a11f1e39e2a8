package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"grundbuch-online/portal/pkg/gateway"
	"grundbuch-online/portal/pkg/proxy"
	"grundbuch-online/portal/pkg/proxy/middleware"
)

// Relay runs one gateway request. *gateway.Gateway implements it.
type Relay interface {
	Handle(ctx context.Context, req gateway.Request, meta gateway.CallMeta) gateway.Envelope
}

// GatewayHandler serves POST /api/uvst-proxy.
type GatewayHandler struct {
	relay          Relay
	maxBody        int64
	trustForwarded bool
}

// NewGatewayHandler creates the handler. maxBody <= 0 uses the default
// limit; trustForwarded records X-Forwarded-For as the caller address.
func NewGatewayHandler(relay Relay, maxBody int64, trustForwarded bool) *GatewayHandler {
	return &GatewayHandler{relay: relay, maxBody: maxBody, trustForwarded: trustForwarded}
}

// ServeHTTP decodes the wire request and answers with the envelope. Bodies
// that cannot be decoded get a bad_request envelope with status 400.
func (h *GatewayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := proxy.ReadBody(r, h.maxBody)
	if err != nil {
		var reqErr *proxy.RequestError
		if !errors.As(err, &reqErr) {
			slog.WarnContext(r.Context(), "failed to read gateway request", "error", err)
		}
		h.write(w, r, gateway.BadRequest(err.Error()))
		return
	}

	var req gateway.Request
	if err := json.Unmarshal(body, &req); err != nil {
		h.write(w, r, gateway.BadRequest("invalid JSON body"))
		return
	}

	env := h.relay.Handle(r.Context(), req, gateway.CallMeta{
		RequestID:  middleware.GetRequestID(r.Context()),
		RemoteAddr: middleware.ClientAddress(r, h.trustForwarded),
	})
	h.write(w, r, env)
}

func (h *GatewayHandler) write(w http.ResponseWriter, r *http.Request, env gateway.Envelope) {
	if err := proxy.WriteJSONResponse(w, env.HTTPStatus(), env); err != nil {
		slog.DebugContext(r.Context(), "failed to write gateway response", "error", err)
	}
}
