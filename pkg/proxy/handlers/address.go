package handlers

import (
	"context"
	"net/http"
	"strings"

	"grundbuch-online/portal/pkg/address"
	"grundbuch-online/portal/pkg/proxy"
	"grundbuch-online/portal/pkg/proxy/types"
)

// Resolver canonicalizes an address. *address.Normalizer implements it.
type Resolver interface {
	Resolve(ctx context.Context, in address.Input) address.Resolution
}

// AddressHandler serves POST /api/address/normalize.
type AddressHandler struct {
	resolver Resolver
	maxBody  int64
}

// NewAddressHandler creates the handler.
func NewAddressHandler(resolver Resolver, maxBody int64) *AddressHandler {
	return &AddressHandler{resolver: resolver, maxBody: maxBody}
}

// ServeHTTP always answers 200 for a usable input; the geocoder being down
// only changes the resolution's source to "fallback".
func (h *AddressHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var in address.Input
	if err := proxy.DecodeJSON(r, h.maxBody, &in, false); err != nil {
		_ = proxy.WriteErrorResponse(w, proxy.HandleError(err))
		return
	}
	if strings.TrimSpace(in.Street) == "" && strings.TrimSpace(in.City) == "" {
		_ = proxy.WriteErrorResponse(w, types.NewInvalidRequestError(
			"street or city is required", "street", types.CodeMissingField))
		return
	}

	_ = proxy.WriteJSONResponse(w, http.StatusOK, h.resolver.Resolve(r.Context(), in))
}
