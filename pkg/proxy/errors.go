package proxy

import (
	"context"
	"errors"
	"strings"

	"grundbuch-online/portal/pkg/orders"
	"grundbuch-online/portal/pkg/proxy/types"
)

// HandleError converts domain errors to portal error responses.
//
// Example usage:
//
//	if err != nil {
//	    WriteErrorResponse(w, HandleError(err))
//	    return
//	}
func HandleError(err error) *types.ErrorResponse {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.ToErrorResponse()
	}

	var fieldErr *orders.FieldError
	if errors.As(err, &fieldErr) {
		return types.NewInvalidRequestError(fieldErr.Error(), fieldErr.Field, fieldCode(fieldErr))
	}

	if errors.Is(err, orders.ErrNotFound) {
		return types.NewNotFoundError("order not found", types.CodeOrderNotFound)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewErrorResponse("request timed out", types.ErrorTypeTimeout, "", "")
	}

	var storageErr *orders.StorageError
	if errors.As(err, &storageErr) {
		// The cause may name files or hosts; keep it in the logs only.
		return types.NewErrorResponse(
			"order storage is unavailable, please retry",
			types.ErrorTypeServiceUnavailable,
			"",
			types.CodeStorageError,
		)
	}

	return types.NewServerError("An internal error occurred. Please try again later.")
}

func fieldCode(e *orders.FieldError) string {
	switch {
	case e.Reason == "cannot be updated":
		return types.CodeUnknownField
	case strings.HasSuffix(e.Reason, "is required"):
		return types.CodeMissingField
	default:
		return types.CodeInvalidValue
	}
}
