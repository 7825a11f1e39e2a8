package proxy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"grundbuch-online/portal/pkg/proxy/types"
)

const (
	// MaxRequestBodySize is used when no limit is configured (1MB).
	MaxRequestBodySize = 1 << 20

	// RequestIDHeader is the HTTP header for request ID propagation.
	RequestIDHeader = "X-Request-ID"
)

// ReadBody reads at most limit bytes of the request body. A body over the
// limit is a RequestError with code request_too_large.
func ReadBody(r *http.Request, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = MaxRequestBodySize
	}
	if r.Body == nil {
		return nil, &RequestError{Message: "request body is required", Code: types.CodeMissingField, Param: "body"}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, &RequestError{
			Message:  fmt.Sprintf("request body exceeds maximum size of %d bytes", limit),
			Code:     types.CodeRequestTooLarge,
			Param:    "body",
			TooLarge: true,
		}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &RequestError{Message: "request body is required", Code: types.CodeMissingField, Param: "body"}
	}
	return body, nil
}

// DecodeJSON reads the body and decodes it into v. Unknown fields are
// rejected when strict is set.
//
// Example usage:
//
//	var in address.Input
//	if err := DecodeJSON(r, maxBytes, &in, false); err != nil {
//	    WriteErrorResponse(w, HandleError(err))
//	    return
//	}
func DecodeJSON(r *http.Request, limit int64, v any, strict bool) error {
	body, err := ReadBody(r, limit)
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return &RequestError{
				Message: fmt.Sprintf("field %q must be of type %s", typeErr.Field, typeErr.Type),
				Code:    types.CodeInvalidValue,
				Param:   typeErr.Field,
			}
		}
		if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
			field = strings.Trim(field, `"`)
			return &RequestError{
				Message: fmt.Sprintf("unknown field %q", field),
				Code:    types.CodeUnknownField,
				Param:   field,
			}
		}
		return &RequestError{
			Message: fmt.Sprintf("invalid JSON: %v", err),
			Code:    types.CodeInvalidJSON,
			Param:   "body",
		}
	}
	return nil
}

// ExtractRequestID extracts the request ID from the X-Request-ID header.
// If the header is not present, it returns an empty string.
func ExtractRequestID(r *http.Request) string {
	return r.Header.Get(RequestIDHeader)
}

// RequestError represents a request parsing or validation error.
type RequestError struct {
	Message  string
	Code     string
	Param    string
	TooLarge bool
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return e.Message
}

// ToErrorResponse converts a RequestError to a portal error response.
func (e *RequestError) ToErrorResponse() *types.ErrorResponse {
	if e.TooLarge {
		return types.NewErrorResponse(e.Message, types.ErrorTypeRequestTooLarge, e.Param, e.Code)
	}
	return types.NewInvalidRequestError(e.Message, e.Param, e.Code)
}
