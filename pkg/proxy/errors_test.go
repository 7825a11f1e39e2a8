package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"grundbuch-online/portal/pkg/orders"
	"grundbuch-online/portal/pkg/proxy/types"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantParam  string
	}{
		{
			name:       "unknown patch field",
			err:        &orders.FieldError{Field: "order_number", Reason: "cannot be updated"},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.CodeUnknownField,
			wantParam:  "order_number",
		},
		{
			name:       "missing contact name",
			err:        &orders.FieldError{Field: "contact.name", Reason: "is required"},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.CodeMissingField,
			wantParam:  "contact.name",
		},
		{
			name:       "invalid kg",
			err:        fmt.Errorf("create: %w", &orders.FieldError{Field: "property.kg", Reason: "must be exactly 5 digits"}),
			wantStatus: http.StatusBadRequest,
			wantCode:   types.CodeInvalidValue,
			wantParam:  "property.kg",
		},
		{
			name:       "order not found",
			err:        fmt.Errorf("get GB-20240101-ABC123: %w", orders.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   types.CodeOrderNotFound,
		},
		{
			name:       "storage failure",
			err:        orders.NewStorageError("postgres", "list", errors.New("dial tcp 10.0.0.5:5432: connection refused")),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   types.CodeStorageError,
		},
		{
			name:       "deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "request error",
			err:        &RequestError{Message: "invalid JSON", Code: types.CodeInvalidJSON, Param: "body"},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.CodeInvalidJSON,
			wantParam:  "body",
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   types.CodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := HandleError(tt.err)
			if got := resp.Error.HTTPStatusCode(); got != tt.wantStatus {
				t.Errorf("status = %d, want %d", got, tt.wantStatus)
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Error.Code, tt.wantCode)
			}
			if resp.Error.Param != tt.wantParam {
				t.Errorf("param = %q, want %q", resp.Error.Param, tt.wantParam)
			}
		})
	}
}

func TestHandleError_HidesStorageCause(t *testing.T) {
	err := orders.NewStorageError("postgres", "create", errors.New("password authentication failed for user portal"))
	resp := HandleError(err)
	if strings.Contains(resp.Error.Message, "password") {
		t.Errorf("message leaks cause: %q", resp.Error.Message)
	}
}
