package proxy

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"grundbuch-online/portal/pkg/proxy/types"
)

type wizardInput struct {
	Street      string `json:"street"`
	HouseNumber string `json:"houseNumber"`
	EZ          int    `json:"ez"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		limit     int64
		strict    bool
		wantCode  string
		wantParam string
		wantType  string
	}{
		{
			name: "valid body",
			body: `{"street":"hauptstraße","houseNumber":"12a","ez":42}`,
		},
		{
			name:   "unknown field tolerated when lenient",
			body:   `{"street":"x","extra":true}`,
			strict: false,
		},
		{
			name:      "unknown field rejected when strict",
			body:      `{"street":"x","extra":true}`,
			strict:    true,
			wantCode:  types.CodeUnknownField,
			wantParam: "extra",
			wantType:  types.ErrorTypeInvalidRequest,
		},
		{
			name:      "wrong type",
			body:      `{"ez":"zweiundvierzig"}`,
			wantCode:  types.CodeInvalidValue,
			wantParam: "ez",
			wantType:  types.ErrorTypeInvalidRequest,
		},
		{
			name:      "malformed JSON",
			body:      `{"street":`,
			wantCode:  types.CodeInvalidJSON,
			wantParam: "body",
			wantType:  types.ErrorTypeInvalidRequest,
		},
		{
			name:      "empty body",
			body:      "   ",
			wantCode:  types.CodeMissingField,
			wantParam: "body",
			wantType:  types.ErrorTypeInvalidRequest,
		},
		{
			name:      "over the limit",
			body:      `{"street":"` + strings.Repeat("a", 64) + `"}`,
			limit:     32,
			wantCode:  types.CodeRequestTooLarge,
			wantParam: "body",
			wantType:  types.ErrorTypeRequestTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/address/normalize", strings.NewReader(tt.body))

			var in wizardInput
			err := DecodeJSON(req, tt.limit, &in, tt.strict)

			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("DecodeJSON() error = %v", err)
				}
				return
			}

			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("DecodeJSON() error = %v, want *RequestError", err)
			}
			if reqErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", reqErr.Code, tt.wantCode)
			}
			if reqErr.Param != tt.wantParam {
				t.Errorf("Param = %q, want %q", reqErr.Param, tt.wantParam)
			}
			if got := reqErr.ToErrorResponse().Error.Type; got != tt.wantType {
				t.Errorf("Type = %q, want %q", got, tt.wantType)
			}
		})
	}
}

func TestReadBody_ExactLimit(t *testing.T) {
	body := strings.Repeat("x", 16)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	got, err := ReadBody(req, 16)
	if err != nil {
		t.Fatalf("ReadBody() error = %v", err)
	}
	if string(got) != body {
		t.Errorf("ReadBody() = %q", got)
	}
}

func TestExtractRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := ExtractRequestID(req); got != "" {
		t.Errorf("ExtractRequestID() = %q, want empty", got)
	}
	req.Header.Set(RequestIDHeader, "req-1")
	if got := ExtractRequestID(req); got != "req-1" {
		t.Errorf("ExtractRequestID() = %q, want req-1", got)
	}
}
