package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"grundbuch-online/portal/pkg/orders"
	"grundbuch-online/portal/pkg/orders/store"
	"grundbuch-online/portal/pkg/proxy/types"
)

const validDraft = `{
	"contact": {"name": "Maria Huber", "email": "maria.huber@example.at"},
	"property": {"kg": "01004", "ez": "123", "address": {"street": "Hauptstraße", "houseNumber": "5/2", "city": "Wien", "isLocality": false}},
	"products": {"current": true}
}`

func newOrdersMux(t *testing.T) (*http.ServeMux, *orders.Service) {
	t.Helper()
	clock := time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)
	svc := orders.NewService(store.NewMemoryStore(), orders.WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))
	h := NewOrdersHandler(svc, 0)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/orders", h.Create)
	mux.HandleFunc("GET /api/orders", h.List)
	mux.HandleFunc("GET /api/orders/{id}", h.Get)
	mux.HandleFunc("PATCH /api/orders/{id}", h.Update)
	return mux, svc
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorDetail {
	t.Helper()
	var resp types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body is not an error response: %v (%s)", err, w.Body.String())
	}
	return resp.Error
}

func TestOrdersHandler_Create(t *testing.T) {
	mux, svc := newOrdersMux(t)

	w := do(t, mux, http.MethodPost, "/api/orders", validDraft)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var created types.OrderCreated
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if !orders.ValidNumber(created.OrderNumber) {
		t.Errorf("order number %q malformed", created.OrderNumber)
	}
	if !strings.HasPrefix(created.OrderNumber, "GB-20240517-") {
		t.Errorf("order number %q does not carry the creation date", created.OrderNumber)
	}
	if created.Status != orders.StatusPending {
		t.Errorf("status = %q", created.Status)
	}
	if loc := w.Header().Get("Location"); loc != "/api/orders/"+created.ID {
		t.Errorf("Location = %q", loc)
	}

	o, err := svc.Get(t.Context(), created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if o.Property.Parts.HouseNumber != "5" || o.Property.Parts.DoorNumber != "2" {
		t.Errorf("parts = %+v", o.Property.Parts)
	}
}

func TestOrdersHandler_CreateRejects(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantParam string
		wantCode  string
	}{
		{
			name:      "bad kg",
			body:      strings.Replace(validDraft, `"01004"`, `"1004"`, 1),
			wantParam: "property.kg",
			wantCode:  types.CodeInvalidValue,
		},
		{
			name:      "no product",
			body:      strings.Replace(validDraft, `"current": true`, `"current": false`, 1),
			wantParam: "products",
			wantCode:  types.CodeInvalidValue,
		},
		{
			name:      "missing name",
			body:      strings.Replace(validDraft, `"Maria Huber"`, `""`, 1),
			wantParam: "contact.name",
			wantCode:  types.CodeMissingField,
		},
		{
			name:      "client-chosen status",
			body:      strings.Replace(validDraft, `"products"`, `"status": "completed", "products"`, 1),
			wantParam: "status",
			wantCode:  types.CodeUnknownField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, _ := newOrdersMux(t)
			w := do(t, mux, http.MethodPost, "/api/orders", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (%s)", w.Code, w.Body.String())
			}
			e := decodeError(t, w)
			if e.Param != tt.wantParam || e.Code != tt.wantCode {
				t.Errorf("param/code = %q/%q, want %q/%q", e.Param, e.Code, tt.wantParam, tt.wantCode)
			}
		})
	}
}

func TestOrdersHandler_GetAndPatch(t *testing.T) {
	mux, _ := newOrdersMux(t)

	var created types.OrderCreated
	_ = json.Unmarshal(do(t, mux, http.MethodPost, "/api/orders", validDraft).Body.Bytes(), &created)

	for _, id := range []string{created.ID, created.OrderNumber} {
		w := do(t, mux, http.MethodGet, "/api/orders/"+id, "")
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d", id, w.Code)
		}
	}

	patch := `{"status":"completed","payment_status":"paid","notes":"sent by mail",
		"documents":[{"name":"auszug.pdf","url":"https://files.example.at/a.pdf","storage_path":"orders/a.pdf","type":"application/pdf","size":2048,"timestamp":"2024-05-17T10:00:00Z"}]}`
	w := do(t, mux, http.MethodPatch, "/api/orders/"+created.OrderNumber, patch)
	if w.Code != http.StatusOK {
		t.Fatalf("PATCH status = %d (%s)", w.Code, w.Body.String())
	}

	var o orders.Order
	if err := json.Unmarshal(w.Body.Bytes(), &o); err != nil {
		t.Fatal(err)
	}
	if o.Status != orders.StatusCompleted || o.PaymentStatus != orders.PaymentPaid {
		t.Errorf("status = %q/%q", o.Status, o.PaymentStatus)
	}
	if len(o.Documents) != 1 || o.Documents[0].Size != 2048 {
		t.Errorf("documents = %+v", o.Documents)
	}
	if o.Notes != "sent by mail" {
		t.Errorf("notes = %q", o.Notes)
	}
}

func TestOrdersHandler_PatchRejects(t *testing.T) {
	mux, _ := newOrdersMux(t)

	var created types.OrderCreated
	_ = json.Unmarshal(do(t, mux, http.MethodPost, "/api/orders", validDraft).Body.Bytes(), &created)
	path := "/api/orders/" + created.ID

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantParam  string
	}{
		{name: "non-whitelisted field", body: `{"contact":{"name":"x"}}`, wantStatus: http.StatusBadRequest, wantParam: "contact"},
		{name: "order number", body: `{"order_number":"GB-20990101-AAAAAA"}`, wantStatus: http.StatusBadRequest, wantParam: "order_number"},
		{name: "bad status", body: `{"status":"shipped"}`, wantStatus: http.StatusBadRequest, wantParam: "status"},
		{name: "document without url", body: `{"documents":[{"name":"a","storage_path":"p","size":1}]}`, wantStatus: http.StatusBadRequest, wantParam: "documents.url"},
		{name: "empty object", body: `{}`, wantStatus: http.StatusBadRequest, wantParam: "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, mux, http.MethodPatch, path, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if e := decodeError(t, w); e.Param != tt.wantParam {
				t.Errorf("param = %q, want %q", e.Param, tt.wantParam)
			}
		})
	}

	w := do(t, mux, http.MethodGet, path, "")
	var o orders.Order
	_ = json.Unmarshal(w.Body.Bytes(), &o)
	if o.Status != orders.StatusPending {
		t.Errorf("rejected patches changed the order: status %q", o.Status)
	}
}

func TestOrdersHandler_NotFound(t *testing.T) {
	mux, _ := newOrdersMux(t)

	for _, path := range []string{"/api/orders/7f1c2a9e-0000-4000-8000-000000000000", "/api/orders/GB-20240101-ZZZZZZ"} {
		w := do(t, mux, http.MethodGet, path, "")
		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, w.Code)
		}
	}
	w := do(t, mux, http.MethodPatch, "/api/orders/GB-20240101-ZZZZZZ", `{"notes":"x"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("PATCH status = %d, want 404", w.Code)
	}
}

func TestOrdersHandler_List(t *testing.T) {
	mux, _ := newOrdersMux(t)

	var first types.OrderCreated
	for i := 0; i < 3; i++ {
		w := do(t, mux, http.MethodPost, "/api/orders", validDraft)
		if i == 0 {
			_ = json.Unmarshal(w.Body.Bytes(), &first)
		}
	}
	do(t, mux, http.MethodPatch, "/api/orders/"+first.ID, `{"status":"processing"}`)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCount  int
	}{
		{name: "all", query: "", wantStatus: http.StatusOK, wantCount: 3},
		{name: "by status", query: "?status=processing", wantStatus: http.StatusOK, wantCount: 1},
		{name: "paged", query: "?limit=2&offset=2", wantStatus: http.StatusOK, wantCount: 1},
		{name: "unknown status", query: "?status=lost", wantStatus: http.StatusBadRequest},
		{name: "limit too large", query: "?limit=5000", wantStatus: http.StatusBadRequest},
		{name: "negative offset", query: "?offset=-1", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, mux, http.MethodGet, "/api/orders"+tt.query, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var list types.OrderList
			if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
				t.Fatal(err)
			}
			if list.Count != tt.wantCount || len(list.Orders) != tt.wantCount {
				t.Errorf("count = %d (%d orders), want %d", list.Count, len(list.Orders), tt.wantCount)
			}
		})
	}
}
