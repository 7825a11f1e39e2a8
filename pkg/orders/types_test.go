package orders

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validDraft() Draft {
	return Draft{
		Contact:  Contact{Name: "Maria Huber", Email: "maria@example.at"},
		Property: Property{KG: "01004", EZ: "123"},
		Products: Products{Current: true},
	}
}

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(d *Draft)
		wantField string
	}{
		{name: "valid", mutate: func(d *Draft) {}},
		{name: "missing name", mutate: func(d *Draft) { d.Contact.Name = " " }, wantField: "contact.name"},
		{name: "bad email", mutate: func(d *Draft) { d.Contact.Email = "maria" }, wantField: "contact.email"},
		{name: "short kg", mutate: func(d *Draft) { d.Property.KG = "1004" }, wantField: "property.kg"},
		{name: "zero ez", mutate: func(d *Draft) { d.Property.EZ = "0" }, wantField: "property.ez"},
		{name: "no products", mutate: func(d *Draft) { d.Products = Products{} }, wantField: "products"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			err := d.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			var fe *FieldError
			if !errors.As(err, &fe) || fe.Field != tt.wantField {
				t.Fatalf("Validate() error = %v, want field %s", err, tt.wantField)
			}
		})
	}
}

func TestGenerateNumber(t *testing.T) {
	now := time.Date(2025, 3, 7, 23, 30, 0, 0, time.UTC)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		n := GenerateNumber(now)
		if !ValidNumber(n) {
			t.Fatalf("GenerateNumber() = %q, not a valid order number", n)
		}
		if !strings.HasPrefix(n, "GB-20250307-") {
			t.Fatalf("GenerateNumber() = %q, wrong date part", n)
		}
		seen[n] = true
	}
	if len(seen) < 95 {
		t.Errorf("only %d distinct numbers out of 100", len(seen))
	}
}

func TestOrderApply(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	o := &Order{Status: StatusPending, PaymentStatus: PaymentUnpaid, Notes: "keep", CreatedAt: created}

	status := StatusCompleted
	o.Apply(Patch{Status: &status}, created.Add(time.Hour))

	if o.Status != StatusCompleted {
		t.Errorf("Status = %s", o.Status)
	}
	if o.PaymentStatus != PaymentUnpaid || o.Notes != "keep" {
		t.Error("unset patch fields must not change the order")
	}
	if !o.UpdatedAt.Equal(created.Add(time.Hour)) {
		t.Errorf("UpdatedAt = %v", o.UpdatedAt)
	}
}
