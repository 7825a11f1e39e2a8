package orders_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"grundbuch-online/portal/pkg/address"
	"grundbuch-online/portal/pkg/orders"
	"grundbuch-online/portal/pkg/orders/store"
)

type recordingNotifier struct {
	mu     sync.Mutex
	orders []string
	err    error
}

func (n *recordingNotifier) OrderCreated(ctx context.Context, o *orders.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, o.Number)
	return n.err
}

func newService(t *testing.T, n orders.Notifier) *orders.Service {
	t.Helper()
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	return orders.NewService(store.NewMemoryStore(),
		orders.WithNotifier(n),
		orders.WithClock(func() time.Time { return now }),
	)
}

func TestService_Create(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("webhook down")}
	svc := newService(t, notifier)

	o, err := svc.Create(context.Background(), orders.Draft{
		Contact: orders.Contact{Name: "Maria Huber", Email: "maria@example.at"},
		Property: orders.Property{
			KG:      "01004",
			EZ:      "77",
			Address: &address.Normalized{Street: "Mariahilfer Straße", HouseNumber: "12/3/7", City: "Wien"},
		},
		Products: orders.Products{Current: true, Deeds: true},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if o.Status != orders.StatusPending || o.PaymentStatus != orders.PaymentUnpaid {
		t.Errorf("new order state = %s/%s", o.Status, o.PaymentStatus)
	}
	if !orders.ValidNumber(o.Number) {
		t.Errorf("Number = %q", o.Number)
	}
	want := address.HouseNumber{HouseNumber: "12", Stairway: "3", DoorNumber: "7"}
	if o.Property.Parts != want {
		t.Errorf("Parts = %+v, want %+v", o.Property.Parts, want)
	}
	if len(notifier.orders) != 1 || notifier.orders[0] != o.Number {
		t.Errorf("notifier saw %v", notifier.orders)
	}

	byNumber, err := svc.Get(context.Background(), o.Number)
	if err != nil || byNumber.ID != o.ID {
		t.Fatalf("Get(number) = %v, %v", byNumber, err)
	}
}

func TestService_CreateInvalid(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := newService(t, notifier)

	_, err := svc.Create(context.Background(), orders.Draft{})
	var fe *orders.FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("Create() error = %v, want *FieldError", err)
	}
	if len(notifier.orders) != 0 {
		t.Error("invalid draft must not be dispatched")
	}
}

func TestService_Update(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	o, err := svc.Create(ctx, orders.Draft{
		Contact:  orders.Contact{Name: "A", Email: "a@example.at"},
		Property: orders.Property{KG: "63101", EZ: "5"},
		Products: orders.Products{Historical: true},
	})
	if err != nil {
		t.Fatal(err)
	}

	p, err := orders.ParsePatch([]byte(`{"status":"completed","payment_status":"paid"}`))
	if err != nil {
		t.Fatal(err)
	}
	updated, err := svc.Update(ctx, o.Number, p)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != orders.StatusCompleted || updated.PaymentStatus != orders.PaymentPaid {
		t.Errorf("updated = %s/%s", updated.Status, updated.PaymentStatus)
	}

	if _, err := svc.Update(ctx, "missing", p); !errors.Is(err, orders.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Update(ctx, o.ID, orders.Patch{}); err == nil {
		t.Error("empty patch must be rejected")
	}
}
