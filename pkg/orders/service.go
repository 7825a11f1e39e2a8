package orders

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"grundbuch-online/portal/pkg/address"
	"grundbuch-online/portal/pkg/telemetry/logging"
	"grundbuch-online/portal/pkg/telemetry/metrics"
)

// Notifier is told about every new order. Dispatch implements it; a
// notification failure never fails the order.
type Notifier interface {
	OrderCreated(ctx context.Context, o *Order) error
}

// Service creates and updates orders on top of a Store.
type Service struct {
	store    Store
	notifier Notifier
	metrics  *metrics.Collector
	now      func() time.Time
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithNotifier registers the new-order hook.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// WithMetrics sets the metrics collector.
func WithMetrics(c *metrics.Collector) ServiceOption {
	return func(s *Service) { s.metrics = c }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		now:    time.Now,
		logger: slog.Default().With("component", "orders"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates d and stores it as a new pending, unpaid order.
func (s *Service) Create(ctx context.Context, d Draft) (*Order, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if d.Property.Parts.HouseNumber == "" && d.Property.Address != nil {
		d.Property.Parts = address.ParseHouseNumber(d.Property.Address.HouseNumber)
	}

	now := s.now().UTC()
	o := &Order{
		ID:            uuid.New().String(),
		Number:        GenerateNumber(now),
		Contact:       d.Contact,
		Property:      d.Property,
		Products:      d.Products,
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
		Documents:     []Document{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}
	s.metrics.RecordOrderCreated()

	ctx = logging.WithOrderNumber(ctx, o.Number)
	s.logger.InfoContext(ctx, "order created",
		"order_id", o.ID,
		"kg", o.Property.KG,
		"ez", o.Property.EZ,
	)

	if s.notifier != nil {
		if err := s.notifier.OrderCreated(ctx, o); err != nil {
			s.logger.WarnContext(ctx, "order notification failed", "error", err)
		}
	}
	return o, nil
}

// Get returns the order with id. A value shaped like an order number is
// looked up by number instead.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	if ValidNumber(id) {
		return s.store.GetByNumber(ctx, id)
	}
	return s.store.Get(ctx, id)
}

// List returns orders matching f, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]*Order, error) {
	return s.store.List(ctx, f)
}

// Update applies an admin patch.
func (s *Service) Update(ctx context.Context, id string, p Patch) (*Order, error) {
	if p.Empty() {
		return nil, &FieldError{Field: "body", Reason: "no updatable field present"}
	}
	if p.Documents != nil {
		for _, d := range *p.Documents {
			if err := d.Validate(); err != nil {
				return nil, err
			}
		}
	}

	target := id
	if ValidNumber(id) {
		o, err := s.store.GetByNumber(ctx, id)
		if err != nil {
			return nil, err
		}
		target = o.ID
	}

	o, err := s.store.Update(ctx, target, p, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if p.Status != nil {
		s.metrics.RecordOrderStatus(string(*p.Status))
	}
	s.logger.InfoContext(logging.WithOrderNumber(ctx, o.Number), "order updated",
		"order_id", o.ID,
		"status", o.Status,
		"payment_status", o.PaymentStatus,
	)
	return o, nil
}
