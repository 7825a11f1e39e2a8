package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"grundbuch-online/portal/pkg/config"
	"grundbuch-online/portal/pkg/orders"
	"grundbuch-online/portal/pkg/telemetry/logging"
	"grundbuch-online/portal/pkg/telemetry/metrics"
)

const (
	sweepBatch = 100
	maxBackoff = 6 * time.Hour
)

// Dispatcher owns the outbox and delivers tasks.
type Dispatcher struct {
	outbox      Outbox
	sender      Sender
	maxAttempts int
	backoff     time.Duration
	schedule    string
	metrics     *metrics.Collector
	now         func() time.Time
	logger      *slog.Logger

	sweepMu  sync.Mutex
	wake     chan struct{}
	stop     chan struct{}
	wg       sync.WaitGroup
	cron     *cron.Cron
	runMu    sync.Mutex
	running  bool
	stopOnce sync.Once
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMetrics sets the metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(d *Dispatcher) { d.metrics = c }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// New creates a Dispatcher. It does nothing until Start is called, except
// that Sweep can be driven by hand.
func New(outbox Outbox, sender Sender, cfg config.DispatchConfig, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		outbox:      outbox,
		sender:      sender,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.InitialBackoff,
		schedule:    cfg.SweepSchedule,
		now:         time.Now,
		logger:      slog.Default().With("component", "dispatch"),
		wake:        make(chan struct{}, 1),
		stop:        make(chan struct{}),
		cron:        cron.New(),
	}
	if d.maxAttempts <= 0 {
		d.maxAttempts = config.DefaultDispatchMaxAttempts
	}
	if d.backoff <= 0 {
		d.backoff = config.DefaultDispatchBackoff
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue adds a task for orderNumber and kind. Enqueueing an existing
// pair is a no-op and reports false.
func (d *Dispatcher) Enqueue(ctx context.Context, orderNumber string, kind Kind, payload any) (bool, error) {
	if !kind.Valid() {
		return false, fmt.Errorf("unknown task kind %q", kind)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("failed to encode payload: %w", err)
	}

	now := d.now().UTC()
	created, err := d.outbox.Enqueue(ctx, &Task{
		ID:          uuid.New().String(),
		OrderNumber: orderNumber,
		Kind:        kind,
		Payload:     body,
		Status:      StatusPending,
		NextAttempt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return false, err
	}
	if created {
		d.logger.DebugContext(ctx, "task enqueued", "order_number", orderNumber, "kind", kind)
		d.Wake()
	}
	return created, nil
}

// taskPayload is what downstream webhooks receive.
type taskPayload struct {
	Kind  Kind          `json:"kind"`
	Order *orders.Order `json:"order"`
}

// OrderCreated enqueues the email and invoice tasks for o.
func (d *Dispatcher) OrderCreated(ctx context.Context, o *orders.Order) error {
	for _, kind := range Kinds {
		if _, err := d.Enqueue(ctx, o.Number, kind, taskPayload{Kind: kind, Order: o}); err != nil {
			return fmt.Errorf("enqueue %s: %w", kind, err)
		}
	}
	return nil
}

// Task returns the outbox entry for an order and kind.
func (d *Dispatcher) Task(ctx context.Context, orderNumber string, kind Kind) (*Task, error) {
	return d.outbox.Get(ctx, orderNumber, kind)
}

// Wake asks the worker to drain the outbox.
func (d *Dispatcher) Wake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Sweep attempts every due task once and returns how many were delivered.
// Due tasks are loaded in batches until the outbox runs dry; a batch holding
// only tasks already attempted in this sweep ends it.
func (d *Dispatcher) Sweep(ctx context.Context) (int, error) {
	d.sweepMu.Lock()
	defer d.sweepMu.Unlock()

	delivered := 0
	seen := make(map[string]struct{})
	for {
		due, err := d.outbox.Due(ctx, d.now().UTC(), sweepBatch)
		if err != nil {
			return delivered, fmt.Errorf("failed to load due tasks: %w", err)
		}

		fresh := 0
		for _, t := range due {
			if ctx.Err() != nil {
				return delivered, ctx.Err()
			}
			if _, ok := seen[t.ID]; ok {
				continue
			}
			seen[t.ID] = struct{}{}
			fresh++
			if d.attempt(ctx, t) {
				delivered++
			}
		}

		if len(due) < sweepBatch || fresh == 0 {
			return delivered, nil
		}
	}
}

func (d *Dispatcher) attempt(ctx context.Context, t *Task) bool {
	ctx = logging.WithOrderNumber(ctx, t.OrderNumber)
	err := d.sender.Send(ctx, t)

	now := d.now().UTC()
	t.Attempts++
	t.UpdatedAt = now

	var outcome string
	switch {
	case err == nil:
		t.Status = StatusDelivered
		t.LastError = ""
		outcome = "delivered"
	case t.Attempts >= d.maxAttempts:
		t.Status = StatusFailed
		t.LastError = err.Error()
		outcome = "failed"
	default:
		t.LastError = err.Error()
		t.NextAttempt = now.Add(d.backoffFor(t.Attempts))
		outcome = "retry"
	}
	d.metrics.RecordDispatch(string(t.Kind), outcome)

	if saveErr := d.outbox.Save(ctx, t); saveErr != nil {
		d.logger.ErrorContext(ctx, "failed to save task state", "kind", t.Kind, "error", saveErr)
	}

	switch outcome {
	case "delivered":
		d.logger.InfoContext(ctx, "task delivered", "kind", t.Kind, "attempts", t.Attempts)
	case "failed":
		d.logger.ErrorContext(ctx, "task failed permanently", "kind", t.Kind, "attempts", t.Attempts, "error", err)
	default:
		d.logger.WarnContext(ctx, "task delivery failed, will retry",
			"kind", t.Kind,
			"attempts", t.Attempts,
			"next_attempt", t.NextAttempt,
			"error", err,
		)
	}
	return err == nil
}

// backoffFor returns the delay after the n-th failed attempt.
func (d *Dispatcher) backoffFor(n int) time.Duration {
	delay := d.backoff
	for i := 1; i < n; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// Start runs the worker and the redelivery sweep until ctx is done or
// Stop is called. Due tasks left over from a previous run are picked up
// right away.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	if d.running {
		return nil
	}

	if d.schedule != "" {
		if _, err := cron.ParseStandard(d.schedule); err != nil {
			return fmt.Errorf("invalid sweep schedule %q: %w", d.schedule, err)
		}
		if _, err := d.cron.AddFunc(d.schedule, d.Wake); err != nil {
			return fmt.Errorf("failed to schedule sweep: %w", err)
		}
		d.cron.Start()
	}
	d.running = true

	d.wg.Add(1)
	go d.loop(ctx)
	d.Wake()

	d.logger.Info("dispatcher started", "sweep_schedule", d.schedule, "max_attempts", d.maxAttempts)
	return nil
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stop:
			return
		case <-d.wake:
			if _, err := d.Sweep(ctx); err != nil && ctx.Err() == nil {
				d.logger.Error("sweep failed", "error", err)
			}
		}
	}
}

// Stop halts the worker and the schedule and waits for a running sweep.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.stop)
		<-d.cron.Stop().Done()
		d.wg.Wait()
		d.logger.Info("dispatcher stopped")
	})
}

// Close stops the dispatcher and closes the outbox.
func (d *Dispatcher) Close() error {
	d.Stop()
	return d.outbox.Close()
}
