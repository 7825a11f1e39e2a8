package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"grundbuch-online/portal/pkg/audit"
	"grundbuch-online/portal/pkg/telemetry/metrics"
)

// Config contains configuration for the recorder.
type Config struct {
	// AsyncBuffer is the size of the write channel.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout bounds one storage write.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder queues audit records for background storage.
type Recorder struct {
	storage    audit.Storage
	config     *Config
	metrics    *metrics.Collector
	recordChan chan *audit.Record
	wg         sync.WaitGroup
	done       chan struct{}
	closeOnce  sync.Once
	logger     *slog.Logger
}

// New creates a recorder and starts its worker. collector may be nil.
func New(storage audit.Storage, config *Config, collector *metrics.Collector) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = DefaultConfig().AsyncBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}

	r := &Recorder{
		storage:    storage,
		config:     config,
		metrics:    collector,
		recordChan: make(chan *audit.Record, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "audit.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("audit recorder initialized",
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)
	return r
}

// Record enqueues record without blocking. Missing IDs and timestamps are
// filled in.
func (r *Recorder) Record(ctx context.Context, record *audit.Record) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.RequestTime.IsZero() {
		record.RequestTime = time.Now()
	}

	select {
	case <-r.done:
		return audit.NewRecorderError(record.ID, context.Canceled)
	default:
	}

	select {
	case r.recordChan <- record:
		return nil
	default:
		r.metrics.RecordAuditDropped()
		r.logger.WarnContext(ctx, "audit channel full, dropping record",
			"record_id", record.ID,
			"action", record.Action,
			"channel_capacity", r.config.AsyncBuffer,
		)
		return audit.NewRecorderError(record.ID, context.DeadlineExceeded)
	}
}

// Close stops accepting records and waits until the queue is drained.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
		r.logger.Info("audit recorder shut down")
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)
		case <-r.done:
			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) writeRecord(record *audit.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store audit record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"error", err,
		)
		return
	}

	if d := time.Since(start); d > r.config.WriteTimeout/2 {
		r.logger.Warn("slow audit write",
			"record_id", record.ID,
			"duration_ms", d.Milliseconds(),
		)
	}
}
