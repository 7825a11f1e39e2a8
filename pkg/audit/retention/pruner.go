package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"grundbuch-online/portal/pkg/audit"
	"grundbuch-online/portal/pkg/config"
	"grundbuch-online/portal/pkg/telemetry/metrics"
)

// Pruner enforces retention on an audit store.
type Pruner struct {
	storage   audit.Storage
	config    config.RetentionConfig
	metrics   *metrics.Collector
	logger    *slog.Logger
	scheduler *Scheduler
	now       func() time.Time
}

// NewPruner creates a pruner. collector may be nil.
func NewPruner(storage audit.Storage, cfg config.RetentionConfig, collector *metrics.Collector) *Pruner {
	p := &Pruner{
		storage: storage,
		config:  cfg,
		metrics: collector,
		logger:  slog.Default().With("component", "audit.retention"),
		now:     time.Now,
	}
	p.scheduler = NewScheduler(p)
	return p
}

// Prune deletes records older than the retention period and then the
// oldest records beyond the record cap. It returns the total deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.Days > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += deleted
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += deleted
	}

	p.metrics.RecordAuditPruned(total)
	if total > 0 {
		p.logger.Info("audit pruning completed",
			"total_deleted", total,
			"retention_days", p.config.Days,
			"max_records", p.config.MaxRecords,
		)
	}
	return total, nil
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.now().AddDate(0, 0, -p.config.Days)
	deleted, err := p.storage.Delete(ctx, &audit.Query{EndTime: &cutoff})
	if err != nil {
		return 0, audit.NewRetentionError(p.config.Days, err)
	}
	return deleted, nil
}

func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &audit.Query{})
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	if count <= p.config.MaxRecords {
		return 0, nil
	}

	// The newest record that has to go marks the cutoff.
	excess := int(count - p.config.MaxRecords)
	oldest, err := p.storage.Query(ctx, &audit.Query{SortOrder: "asc", Limit: excess})
	if err != nil {
		return 0, fmt.Errorf("failed to query records: %w", err)
	}
	if len(oldest) == 0 {
		return 0, nil
	}
	cutoff := oldest[len(oldest)-1].RequestTime

	p.logger.Info("record count exceeds limit, pruning oldest",
		"current_count", count,
		"max_records", p.config.MaxRecords,
		"cutoff_time", cutoff,
	)

	deleted, err := p.storage.Delete(ctx, &audit.Query{EndTime: &cutoff})
	if err != nil {
		return 0, fmt.Errorf("delete failed: %w", err)
	}
	return deleted, nil
}

// Start starts the cron schedule.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the cron schedule.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the next scheduled run, or nil.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
