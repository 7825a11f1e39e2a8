package recorder

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"grundbuch-online/portal/pkg/audit"
	"grundbuch-online/portal/pkg/audit/storage"
	"grundbuch-online/portal/pkg/config"
	"grundbuch-online/portal/pkg/telemetry/metrics"
)

func TestRecorder_RecordAndClose(t *testing.T) {
	store := storage.NewMemoryStorage()
	rec := New(store, &Config{AsyncBuffer: 10, WriteTimeout: time.Second}, nil)

	for i := 0; i < 5; i++ {
		if err := rec.Record(context.Background(), &audit.Record{Action: "authenticate", Environment: "test"}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}

	n, _ := store.Count(context.Background(), &audit.Query{})
	if n != 5 {
		t.Errorf("stored %d records, want 5", n)
	}

	records, _ := store.Query(context.Background(), &audit.Query{Limit: 1})
	if records[0].ID == "" || records[0].RequestTime.IsZero() {
		t.Errorf("ID and RequestTime should be filled in: %+v", records[0])
	}
}

func TestRecorder_RecordAfterClose(t *testing.T) {
	rec := New(storage.NewMemoryStorage(), nil, nil)
	rec.Close()

	err := rec.Record(context.Background(), &audit.Record{})
	var recErr *audit.RecorderError
	if !errors.As(err, &recErr) || !errors.Is(err, context.Canceled) {
		t.Errorf("expected canceled RecorderError, got %v", err)
	}
}

// blockingStorage holds every Store call until release is closed.
type blockingStorage struct {
	*storage.MemoryStorage
	release chan struct{}
	once    sync.Once
	started chan struct{}
}

func (b *blockingStorage) Store(ctx context.Context, r *audit.Record) error {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return b.MemoryStorage.Store(ctx, r)
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	store := &blockingStorage{
		MemoryStorage: storage.NewMemoryStorage(),
		release:       make(chan struct{}),
		started:       make(chan struct{}),
	}
	collector := metrics.NewCollector(config.MetricsConfig{Enabled: true, Namespace: "test"}, prometheus.NewRegistry())
	rec := New(store, &Config{AsyncBuffer: 1, WriteTimeout: time.Second}, collector)

	// first record is taken by the worker and blocks it
	if err := rec.Record(context.Background(), &audit.Record{}); err != nil {
		t.Fatal(err)
	}
	<-store.started

	// second fills the buffer
	if err := rec.Record(context.Background(), &audit.Record{}); err != nil {
		t.Fatal(err)
	}
	// third is dropped
	if err := rec.Record(context.Background(), &audit.Record{}); err == nil {
		t.Fatal("expected drop error")
	}

	close(store.release)
	rec.Close()

	expected := `
# HELP test_audit_dropped_total Audit records dropped because the recorder buffer was full.
# TYPE test_audit_dropped_total counter
test_audit_dropped_total 1
`
	if err := testutil.GatherAndCompare(collector.Registry(), strings.NewReader(expected), "test_audit_dropped_total"); err != nil {
		t.Error(err)
	}
	if n, _ := store.Count(context.Background(), &audit.Query{}); n != 2 {
		t.Errorf("stored %d, want 2", n)
	}
}

func TestHashContent(t *testing.T) {
	if HashContent(nil) != "" {
		t.Error("empty content should hash to empty string")
	}
	if got := HashContent([]byte("abc")); got != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("HashContent(abc) = %s", got)
	}
}
