package storage

import (
	"context"
	"sort"
	"sync"

	"grundbuch-online/portal/pkg/audit"
)

// MemoryStorage keeps records in a map.
type MemoryStorage struct {
	records map[string]*audit.Record
	mu      sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*audit.Record),
	}
}

// Store saves a copy of record.
func (s *MemoryStorage) Store(ctx context.Context, record *audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recordCopy := *record
	s.records[record.ID] = &recordCopy
	return nil
}

// Query returns copies of matching records, newest first unless the query
// asks for ascending order.
func (s *MemoryStorage) Query(ctx context.Context, query *audit.Query) ([]*audit.Record, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	results := make([]*audit.Record, 0, len(s.records))
	for _, record := range s.records {
		if query.Matches(record) {
			recordCopy := *record
			results = append(results, &recordCopy)
		}
	}
	s.mu.RUnlock()

	asc := query.SortOrder == "asc"
	sort.Slice(results, func(i, j int) bool {
		if asc {
			return results[i].RequestTime.Before(results[j].RequestTime)
		}
		return results[i].RequestTime.After(results[j].RequestTime)
	})

	start := query.Offset
	if start > len(results) {
		return []*audit.Record{}, nil
	}
	results = results[start:]
	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}
	return results, nil
}

// Count returns the number of matching records.
func (s *MemoryStorage) Count(ctx context.Context, query *audit.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if query.Matches(record) {
			count++
		}
	}
	return count, nil
}

// Delete removes matching records.
func (s *MemoryStorage) Delete(ctx context.Context, query *audit.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if query.Matches(record) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close is a no-op.
func (s *MemoryStorage) Close() error {
	return nil
}
