package ledger

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process memory. It is the default backend and
// the fake used by tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records []SaleRecord
}

// NewMemoryStore creates a MemoryStore seeded with the given records.
func NewMemoryStore(seed ...SaleRecord) *MemoryStore {
	records := make([]SaleRecord, len(seed))
	copy(records, seed)
	return &MemoryStore{records: records}
}

func (s *MemoryStore) LoadAll(ctx context.Context) ([]SaleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SaleRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryStore) Append(ctx context.Context, rec SaleRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
