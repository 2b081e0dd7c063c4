package audit

import (
	"context"
	"sync"
)

// DefaultMemoryCapacity bounds the in-memory store when no capacity is
// given.
const DefaultMemoryCapacity = 10000

// MemoryStore keeps entries in a bounded slice with FIFO eviction.
// Writes are serialized by a mutex.
type MemoryStore struct {
	mu       sync.Mutex
	entries  []StoredLogEntry
	capacity int
}

// NewMemoryStore creates a MemoryStore holding at most capacity entries.
// capacity <= 0 selects DefaultMemoryCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{capacity: capacity}
}

// Write appends the entry, evicting the oldest when full.
func (s *MemoryStore) Write(ctx context.Context, entry StoredLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) >= s.capacity {
		s.entries = append(s.entries[:0:0], s.entries[len(s.entries)-s.capacity+1:]...)
	}
	s.entries = append(s.entries, entry)
	return nil
}

// Query returns entries matching the filter in write order.
func (s *MemoryStore) Query(ctx context.Context, f Filter) ([]StoredLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []StoredLogEntry
	for _, e := range s.entries {
		if f.matches(e) {
			matched = append(matched, e)
		}
	}
	return f.page(matched), nil
}

// Count returns the number of entries matching the filter, ignoring
// pagination.
func (s *MemoryStore) Count(ctx context.Context, f Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if f.matches(e) {
			n++
		}
	}
	return n, nil
}
