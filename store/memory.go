package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store with an optional byte quota.
type MemoryStore struct {
	mu       sync.RWMutex
	items    map[string]string
	used     int
	capacity int
}

// NewMemoryStore creates a store. capacity is the quota in bytes counted
// over keys and values; zero or negative means unlimited.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity < 0 {
		capacity = 0
	}
	return &MemoryStore{
		items:    make(map[string]string),
		capacity: capacity,
	}
}

// GetItem returns the value for key.
func (s *MemoryStore) GetItem(_ context.Context, key string) (string, bool) {
	s.mu.RLock()
	v, ok := s.items[key]
	s.mu.RUnlock()
	return v, ok
}

// SetItem stores value under key. A write that would exceed the quota
// fails with ErrQuotaExceeded and leaves the previous value in place.
func (s *MemoryStore) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.used + len(key) + len(value)
	if old, ok := s.items[key]; ok {
		next -= len(key) + len(old)
	}
	if s.capacity > 0 && next > s.capacity {
		return ErrQuotaExceeded
	}

	s.items[key] = value
	s.used = next
	return nil
}

// RemoveItem deletes key. Idempotent - no error on miss.
func (s *MemoryStore) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	if old, ok := s.items[key]; ok {
		s.used -= len(key) + len(old)
		delete(s.items, key)
	}
	s.mu.Unlock()
	return nil
}

// Keys returns a snapshot of the keys present.
func (s *MemoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	return keys, nil
}

// Len returns the number of keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Usage reports bytes used and the configured capacity (0 = unlimited).
func (s *MemoryStore) Usage() Usage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Usage{Used: s.used, Capacity: s.capacity}
}

// Usage describes how much of a store's quota is consumed.
type Usage struct {
	Used     int
	Capacity int
}

// Ratio returns Used/Capacity, or 0 when the store is unlimited.
func (u Usage) Ratio() float64 {
	if u.Capacity <= 0 {
		return 0
	}
	return float64(u.Used) / float64(u.Capacity)
}

// UsageReporter is implemented by stores that track a quota.
type UsageReporter interface {
	Usage() Usage
}

var (
	_ Store         = (*MemoryStore)(nil)
	_ UsageReporter = (*MemoryStore)(nil)
)
