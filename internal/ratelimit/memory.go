package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// MemoryStore keeps window records in process memory.
// State is lost on restart and is not shared between instances.
type MemoryStore struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	records map[string]*Record
}

// NewMemoryStore creates an empty MemoryStore reading time from clock.
func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	return &MemoryStore{
		clock:   clock,
		records: make(map[string]*Record),
	}
}

// Hit starts a new window when none exists or the current one has passed
// its ResetAt, otherwise increments the count.
func (s *MemoryStore) Hit(_ context.Context, key string, window time.Duration) (Record, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || now.After(rec.ResetAt) {
		rec = &Record{Count: 1, ResetAt: now.Add(window)}
		s.records[key] = rec
		return *rec, nil
	}

	rec.Count++
	return *rec, nil
}

// Sweep deletes every record whose ResetAt has passed.
func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, rec := range s.records {
		if now.After(rec.ResetAt) {
			delete(s.records, key)
			removed++
		}
	}
	return removed, nil
}

// Get returns a copy of the record for key.
func (s *MemoryStore) Get(key string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Len returns the number of tracked identities.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
