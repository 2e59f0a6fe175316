package availcache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	available bool
	expiresAt time.Time
}

// MemoryStore keeps availability answers in process memory until they expire.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a store whose entries live for ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a cached answer. Expired entries read as misses; Sweep removes them.
func (s *MemoryStore) Get(_ context.Context, domain string) (bool, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[strings.ToLower(domain)]
	if !ok || !s.now().Before(e.expiresAt) {
		return false, false, nil
	}
	return e.available, true, nil
}

// Put stores an answer for the configured TTL.
func (s *MemoryStore) Put(_ context.Context, domain string, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[strings.ToLower(domain)] = memoryEntry{available: available, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for domain, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, domain)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
