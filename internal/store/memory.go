package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	record    Record
	alias     string
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an in-process Store. Expired entries are dropped lazily
// on read and swept on write.
func NewMemory() Store {
	return &memoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *memoryStore) Put(ctx context.Context, id string, rec Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	s.entries[recordKey(id)] = memoryEntry{record: rec, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memoryStore) Get(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	entry, ok := s.entries[recordKey(id)]
	s.mu.RUnlock()

	if !ok || s.now().After(entry.expiresAt) {
		return Record{}, ErrNotFound
	}
	return entry.record, nil
}

func (s *memoryStore) PutAlias(ctx context.Context, key, id string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{alias: id, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memoryStore) GetAlias(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || s.now().After(entry.expiresAt) {
		return "", ErrNotFound
	}
	return entry.alias, nil
}

func (s *memoryStore) Close() error { return nil }

func (s *memoryStore) sweepLocked() {
	now := s.now()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

func recordKey(id string) string {
	return "transcript:" + id
}
