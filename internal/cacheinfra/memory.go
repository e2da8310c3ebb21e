package cacheinfra

import (
	"context"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an unbounded in-process store honoring per-entry TTLs.
// Expired entries are dropped lazily on read.
type MemoryStore struct {
	entries    *xsync.MapOf[string, memoryEntry]
	defaultTTL time.Duration
	now        func() time.Time
}

// NewMemoryStore creates an empty store. Writes without a TTL use defaultTTL;
// a non-positive defaultTTL keeps such entries forever.
func NewMemoryStore(defaultTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		entries:    xsync.NewMapOf[string, memoryEntry](),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source; used by tests to expire entries.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) load(key string) ([]byte, bool) {
	entry, ok := s.entries.Load(key)
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		s.entries.Delete(key)
		return nil, false
	}
	return entry.value, true
}

func (s *MemoryStore) store(key string, value []byte, ttl time.Duration) {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl = effectiveTTL(ttl, s.defaultTTL); ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.entries.Store(key, entry)
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := s.load(key)
	return value, ok, nil
}

func (s *MemoryStore) GetMulti(_ context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if value, ok := s.load(key); ok {
			out[key] = value
		}
	}
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.store(key, value, ttl)
	return nil
}

func (s *MemoryStore) SetMulti(_ context.Context, items map[string][]byte, ttl time.Duration) error {
	for key, value := range items {
		s.store(key, value, ttl)
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.entries.Delete(key)
	return nil
}

func (s *MemoryStore) DeleteByPrefix(_ context.Context, prefix string) error {
	s.entries.Range(func(key string, _ memoryEntry) bool {
		if strings.HasPrefix(key, prefix) {
			s.entries.Delete(key)
		}
		return true
	})
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	return s.entries.Size()
}
