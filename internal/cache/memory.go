package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value    []byte
	storedAt time.Time
}

// Memory is an in-process Store with TTL expiry and a hard size bound.
// When full it evicts the entry that has been cached the longest.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
	hits       int64
	misses     int64

	// now is swappable so tests can control expiry.
	now func() time.Time
}

// NewMemory creates an in-memory cache with the given TTL and size bound.
// Non-positive arguments fall back to the defaults.
func NewMemory(ttl time.Duration, maxEntries int) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Memory{
		entries:    make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cached, ok := m.entries[key]
	if !ok {
		m.misses++
		return nil, false
	}
	if m.now().Sub(cached.storedAt) >= m.ttl {
		delete(m.entries, key)
		m.misses++
		return nil, false
	}

	m.hits++
	return cached.value, true
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictOldest()
	}
	m.entries[key] = entry{value: value, storedAt: m.now()}
}

func (m *Memory) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]entry)
}

func (m *Memory) Stats(ctx context.Context) Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		Entries: len(m.entries),
		Hits:    m.hits,
		Misses:  m.misses,
	}
}

// evictOldest drops the entry with the earliest store time. Caller holds mu.
func (m *Memory) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for key, cached := range m.entries {
		if first || cached.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = cached.storedAt
			first = false
		}
	}
	if !first {
		delete(m.entries, oldestKey)
	}
}
