package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	audio     []byte
	createdAt time.Time
}

// Memory is an in-process bounded TTL cache. Expired entries are purged on
// access rather than swept; insertion at capacity evicts the entry with the
// oldest creation timestamp first.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry

	maxSize int
	ttl     time.Duration
	clock   func() time.Time
}

func NewMemory(maxSize int, ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]entry),
		maxSize: maxSize,
		ttl:     ttl,
		clock:   time.Now,
	}
}

func (m *Memory) Lookup(_ context.Context, text string) ([]byte, bool) {
	key := Fingerprint(text)

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.clock().Sub(e.createdAt) >= m.ttl {
		delete(m.entries, key)
		return nil, false
	}
	return e.audio, true
}

func (m *Memory) Store(_ context.Context, text string, audio []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) >= m.maxSize {
		var oldestKey string
		var oldest time.Time
		for k, e := range m.entries {
			if oldestKey == "" || e.createdAt.Before(oldest) {
				oldestKey = k
				oldest = e.createdAt
			}
		}
		delete(m.entries, oldestKey)
	}

	m.entries[Fingerprint(text)] = entry{audio: audio, createdAt: m.clock()}
}

// Len reports the number of physically present entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
