package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"ruleout-server/internal/domain/guest"
)

type counterEntry struct {
	count     int64
	expiresAt time.Time
}

// MemoryCounter is a process local guest.Counter. The least recently used
// keys are evicted once size is reached.
type MemoryCounter struct {
	cache  *lru.Cache
	window time.Duration
	now    func() time.Time
	mu     sync.Mutex
}

var _ guest.Counter = (*MemoryCounter)(nil)

func NewMemoryCounter(size int, window time.Duration) (*MemoryCounter, error) {
	if size <= 0 {
		size = 10000
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &MemoryCounter{cache: cache, window: window, now: time.Now}, nil
}

func (m *MemoryCounter) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.load(key)
	if !ok {
		entry = counterEntry{}
		if m.window > 0 {
			entry.expiresAt = m.now().Add(m.window)
		}
	}
	entry.count++
	m.cache.Add(key, entry)
	return entry.count, nil
}

func (m *MemoryCounter) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.load(key)
	if !ok {
		return 0, nil
	}
	return entry.count, nil
}

func (m *MemoryCounter) Delete(_ context.Context, key string) error {
	m.cache.Remove(key)
	return nil
}

// load must be called with mu held.
func (m *MemoryCounter) load(key string) (counterEntry, bool) {
	raw, ok := m.cache.Get(key)
	if !ok {
		return counterEntry{}, false
	}
	entry := raw.(counterEntry)
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		m.cache.Remove(key)
		return counterEntry{}, false
	}
	return entry, true
}
