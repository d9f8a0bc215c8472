package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryBackend is an in-process Backend used in development and tests
type MemoryBackend struct {
	mu    sync.RWMutex
	store map[string]memoryEntry
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryBackend creates a backend that drops expired entries every
// cleanupInterval. A zero interval disables the cleanup goroutine.
func NewMemoryBackend(cleanupInterval time.Duration) *MemoryBackend {
	m := &MemoryBackend{
		store: make(map[string]memoryEntry),
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go m.startCleanup(cleanupInterval)
	}
	return m
}

// Get returns a copy of the stored bytes
func (m *MemoryBackend) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.store[key]
	if !ok {
		return nil, ErrNotFound
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		return nil, ErrNotFound
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set replaces any previous value for key
func (m *MemoryBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	entry := memoryEntry{value: stored}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.store[key] = entry
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired or not
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}

// Close stops the cleanup goroutine
func (m *MemoryBackend) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}

func (m *MemoryBackend) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.stop:
			return
		}
	}
}

func (m *MemoryBackend) cleanup() int {
	now := m.now()
	count := 0

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, entry := range m.store {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(m.store, key)
			count++
		}
	}
	return count
}
