// Package cache provides the ephemeral keyed store that carries composite
// assessments between pipeline stages invoked as separate requests. It is
// never a source of truth: entries expire by TTL and nothing survives a
// process restart.
package cache

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when a key is absent or its entry has expired.
var ErrNotFound = eris.New("cache: not found")

// Store is the injected cache contract. Implementations must be safe for
// concurrent use; key-level atomicity is sufficient.
type Store[V any] interface {
	Get(key string) (V, error)
	Set(key string, value V, ttl time.Duration)
	Delete(key string)
	Len() int
	Close()
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Memory is the in-process Store implementation. Expired entries are dropped
// lazily on Get and reclaimed by a periodic sweep.
type Memory[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	stop    chan struct{}
	once    sync.Once
}

// NewMemory creates a Memory store with the given default TTL and starts the
// sweep goroutine.
func NewMemory[V any](defaultTTL time.Duration) *Memory[V] {
	m := &Memory[V]{
		entries: make(map[string]entry[V]),
		ttl:     defaultTTL,
		stop:    make(chan struct{}),
	}
	go m.sweep(5 * time.Minute)
	return m
}

// Get returns the value for key, or ErrNotFound when absent or expired.
func (m *Memory[V]) Get(key string) (V, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	if time.Now().After(e.expiresAt) {
		m.Delete(key)
		var zero V
		return zero, ErrNotFound
	}
	return e.value, nil
}

// Set stores value under key. A non-positive ttl uses the store default.
func (m *Memory[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.ttl
	}
	m.mu.Lock()
	m.entries[key] = entry[V]{value: value, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
}

// Delete removes key.
func (m *Memory[V]) Delete(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// Len reports the number of entries, including any not yet swept.
func (m *Memory[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close stops the sweep goroutine.
func (m *Memory[V]) Close() {
	m.once.Do(func() { close(m.stop) })
}

// sweep rebuilds the map periodically so deleted entries release memory.
func (m *Memory[V]) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			fresh := make(map[string]entry[V], len(m.entries))
			for k, e := range m.entries {
				if now.Before(e.expiresAt) {
					fresh[k] = e
				}
			}
			m.entries = fresh
			m.mu.Unlock()
		case <-m.stop:
			return
		}
	}
}
