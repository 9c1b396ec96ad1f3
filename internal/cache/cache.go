// Package cache memoizes derived data (dashboards, reports, CSV bodies) for
// the HTTP layer. Keys embed the state revision they were computed from, so
// any write makes old entries unreachable and the TTL only bounds memory.
package cache

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

// RevisionKey builds a key scoped to a state revision.
func RevisionKey(revision uint64, parts ...string) string {
	return strconv.FormatUint(revision, 10) + ":" + strings.Join(parts, ":")
}

// GetOrCompute returns the cached value for key or stores and returns
// compute's result. Concurrent misses may compute twice; the last one wins.
func GetOrCompute[T any](c Cache[T], key string, compute func() T) T {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := compute()
	c.Set(key, v)
	return v
}

// Manager handles cache lifecycle and cleanup
type Manager struct {
	log      *slog.Logger
	mu       sync.Mutex
	caches   []Cleaner
	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		log:  logger,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(cache Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanAll(); n > 0 {
				m.log.Debug("Cache cleanup completed", "entries_removed", n)
			}
		case <-m.stop:
			return
		}
	}
}

// CleanAll drops expired entries from every registered cache.
func (m *Manager) CleanAll() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()
	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop ends the cleanup routine started by StartCleanup and waits for it.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.mu.Lock()
		started := m.started
		m.mu.Unlock()
		if started {
			<-m.done
		}
	})
}
