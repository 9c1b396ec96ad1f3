package cache

import (
	"container/list"
	"strconv"
	"strings"
	"sync"
	"time"
)

// LRUCache holds derived values keyed by RevisionKey. It evicts by count and
// age, and drops every entry of a revision once a newer revision is stored:
// readers always ask for the current revision, so older entries can never
// be hit again. Keys without a revision prefix are only evicted by count and
// age.
type LRUCache[T any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time

	byKey  map[string]*list.Element
	recent *list.List // front is most recently used
	latest uint64
}

type lruEntry[T any] struct {
	key      string
	value    T
	deadline time.Time
	revision uint64
	scoped   bool
}

var _ Cache[int] = (*LRUCache[int])(nil)

// NewLRUCache keeps at most capacity entries (at least one), each for ttl.
func NewLRUCache[T any](capacity int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		capacity: max(capacity, 1),
		ttl:      ttl,
		now:      time.Now,
		byKey:    make(map[string]*list.Element),
		recent:   list.New(),
	}
}

// revisionOf reads the revision prefix written by RevisionKey.
func revisionOf(key string) (uint64, bool) {
	prefix, _, ok := strings.Cut(key, ":")
	if !ok {
		return 0, false
	}
	rev, err := strconv.ParseUint(prefix, 10, 64)
	if err != nil {
		return 0, false
	}
	return rev, true
}

func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	el, ok := c.byKey[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*lruEntry[T])
	if c.now().After(e.deadline) {
		c.unlink(el)
		return zero, false
	}
	c.recent.MoveToFront(el)
	return e.value, true
}

// Set stores value under key. A value for a revision older than the newest
// one stored is discarded, and storing a newer revision drops the older ones.
func (c *LRUCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &lruEntry[T]{key: key, value: value, deadline: c.now().Add(c.ttl)}
	e.revision, e.scoped = revisionOf(key)
	if e.scoped {
		switch {
		case e.revision < c.latest:
			return
		case e.revision > c.latest:
			c.latest = e.revision
			c.dropBefore(e.revision)
		}
	}

	if el, ok := c.byKey[key]; ok {
		el.Value = e
		c.recent.MoveToFront(el)
		return
	}
	c.byKey[key] = c.recent.PushFront(e)
	for c.recent.Len() > c.capacity {
		c.unlink(c.recent.Back())
	}
}

func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.byKey[key]; ok {
		c.unlink(el)
	}
}

// CleanExpired drops entries past their TTL and reports how many went.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	return c.removeIf(func(e *lruEntry[T]) bool { return now.After(e.deadline) })
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byKey)
}

func (c *LRUCache[T]) dropBefore(rev uint64) int {
	return c.removeIf(func(e *lruEntry[T]) bool { return e.scoped && e.revision < rev })
}

func (c *LRUCache[T]) removeIf(match func(*lruEntry[T]) bool) int {
	n := 0
	for el := c.recent.Front(); el != nil; {
		next := el.Next()
		if match(el.Value.(*lruEntry[T])) {
			c.unlink(el)
			n++
		}
		el = next
	}
	return n
}

func (c *LRUCache[T]) unlink(el *list.Element) {
	delete(c.byKey, el.Value.(*lruEntry[T]).key)
	c.recent.Remove(el)
}
