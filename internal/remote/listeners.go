package remote

import (
	"sort"
	"sync"
)

// Listeners fans auth events out to registered callbacks. The zero value
// is ready to use.
type Listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]AuthListener
}

func (l *Listeners) Add(fn AuthListener) (unsubscribe func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = map[int]AuthListener{}
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.fns, id)
	}
}

// Emit calls listeners in registration order without holding the lock, so
// a listener may call back into the backend.
func (l *Listeners) Emit(ev AuthEvent) {
	l.mu.Lock()
	ids := make([]int, 0, len(l.fns))
	for id := range l.fns {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]AuthListener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, l.fns[id])
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
