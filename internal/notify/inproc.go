package notify

import (
	"context"
	"sync"
)

// InprocBus fans changes out to subscribers within one process. Publish
// dispatches synchronously under the lock, which preserves per-key order.
type InprocBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Change)
}

func NewInprocBus() *InprocBus {
	return &InprocBus{subs: make(map[int]func(Change))}
}

func (b *InprocBus) Publish(_ context.Context, change Change) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, fn := range b.subs {
		fn(change)
	}
	return nil
}

func (b *InprocBus) Subscribe(fn func(Change)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}
