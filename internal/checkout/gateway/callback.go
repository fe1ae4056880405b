package gateway

import (
	"context"
	"sync"
)

// CallbackGateway resolves attempts from externally delivered callbacks
// (the widget's HTTP webhook, or a test driving Deliver directly).
// Attempts are keyed by intent reference; each resolves at most once.
type CallbackGateway struct {
	mu      sync.Mutex
	ready   bool
	pending map[string]chan Result
}

func NewCallbackGateway() *CallbackGateway {
	return &CallbackGateway{pending: make(map[string]chan Result)}
}

// SetReady flips SDK availability. Until ready, Open refuses and
// checkout submission stays disabled.
func (g *CallbackGateway) SetReady(ready bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ready = ready
}

func (g *CallbackGateway) Ready() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.ready {
		return ErrNotReady
	}
	return nil
}

func (g *CallbackGateway) Open(_ context.Context, opts Options) (<-chan Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.ready {
		return nil, ErrNotReady
	}
	if _, exists := g.pending[opts.IntentRef]; exists {
		return nil, ErrAlreadyResolved
	}
	ch := make(chan Result, 1)
	g.pending[opts.IntentRef] = ch
	return ch, nil
}

// Deliver resolves the attempt for the result's intent reference. A
// second delivery for the same intent is rejected, which keeps the
// result channel single-shot.
func (g *CallbackGateway) Deliver(result Result) error {
	g.mu.Lock()
	ch, ok := g.pending[result.IntentRef]
	if ok {
		delete(g.pending, result.IntentRef)
	}
	g.mu.Unlock()

	if !ok {
		return ErrUnknownIntent
	}
	ch <- result
	close(ch)
	return nil
}
