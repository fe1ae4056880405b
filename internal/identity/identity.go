// Package identity exposes the shopper identity the cart is scoped by.
// The storefront only consumes the resolved identity value; sign-in
// screens and token handling live elsewhere.
package identity

import (
	"sync"

	"github.com/basho-studio/storefront/internal/cart/domain"
)

// State is the identity at a point in time. Until Resolved is true the
// provider has not settled guest-vs-user and cart operations must be
// deferred. An empty UserID with Resolved set means guest.
type State struct {
	Resolved bool
	UserID   string
}

// Scope maps the state onto a cart storage scope. Only valid once
// resolved.
func (s State) Scope() domain.Scope {
	if s.UserID == "" {
		return domain.ScopeGuest
	}
	return domain.UserScope(s.UserID)
}

type Provider interface {
	Current() State
	// Subscribe registers a handler invoked on every identity transition,
	// including the pending→resolved one. Returns an unsubscribe func.
	Subscribe(fn func(State)) (unsubscribe func())
}

// Settable is a Provider whose state is driven externally (auth callbacks,
// tests, the demo binary).
type Settable struct {
	mu     sync.Mutex
	state  State
	nextID int
	subs   map[int]func(State)
}

func NewSettable(initial State) *Settable {
	return &Settable{state: initial, subs: make(map[int]func(State))}
}

// NewPending starts unresolved.
func NewPending() *Settable {
	return NewSettable(State{})
}

func (p *Settable) Current() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Settable) Subscribe(fn func(State)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// Set transitions the identity and notifies subscribers in order.
func (p *Settable) Set(state State) {
	p.mu.Lock()
	p.state = state
	fns := make([]func(State), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// SignIn resolves to the given user.
func (p *Settable) SignIn(userID string) {
	p.Set(State{Resolved: true, UserID: userID})
}

// SignOut resolves to guest.
func (p *Settable) SignOut() {
	p.Set(State{Resolved: true})
}
