// Package service owns the in-memory cart for the current identity scope.
// The in-memory state is authoritative; persistence is asynchronous but
// ordered, and its failures never surface to callers.
package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/basho-studio/storefront/internal/cart/domain"
	"github.com/basho-studio/storefront/internal/cart/repository"
	"github.com/basho-studio/storefront/internal/notify"
)

// ErrorReporter receives persistence and broadcast failures. The cart
// keeps operating in memory regardless.
type ErrorReporter func(op string, err error)

func logReporter(op string, err error) {
	log.Printf("cart store %s error: %v", op, err)
}

type mutation func(cart *domain.Cart)

// Store is the single source of truth for the active scope's cart.
// Mutations apply in memory immediately; the latest snapshot is handed to
// a single persist worker, so writes reach storage in issue order without
// the caller ever waiting on I/O.
type Store struct {
	repo   repository.CartRepository
	bus    notify.Bus
	report ErrorReporter
	origin string
	sfg    singleflight.Group

	mu       sync.Mutex
	resolved bool
	cart     *domain.Cart
	pending  []mutation
	dirty    *domain.Cart
	wake     chan struct{}

	// bindGen and bindTarget track the most recently requested bind, so
	// a load still in flight for a superseded scope never installs.
	bindGen    uint64
	bindTarget domain.Scope
}

func NewStore(repo repository.CartRepository, bus notify.Bus, report ErrorReporter) *Store {
	if report == nil {
		report = logReporter
	}
	return &Store{
		repo:   repo,
		bus:    bus,
		report: report,
		origin: uuid.NewString(),
		cart:   domain.NewCart(domain.ScopeGuest),
		wake:   make(chan struct{}, 1),
	}
}

// Origin identifies this store instance on the notify bus so it can skip
// echoes of its own writes.
func (s *Store) Origin() string { return s.origin }

// Start launches the persist worker. It exits when ctx is cancelled.
func (s *Store) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
			}
			s.flush(ctx)
		}
	}()
}

// AddItem merges or appends per line-kind rules. Deferred while identity
// is unresolved.
func (s *Store) AddItem(item domain.LineItem) {
	s.apply(func(cart *domain.Cart) { cart.Add(item) })
}

// UpdateQuantity replaces a product line's quantity; zero or less removes
// the line. Unknown keys are a silent no-op.
func (s *Store) UpdateQuantity(cartKey string, quantity int) {
	s.apply(func(cart *domain.Cart) { cart.UpdateQuantity(cartKey, quantity) })
}

// RemoveItem deletes the line; no-op if absent.
func (s *Store) RemoveItem(cartKey string) {
	s.apply(func(cart *domain.Cart) { cart.Remove(cartKey) })
}

// Clear empties the cart and removes its persisted representation.
func (s *Store) Clear() {
	s.apply(func(cart *domain.Cart) { cart.Clear() })
}

func (s *Store) apply(m mutation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.resolved {
		// Identity has not settled; writing now could hit the wrong
		// scope's storage key. Replay once bound.
		s.pending = append(s.pending, m)
		return
	}
	m(s.cart)
	s.markDirtyLocked()
}

// markDirtyLocked records the latest snapshot for the persist worker.
// Intermediate snapshots are redundant: persisting only the newest one
// still reaches storage in issue order.
func (s *Store) markDirtyLocked() {
	s.dirty = s.cart.Clone()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Store) flush(ctx context.Context) {
	s.mu.Lock()
	snap := s.dirty
	s.dirty = nil
	s.mu.Unlock()
	if snap == nil {
		return
	}

	var err error
	if snap.IsEmpty() {
		// Zero items removes the key so no stale-empty artifact lingers.
		err = s.repo.DeleteCart(ctx, snap.Scope)
	} else {
		err = s.repo.SaveCart(ctx, snap)
	}
	if err != nil {
		s.report("persist", err)
		return
	}

	change := notify.Change{Scope: snap.Scope, Origin: s.origin, At: time.Now()}
	if err := s.bus.Publish(ctx, change); err != nil {
		s.report("broadcast", err)
	}
}

// BindScope resolves the store onto a scope, loading that scope's
// persisted cart wholesale. Rebinding the same scope is a no-op, so
// scope-unchanged re-evaluations never reload. Deferred mutations replay
// against the loaded cart.
func (s *Store) BindScope(ctx context.Context, scope domain.Scope) {
	s.mu.Lock()
	// Compare against the latest requested bind, not the installed cart:
	// with a load still in flight the cart lags behind the target, and
	// comparing against it would swallow a bind back to the current scope.
	if s.resolved && s.bindTarget == scope {
		s.mu.Unlock()
		return
	}
	s.bindGen++
	gen := s.bindGen
	s.bindTarget = scope
	s.mu.Unlock()

	loaded := s.loadScope(ctx, scope)

	s.mu.Lock()
	defer s.mu.Unlock()
	// A newer bind superseded this one while the load was suspended; its
	// result must not install over the newer scope's cart.
	if gen != s.bindGen {
		return
	}
	s.cart = loaded
	s.resolved = true
	if len(s.pending) > 0 {
		for _, m := range s.pending {
			m(s.cart)
		}
		s.pending = nil
		s.markDirtyLocked()
	}
}

// Reload replaces the in-memory cart from storage, used when another
// context wrote the same scope's key.
func (s *Store) Reload(ctx context.Context) {
	s.mu.Lock()
	if !s.resolved {
		s.mu.Unlock()
		return
	}
	scope := s.cart.Scope
	s.mu.Unlock()

	loaded := s.loadScope(ctx, scope)

	s.mu.Lock()
	defer s.mu.Unlock()
	// The scope may have switched while the load was in flight; a stale
	// load must not clobber the new scope's cart.
	if !s.resolved || s.cart.Scope != scope {
		return
	}
	s.cart = loaded
}

// loadScope reads a scope's snapshot, collapsing concurrent loads for the
// same scope. Absent and malformed payloads both come back as an empty
// cart; malformed ones are reported, never propagated.
func (s *Store) loadScope(ctx context.Context, scope domain.Scope) *domain.Cart {
	v, err, _ := s.sfg.Do(string(scope), func() (interface{}, error) {
		cart, err := s.repo.GetCart(ctx, scope)
		if err != nil {
			if errors.Is(err, repository.ErrCartCorrupt) {
				s.report("load", err)
			} else if !errors.Is(err, repository.ErrCartNotFound) {
				s.report("load", err)
			}
			return domain.NewCart(scope), nil
		}
		return cart, nil
	})
	if err != nil {
		return domain.NewCart(scope)
	}
	return v.(*domain.Cart)
}

// Resolved reports whether the identity scope has settled.
func (s *Store) Resolved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolved
}

// Scope is the active identity scope; valid once resolved.
func (s *Store) Scope() domain.Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Scope
}

// Items returns a copy of the current lines.
func (s *Store) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone().Items
}

// Snapshot deep-copies the cart for checkout; later store mutations do
// not touch it.
func (s *Store) Snapshot() *domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// Total is the decimal sum of unit price times quantity over all lines.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

// Count is the badge count: products by quantity, bookings once each.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Count()
}
