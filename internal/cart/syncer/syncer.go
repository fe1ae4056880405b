// Package syncer reconciles the cart store with identity transitions and
// with other execution contexts writing the same persisted scope key.
package syncer

import (
	"context"

	"github.com/basho-studio/storefront/internal/cart/service"
	"github.com/basho-studio/storefront/internal/identity"
	"github.com/basho-studio/storefront/internal/notify"
)

type Synchronizer struct {
	store *service.Store
	ids   identity.Provider
	bus   notify.Bus

	unsubID  func()
	unsubBus func()
}

func New(store *service.Store, ids identity.Provider, bus notify.Bus) *Synchronizer {
	return &Synchronizer{store: store, ids: ids, bus: bus}
}

// Start binds the store to the identity resolved right now (if any) and
// begins tracking transitions and external changes. Binding is idempotent
// per scope, so repeated Start-time evaluations never reload.
func (s *Synchronizer) Start(ctx context.Context) {
	if st := s.ids.Current(); st.Resolved {
		s.store.BindScope(ctx, st.Scope())
	}

	s.unsubID = s.ids.Subscribe(func(st identity.State) {
		if !st.Resolved {
			return
		}
		// Load the new scope wholesale. The previous scope's persisted
		// cart is left untouched: switching identity never merges.
		s.store.BindScope(ctx, st.Scope())
	})

	s.unsubBus = s.bus.Subscribe(func(change notify.Change) {
		if change.Origin == s.store.Origin() {
			return // our own write echoing back
		}
		if !s.store.Resolved() || change.Scope != s.store.Scope() {
			return // another scope's key; not ours to act on
		}
		s.store.Reload(ctx)
	})
}

func (s *Synchronizer) Close() {
	if s.unsubID != nil {
		s.unsubID()
	}
	if s.unsubBus != nil {
		s.unsubBus()
	}
}
