// Package notify carries persisted-cart change broadcasts between
// execution contexts. Delivery must be at-least-once and order-preserving
// per scope key; duplicates are tolerated by consumers (a reload is
// idempotent), reordering within one key is not.
package notify

import (
	"context"
	"time"

	"github.com/basho-studio/storefront/internal/cart/domain"
)

// Change announces that a scope's persisted cart was written or deleted.
type Change struct {
	Scope domain.Scope `json:"scope"`
	// Origin identifies the writing context so it can skip its own echo.
	Origin string    `json:"origin"`
	At     time.Time `json:"at"`
}

type Bus interface {
	Publish(ctx context.Context, change Change) error
	// Subscribe registers a handler for every change; handlers for one
	// bus are invoked in delivery order. Returns an unsubscribe func.
	Subscribe(fn func(Change)) (unsubscribe func())
}
