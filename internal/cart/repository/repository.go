package repository

import (
	"context"
	"errors"

	"github.com/basho-studio/storefront/internal/cart/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartCorrupt marks a persisted payload that cannot be decoded.
	// Callers treat it as an empty cart, not a crash.
	ErrCartCorrupt = errors.New("persisted cart payload is malformed")
)

// CartRepository is the durable per-scope snapshot storage. The store
// always writes full snapshots; an empty cart is deleted, never stored.
type CartRepository interface {
	GetCart(ctx context.Context, scope domain.Scope) (*domain.Cart, error)
	SaveCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, scope domain.Scope) error
}
