// Package pricing derives the checkout price breakdown from a cart
// snapshot: decimal subtotal plus a shipping quote from the external rate
// service, with a fixed fallback when the service degrades.
package pricing

import (
	"context"
	"log"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/basho-studio/storefront/internal/cart/domain"
)

// FallbackShippingCharge applies whenever the rate service cannot answer.
// It matches the service's own minimum charge.
var FallbackShippingCharge = decimal.NewFromInt(100)

// Quote is one resolved price breakdown.
type Quote struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
	// Fallback marks a degraded quote (rate service failed).
	Fallback bool
}

type Engine struct {
	shipping ShippingClient

	mu         sync.Mutex
	nextGen    uint64
	appliedGen uint64
	latest     Quote
	hasLatest  bool
}

func NewEngine(shipping ShippingClient) *Engine {
	return &Engine{shipping: shipping}
}

// QuoteFor prices a cart snapshot. Booking lines contribute to the
// subtotal but are excluded from shipping weight. The returned quote is
// always the one computed for the given snapshot; last-write-wins applies
// only to the shared Latest value, where a quote for an older snapshot
// that resolves after a newer one has applied is not published.
func (e *Engine) QuoteFor(ctx context.Context, cart *domain.Cart) Quote {
	e.mu.Lock()
	e.nextGen++
	gen := e.nextGen
	e.mu.Unlock()

	subtotal := cart.Total()

	var items []ShippingItem
	for _, line := range cart.Items {
		switch line.Kind {
		case domain.KindWorkshopBooking:
			// Not physically shipped.
		default:
			items = append(items, ShippingItem{ProductID: line.ReferenceID, Quantity: line.Quantity})
		}
	}

	quote := Quote{Subtotal: subtotal}
	charge, err := e.shipping.QuoteShipping(ctx, items, subtotal)
	if err != nil {
		log.Printf("shipping quote failed, applying fallback: %v", err)
		quote.Shipping = FallbackShippingCharge
		quote.Fallback = true
	} else {
		quote.Shipping = charge
	}
	quote.Total = subtotal.Add(quote.Shipping)

	e.mu.Lock()
	if gen > e.appliedGen {
		e.appliedGen = gen
		e.latest = quote
		e.hasLatest = true
	}
	e.mu.Unlock()
	return quote
}

// Latest returns the most recently applied quote, if any.
func (e *Engine) Latest() (Quote, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.latest, e.hasLatest
}
