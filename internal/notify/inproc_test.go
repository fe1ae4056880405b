package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basho-studio/storefront/internal/cart/domain"
)

func TestInprocBus_DeliversInPublishOrder(t *testing.T) {
	bus := NewInprocBus()
	var seen []domain.Scope
	unsub := bus.Subscribe(func(c Change) {
		seen = append(seen, c.Scope)
	})
	defer unsub()

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, Change{Scope: domain.ScopeGuest}))
	require.NoError(t, bus.Publish(ctx, Change{Scope: domain.UserScope("u1")}))
	require.NoError(t, bus.Publish(ctx, Change{Scope: domain.ScopeGuest}))

	assert.Equal(t, []domain.Scope{"guest", "u1", "guest"}, seen)
}

func TestInprocBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := NewInprocBus()
	count := 0
	unsub := bus.Subscribe(func(Change) { count++ })

	require.NoError(t, bus.Publish(context.Background(), Change{Scope: domain.ScopeGuest}))
	unsub()
	require.NoError(t, bus.Publish(context.Background(), Change{Scope: domain.ScopeGuest}))

	assert.Equal(t, 1, count)
}
