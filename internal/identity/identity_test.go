package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/basho-studio/storefront/internal/cart/domain"
)

func TestScopeMapping(t *testing.T) {
	assert.Equal(t, domain.ScopeGuest, State{Resolved: true}.Scope())
	assert.Equal(t, domain.UserScope("u42"), State{Resolved: true, UserID: "u42"}.Scope())
}

func TestSubscribersSeeTransitionsInOrder(t *testing.T) {
	p := NewPending()
	assert.False(t, p.Current().Resolved)

	var seen []string
	unsub := p.Subscribe(func(st State) {
		if st.UserID == "" {
			seen = append(seen, "guest")
			return
		}
		seen = append(seen, st.UserID)
	})

	p.SignIn("u1")
	p.SignOut()
	p.SignIn("u2")

	assert.Equal(t, []string{"u1", "guest", "u2"}, seen)
	assert.Equal(t, "u2", p.Current().UserID)

	unsub()
	p.SignOut()
	assert.Len(t, seen, 3)
}
