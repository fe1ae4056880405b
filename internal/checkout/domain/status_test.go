package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminalStates(t *testing.T) {
	assert.True(t, StatusSucceeded.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusEditing.IsTerminal())
	assert.False(t, StatusAwaitingGateway.IsTerminal())
}

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusEditing, StatusValidating, true},
		{StatusValidating, StatusEditing, true},
		{StatusValidating, StatusAwaitingIntent, true},
		{StatusAwaitingIntent, StatusAwaitingGateway, true},
		{StatusAwaitingIntent, StatusFailed, true},
		{StatusAwaitingGateway, StatusVerifying, true},
		{StatusAwaitingGateway, StatusCancelled, true},
		{StatusAwaitingGateway, StatusEditing, true},
		{StatusVerifying, StatusSucceeded, true},
		{StatusVerifying, StatusFailed, true},
		{StatusCancelled, StatusEditing, true},

		{StatusEditing, StatusAwaitingIntent, false},
		{StatusEditing, StatusSucceeded, false},
		{StatusSucceeded, StatusEditing, false},
		{StatusFailed, StatusEditing, false},
		{StatusVerifying, StatusEditing, false},
		{StatusAwaitingIntent, StatusEditing, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransitionTo(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}
