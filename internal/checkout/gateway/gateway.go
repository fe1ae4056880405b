// Package gateway wraps the third-party payment widget. Each attempt is
// a single-shot asynchronous result: exactly one of success, dismissal,
// or failure, never delivered twice.
package gateway

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type ResultKind int

const (
	ResultSuccess ResultKind = iota
	ResultDismissed
	ResultFailed
)

// Result is the widget's verdict for one attempt. PaymentRef and
// Signature are set only on success; Reason only on failure.
type Result struct {
	Kind       ResultKind
	PaymentRef string
	IntentRef  string
	Signature  string
	Reason     string
}

// Prefill seeds the widget's contact fields.
type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// Notes ride along for support reconciliation.
type Notes struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
}

// Options parameterize one widget invocation. Amount is in currency
// minor units, as the gateway expects.
type Options struct {
	GatewayKey string
	Amount     int64
	Currency   string
	IntentRef  string
	Prefill    Prefill
	Notes      Notes
}

// MinorUnits converts a decimal currency amount for the gateway.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

var (
	// ErrNotReady means the widget SDK has not loaded; submission stays
	// disabled until it has.
	ErrNotReady = errors.New("payment gateway is not ready")
	// ErrUnknownIntent means a callback arrived for no open attempt.
	ErrUnknownIntent = errors.New("no pending attempt for intent")
	// ErrAlreadyResolved rejects a second callback for the same attempt.
	ErrAlreadyResolved = errors.New("attempt already resolved")
)

type Gateway interface {
	// Ready reports whether the widget can be invoked at all.
	Ready() error
	// Open starts one attempt and returns the channel its single result
	// will arrive on.
	Open(ctx context.Context, opts Options) (<-chan Result, error)
}
