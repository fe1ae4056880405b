// Package service drives a checkout attempt end to end: validate the
// form, freeze a cart snapshot, price it, reserve a payment intent, open
// the gateway, and verify its single result before declaring an order.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	cartsvc "github.com/basho-studio/storefront/internal/cart/service"
	"github.com/basho-studio/storefront/internal/checkout/client"
	"github.com/basho-studio/storefront/internal/checkout/domain"
	"github.com/basho-studio/storefront/internal/checkout/gateway"
	"github.com/basho-studio/storefront/internal/pricing"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrAttemptInFlight = errors.New("a checkout attempt is already in progress")
	ErrSessionClosed   = errors.New("checkout session already finished")
)

type Orchestrator struct {
	cart    *cartsvc.Store
	pricing *pricing.Engine
	orders  client.OrderClient
	gateway gateway.Gateway
}

func NewOrchestrator(cart *cartsvc.Store, eng *pricing.Engine, orders client.OrderClient, gw gateway.Gateway) *Orchestrator {
	return &Orchestrator{
		cart:    cart,
		pricing: eng,
		orders:  orders,
		gateway: gw,
	}
}

// Precheck reports whether a new attempt may start on this session,
// without starting one. Callers that run Submit asynchronously use it to
// reject a doomed request synchronously.
func (o *Orchestrator) Precheck(sess *Session) error {
	sess.mu.Lock()
	status := sess.status
	sess.mu.Unlock()
	switch {
	case status == domain.StatusSucceeded || status == domain.StatusFailed:
		return ErrSessionClosed
	case status != domain.StatusEditing && status != domain.StatusCancelled:
		return ErrAttemptInFlight
	}
	return o.gateway.Ready()
}

// Submit runs one checkout attempt to its conclusion. It blocks until
// the attempt lands in a settled state: back in Editing (validation
// errors, decline, or dismissal), Failed, or Succeeded. Only one attempt
// per session may be in flight.
func (o *Orchestrator) Submit(ctx context.Context, sess *Session) error {
	sess.mu.Lock()
	switch {
	case sess.status == domain.StatusSucceeded || sess.status == domain.StatusFailed:
		sess.mu.Unlock()
		return ErrSessionClosed
	case sess.status != domain.StatusEditing && sess.status != domain.StatusCancelled:
		sess.mu.Unlock()
		return ErrAttemptInFlight
	}
	if sess.status == domain.StatusCancelled {
		// A dismissed attempt reopens before the next submission.
		sess.status = domain.StatusEditing
	}
	sess.mu.Unlock()

	// No attempt can start until the payment widget is usable.
	if err := o.gateway.Ready(); err != nil {
		return err
	}

	if !sess.transitionTo(domain.StatusValidating) {
		return ErrAttemptInFlight
	}

	// Validation is purely local. A bad form never touches the network.
	form := sess.Form()
	if errs := form.Validate(); len(errs) > 0 {
		sess.mu.Lock()
		sess.fieldErrors = errs
		sess.mu.Unlock()
		sess.transitionTo(domain.StatusEditing)
		return nil
	}

	snapshot := o.cart.Snapshot()
	if snapshot.IsEmpty() {
		sess.transitionTo(domain.StatusEditing)
		return ErrEmptyCart
	}

	quote := o.pricing.QuoteFor(ctx, snapshot)
	sess.mu.Lock()
	sess.snapshot = snapshot
	sess.quote = quote
	sess.mu.Unlock()

	if !sess.transitionTo(domain.StatusAwaitingIntent) {
		return ErrAttemptInFlight
	}

	reservation, err := o.orders.ReserveIntent(ctx, quote.Total, form.CustomerName(), form.Email, form.Phone)
	if err != nil {
		o.fail(sess, "Unable to initiate payment. Please try again.")
		return fmt.Errorf("reserve intent: %w", err)
	}

	sess.mu.Lock()
	sess.intentRef = reservation.IntentRef
	sess.mu.Unlock()

	results, err := o.gateway.Open(ctx, gateway.Options{
		GatewayKey: reservation.GatewayKey,
		Amount:     reservation.Amount,
		Currency:   reservation.Currency,
		IntentRef:  reservation.IntentRef,
		Prefill: gateway.Prefill{
			Name:    form.CustomerName(),
			Email:   form.Email,
			Contact: form.Phone,
		},
		Notes: gateway.Notes{
			Address: form.Address,
			City:    form.City,
			State:   form.State,
		},
	})
	if err != nil {
		o.fail(sess, "Unable to open the payment window. Please try again.")
		return fmt.Errorf("open gateway: %w", err)
	}

	if !sess.transitionTo(domain.StatusAwaitingGateway) {
		return ErrAttemptInFlight
	}

	select {
	case result := <-results:
		return o.settle(ctx, sess, result)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// settle consumes the attempt's single gateway result.
func (o *Orchestrator) settle(ctx context.Context, sess *Session, result gateway.Result) error {
	switch result.Kind {
	case gateway.ResultDismissed:
		// Closing the widget is not an error; the cart and form stay
		// put and the shopper may try again.
		sess.transitionTo(domain.StatusCancelled)
		sess.transitionTo(domain.StatusEditing)
		sess.mu.Lock()
		sess.message = "Payment cancelled"
		sess.mu.Unlock()
		return nil

	case gateway.ResultFailed:
		sess.transitionTo(domain.StatusEditing)
		sess.mu.Lock()
		sess.message = result.Reason
		sess.mu.Unlock()
		return nil

	case gateway.ResultSuccess:
		return o.verify(ctx, sess, result)

	default:
		return fmt.Errorf("unexpected gateway result kind %d", result.Kind)
	}
}

func (o *Orchestrator) verify(ctx context.Context, sess *Session, result gateway.Result) error {
	if !sess.transitionTo(domain.StatusVerifying) {
		return ErrAttemptInFlight
	}

	sess.mu.Lock()
	if sess.verifyIssued {
		sess.mu.Unlock()
		return nil
	}
	sess.verifyIssued = true
	sess.paymentRef = result.PaymentRef
	form := sess.form
	snapshot := sess.snapshot
	quote := sess.quote
	sess.mu.Unlock()

	var userID string
	if scope := o.cart.Scope(); !scope.IsGuest() {
		userID = string(scope)
	}

	payload := domain.BuildOrderPayload(form, snapshot, quote.Subtotal, quote.Shipping, quote.Total, userID)

	orderNumber, err := o.orders.VerifyAndCreate(ctx, client.VerifyRequest{
		PaymentRef: result.PaymentRef,
		IntentRef:  result.IntentRef,
		Signature:  result.Signature,
		Order:      payload,
	})
	if err != nil {
		// Money may have moved. The cart is left intact and the payment
		// reference is surfaced so support can reconcile.
		log.Printf("payment verification failed for intent %s: %v", result.IntentRef, err)
		o.fail(sess, fmt.Sprintf(
			"Payment successful but order creation failed. Please contact support with your payment ID: %s",
			result.PaymentRef))
		return fmt.Errorf("verify payment: %w", err)
	}

	sess.mu.Lock()
	sess.orderNumber = orderNumber
	sess.message = "Order placed successfully"
	sess.mu.Unlock()
	if !sess.transitionTo(domain.StatusSucceeded) {
		return ErrAttemptInFlight
	}

	// Only a fully verified order empties the cart.
	o.cart.Clear()
	return nil
}

func (o *Orchestrator) fail(sess *Session, message string) {
	sess.mu.Lock()
	sess.message = message
	sess.mu.Unlock()
	sess.transitionTo(domain.StatusFailed)
}
