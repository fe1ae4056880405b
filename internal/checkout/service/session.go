package service

import (
	"sync"

	"github.com/google/uuid"

	cart "github.com/basho-studio/storefront/internal/cart/domain"
	"github.com/basho-studio/storefront/internal/checkout/domain"
	"github.com/basho-studio/storefront/internal/pricing"
)

// Session carries the state of one checkout: the form being filled, the
// attempt status, and everything frozen for the attempt in flight.
type Session struct {
	ID string

	mu          sync.Mutex
	status      domain.Status
	form        domain.FormData
	fieldErrors map[string]string

	// Frozen at submission; the attempt prices and verifies against
	// this snapshot even if the live cart changes underneath.
	snapshot *cart.Cart
	quote    pricing.Quote

	intentRef   string
	paymentRef  string
	orderNumber string
	message     string

	// verifyIssued guards the at-most-once verification call.
	verifyIssued bool
}

func NewSession() *Session {
	return &Session{
		ID:          uuid.New().String(),
		status:      domain.StatusEditing,
		fieldErrors: make(map[string]string),
	}
}

func (s *Session) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetField updates one form field and clears any error recorded against
// it, so a correction is not shouted at twice.
func (s *Session) SetField(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch name {
	case "first_name":
		s.form.FirstName = value
	case "last_name":
		s.form.LastName = value
	case "phone":
		s.form.Phone = value
	case "email":
		s.form.Email = value
	case "address":
		s.form.Address = value
	case "city":
		s.form.City = value
	case "state":
		s.form.State = value
	case "postal_code":
		s.form.PostalCode = value
	}
	delete(s.fieldErrors, name)
}

func (s *Session) SetForm(form domain.FormData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = form
	s.fieldErrors = make(map[string]string)
}

func (s *Session) Form() domain.FormData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

func (s *Session) FieldErrors() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.fieldErrors))
	for k, v := range s.fieldErrors {
		out[k] = v
	}
	return out
}

func (s *Session) OrderNumber() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderNumber
}

func (s *Session) PaymentRef() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paymentRef
}

func (s *Session) IntentRef() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intentRef
}

// Message is the human-readable outcome of the last attempt.
func (s *Session) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

func (s *Session) Quote() (pricing.Quote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quote, s.snapshot != nil
}

// Reset clears attempt state for a fresh try, keeping the form so the
// shopper does not retype an address. Terminal success is not resettable.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == domain.StatusSucceeded {
		return
	}
	s.status = domain.StatusEditing
	s.snapshot = nil
	s.quote = pricing.Quote{}
	s.intentRef = ""
	s.paymentRef = ""
	s.orderNumber = ""
	s.message = ""
	s.verifyIssued = false
}

// transitionTo moves the session if the step is legal. Callers hold the
// state machine together by only asking for legal moves; an illegal one
// is a bug and is refused.
func (s *Session) transitionTo(next domain.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !domain.CanTransitionTo(s.status, next) {
		return false
	}
	s.status = next
	return true
}
