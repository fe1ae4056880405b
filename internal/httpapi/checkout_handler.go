package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/basho-studio/storefront/internal/checkout/domain"
	"github.com/basho-studio/storefront/internal/checkout/gateway"
	checkout "github.com/basho-studio/storefront/internal/checkout/service"
)

type CheckoutHandler struct {
	orch *checkout.Orchestrator

	mu       sync.Mutex
	sessions map[string]*checkout.Session
}

func NewCheckoutHandler(orch *checkout.Orchestrator) *CheckoutHandler {
	return &CheckoutHandler{
		orch:     orch,
		sessions: make(map[string]*checkout.Session),
	}
}

type SessionResponseDTO struct {
	ID          string            `json:"id"`
	Status      string            `json:"status"`
	FieldErrors map[string]string `json:"field_errors"`
	Message     string            `json:"message,omitempty"`
	OrderNumber string            `json:"order_number,omitempty"`
	PaymentRef  string            `json:"payment_ref,omitempty"`
	Subtotal    *decimal.Decimal  `json:"subtotal,omitempty"`
	Shipping    *decimal.Decimal  `json:"shipping_charge,omitempty"`
	Total       *decimal.Decimal  `json:"total,omitempty"`
	Fallback    bool              `json:"shipping_fallback,omitempty"`
}

func sessionResponse(sess *checkout.Session) SessionResponseDTO {
	resp := SessionResponseDTO{
		ID:          sess.ID,
		Status:      sess.Status().String(),
		FieldErrors: sess.FieldErrors(),
		Message:     sess.Message(),
		OrderNumber: sess.OrderNumber(),
		PaymentRef:  sess.PaymentRef(),
	}
	if quote, ok := sess.Quote(); ok {
		resp.Subtotal = &quote.Subtotal
		resp.Shipping = &quote.Shipping
		resp.Total = &quote.Total
		resp.Fallback = quote.Fallback
	}
	return resp
}

func (h *CheckoutHandler) session(id string) (*checkout.Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sess, ok := h.sessions[id]
	return sess, ok
}

func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess := checkout.NewSession()
	h.mu.Lock()
	h.sessions[sess.ID] = sess
	h.mu.Unlock()

	respondJSON(w, http.StatusCreated, sessionResponse(sess))
}

func (h *CheckoutHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(chi.URLParam(r, "session_id"))
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "checkout session not found")
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse(sess))
}

func (h *CheckoutHandler) SetForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(chi.URLParam(r, "session_id"))
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "checkout session not found")
		return
	}

	var form domain.FormData
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sess.SetForm(form)
	respondJSON(w, http.StatusOK, sessionResponse(sess))
}

type SetFieldRequestDTO struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (h *CheckoutHandler) SetField(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(chi.URLParam(r, "session_id"))
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "checkout session not found")
		return
	}

	var req SetFieldRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Field == "" {
		respondError(w, http.StatusBadRequest, "invalid_field", "field is required")
		return
	}

	sess.SetField(req.Field, req.Value)
	respondJSON(w, http.StatusOK, sessionResponse(sess))
}

// Submit starts the attempt and returns immediately; the attempt runs to
// its conclusion in the background and the client polls GetSession. The
// gateway result arrives through the payment webhook, so submission
// cannot block the request that triggered it.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(chi.URLParam(r, "session_id"))
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "checkout session not found")
		return
	}

	switch err := h.orch.Precheck(sess); {
	case errors.Is(err, gateway.ErrNotReady):
		respondError(w, http.StatusServiceUnavailable, "gateway_not_ready", err.Error())
		return
	case errors.Is(err, checkout.ErrSessionClosed):
		respondError(w, http.StatusConflict, "session_closed", err.Error())
		return
	case errors.Is(err, checkout.ErrAttemptInFlight):
		respondError(w, http.StatusConflict, "attempt_in_flight", err.Error())
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	requestID := getRequestID(r.Context())
	go func() {
		if err := h.orch.Submit(context.Background(), sess); err != nil {
			log.Printf("checkout session %s (request %s): %v", sess.ID, requestID, err)
		}
	}()

	respondJSON(w, http.StatusAccepted, sessionResponse(sess))
}

func (h *CheckoutHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(chi.URLParam(r, "session_id"))
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "checkout session not found")
		return
	}

	sess.Reset()
	respondJSON(w, http.StatusOK, sessionResponse(sess))
}
