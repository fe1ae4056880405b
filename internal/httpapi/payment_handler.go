package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/basho-studio/storefront/internal/checkout/gateway"
)

// PaymentHandler receives the gateway widget's callbacks and feeds them
// to the pending checkout attempt.
type PaymentHandler struct {
	gw *gateway.CallbackGateway
}

func NewPaymentHandler(gw *gateway.CallbackGateway) *PaymentHandler {
	return &PaymentHandler{gw: gw}
}

type PaymentCallbackDTO struct {
	IntentRef  string `json:"razorpay_order_id"`
	PaymentRef string `json:"razorpay_payment_id"`
	Signature  string `json:"razorpay_signature"`
}

type PaymentCancelDTO struct {
	IntentRef string `json:"razorpay_order_id"`
	Reason    string `json:"reason,omitempty"`
}

type ReadyRequestDTO struct {
	Ready bool `json:"ready"`
}

// Callback handles a successful widget payment.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req PaymentCallbackDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.IntentRef == "" || req.PaymentRef == "" || req.Signature == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "order id, payment id and signature are required")
		return
	}

	err := h.gw.Deliver(gateway.Result{
		Kind:       gateway.ResultSuccess,
		IntentRef:  req.IntentRef,
		PaymentRef: req.PaymentRef,
		Signature:  req.Signature,
	})
	if errors.Is(err, gateway.ErrUnknownIntent) {
		respondError(w, http.StatusConflict, "unknown_intent", err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"accepted": true})
}

// Cancel handles the widget being dismissed or reporting a failure.
func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req PaymentCancelDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.IntentRef == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "order id is required")
		return
	}

	result := gateway.Result{Kind: gateway.ResultDismissed, IntentRef: req.IntentRef}
	if req.Reason != "" {
		result = gateway.Result{Kind: gateway.ResultFailed, IntentRef: req.IntentRef, Reason: req.Reason}
	}

	err := h.gw.Deliver(result)
	if errors.Is(err, gateway.ErrUnknownIntent) {
		respondError(w, http.StatusConflict, "unknown_intent", err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"accepted": true})
}

// SetReady flips widget SDK availability, reported by the frontend once
// the script has loaded (or failed to).
func (h *PaymentHandler) SetReady(w http.ResponseWriter, r *http.Request) {
	var req ReadyRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	h.gw.SetReady(req.Ready)
	respondJSON(w, http.StatusOK, map[string]bool{"ready": req.Ready})
}
