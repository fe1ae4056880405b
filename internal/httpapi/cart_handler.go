// Package httpapi exposes the storefront over HTTP: cart mutations,
// checkout sessions, identity changes, and the payment gateway webhook.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/basho-studio/storefront/internal/cart/domain"
	cartsvc "github.com/basho-studio/storefront/internal/cart/service"
)

type CartHandler struct {
	store *cartsvc.Store
}

func NewCartHandler(store *cartsvc.Store) *CartHandler {
	return &CartHandler{store: store}
}

type BookingDTO struct {
	SlotID           string `json:"slot_id"`
	SlotDate         string `json:"slot_date"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	ParticipantName  string `json:"participant_name"`
	ParticipantEmail string `json:"participant_email"`
	ParticipantPhone string `json:"participant_phone"`
	SpecialRequests  string `json:"special_requests"`
}

type AddItemRequestDTO struct {
	Kind        string          `json:"kind"`
	ReferenceID string          `json:"reference_id"`
	Name        string          `json:"name"`
	Image       string          `json:"image"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Booking     *BookingDTO     `json:"booking,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	Scope    string            `json:"scope"`
	Items    []domain.LineItem `json:"items"`
	Subtotal decimal.Decimal   `json:"subtotal"`
	Count    int               `json:"count"`
}

func (h *CartHandler) cartResponse() CartResponseDTO {
	snapshot := h.store.Snapshot()
	items := snapshot.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	return CartResponseDTO{
		Scope:    string(snapshot.Scope),
		Items:    items,
		Subtotal: snapshot.Total(),
		Count:    snapshot.Count(),
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.cartResponse())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ReferenceID == "" {
		respondError(w, http.StatusBadRequest, "invalid_reference_id", "reference_id is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}
	if req.UnitPrice.IsNegative() {
		respondError(w, http.StatusBadRequest, "invalid_unit_price", "unit_price must not be negative")
		return
	}

	var line domain.LineItem
	switch domain.LineKind(req.Kind) {
	case domain.KindWorkshopBooking:
		if req.Booking == nil || req.Booking.SlotID == "" {
			respondError(w, http.StatusBadRequest, "invalid_booking", "booking with slot_id is required for workshop bookings")
			return
		}
		line = domain.NewBookingLine(req.ReferenceID, req.Name, req.Image, req.UnitPrice, req.Quantity, domain.BookingDetails{
			SlotID:           req.Booking.SlotID,
			SlotDate:         req.Booking.SlotDate,
			StartTime:        req.Booking.StartTime,
			EndTime:          req.Booking.EndTime,
			ParticipantName:  req.Booking.ParticipantName,
			ParticipantEmail: req.Booking.ParticipantEmail,
			ParticipantPhone: req.Booking.ParticipantPhone,
			SpecialRequests:  req.Booking.SpecialRequests,
		})
	case domain.KindProduct, domain.LineKind(""):
		line = domain.NewProductLine(req.ReferenceID, req.Name, req.Image, req.UnitPrice, req.Quantity)
	default:
		respondError(w, http.StatusBadRequest, "invalid_kind", "kind must be product or workshop_booking")
		return
	}
	line.AddedAt = time.Now()

	h.store.AddItem(line)
	respondJSON(w, http.StatusCreated, h.cartResponse())
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	cartKey := chi.URLParam(r, "cart_key")
	if cartKey == "" {
		respondError(w, http.StatusBadRequest, "invalid_cart_key", "cart_key is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must not exceed 99")
		return
	}

	// Zero or negative removes the line; the store handles both.
	h.store.UpdateQuantity(cartKey, req.Quantity)
	respondJSON(w, http.StatusOK, h.cartResponse())
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cartKey := chi.URLParam(r, "cart_key")
	if cartKey == "" {
		respondError(w, http.StatusBadRequest, "invalid_cart_key", "cart_key is required")
		return
	}

	h.store.RemoveItem(cartKey)
	respondJSON(w, http.StatusOK, h.cartResponse())
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.store.Clear()
	respondJSON(w, http.StatusOK, h.cartResponse())
}
