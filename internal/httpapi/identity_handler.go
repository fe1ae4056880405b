package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/basho-studio/storefront/internal/identity"
)

// IdentityHandler drives auth transitions. Sign-in and sign-out swap the
// cart scope wholesale; the cart synchronizer reacts to the change.
type IdentityHandler struct {
	ids *identity.Settable
}

func NewIdentityHandler(ids *identity.Settable) *IdentityHandler {
	return &IdentityHandler{ids: ids}
}

type SignInRequestDTO struct {
	UserID string `json:"user_id"`
}

type IdentityResponseDTO struct {
	Resolved bool   `json:"resolved"`
	UserID   string `json:"user_id,omitempty"`
}

func (h *IdentityHandler) Current(w http.ResponseWriter, r *http.Request) {
	state := h.ids.Current()
	respondJSON(w, http.StatusOK, IdentityResponseDTO{Resolved: state.Resolved, UserID: state.UserID})
}

func (h *IdentityHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "user_id is required")
		return
	}

	h.ids.SignIn(req.UserID)
	respondJSON(w, http.StatusOK, IdentityResponseDTO{Resolved: true, UserID: req.UserID})
}

func (h *IdentityHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.ids.SignOut()
	respondJSON(w, http.StatusOK, IdentityResponseDTO{Resolved: true})
}
