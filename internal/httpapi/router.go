package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Payment  *PaymentHandler
	Identity *IdentityHandler
}

// NewRouter assembles the storefront API.
func NewRouter(h Handlers, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Post("/items", h.Cart.AddItem)
			r.Put("/items/{cart_key}", h.Cart.UpdateQuantity)
			r.Delete("/items/{cart_key}", h.Cart.RemoveItem)
		})

		r.Route("/checkout/sessions", func(r chi.Router) {
			r.Post("/", h.Checkout.CreateSession)
			r.Get("/{session_id}", h.Checkout.GetSession)
			r.Put("/{session_id}/form", h.Checkout.SetForm)
			r.Patch("/{session_id}/form", h.Checkout.SetField)
			r.Post("/{session_id}/submit", h.Checkout.Submit)
			r.Post("/{session_id}/reset", h.Checkout.Reset)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/callback", h.Payment.Callback)
			r.Post("/cancel", h.Payment.Cancel)
			r.Post("/ready", h.Payment.SetReady)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Get("/identity", h.Identity.Current)
			r.Post("/signin", h.Identity.SignIn)
			r.Post("/signout", h.Identity.SignOut)
		})
	})

	return r
}
