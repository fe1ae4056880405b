package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cart "github.com/basho-studio/storefront/internal/cart/domain"
	"github.com/basho-studio/storefront/internal/cart/repository"
	cartsvc "github.com/basho-studio/storefront/internal/cart/service"
	"github.com/basho-studio/storefront/internal/checkout/client"
	"github.com/basho-studio/storefront/internal/checkout/gateway"
	checkout "github.com/basho-studio/storefront/internal/checkout/service"
	"github.com/basho-studio/storefront/internal/identity"
	"github.com/basho-studio/storefront/internal/notify"
	"github.com/basho-studio/storefront/internal/pricing"
)

type memoryRepository struct {
	mu    sync.Mutex
	carts map[cart.Scope]*cart.Cart
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{carts: make(map[cart.Scope]*cart.Cart)}
}

func (r *memoryRepository) GetCart(_ context.Context, scope cart.Scope) (*cart.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[scope]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return c.Clone(), nil
}

func (r *memoryRepository) SaveCart(_ context.Context, c *cart.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[c.Scope] = c.Clone()
	return nil
}

func (r *memoryRepository) DeleteCart(_ context.Context, scope cart.Scope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, scope)
	return nil
}

type stubOrders struct{}

func (stubOrders) ReserveIntent(_ context.Context, amount decimal.Decimal, _, _, _ string) (*client.IntentReservation, error) {
	return &client.IntentReservation{
		IntentRef:  "order_http_1",
		GatewayKey: "rzp_test_key",
		Amount:     gateway.MinorUnits(amount),
		Currency:   "INR",
	}, nil
}

func (stubOrders) VerifyAndCreate(_ context.Context, _ client.VerifyRequest) (string, error) {
	return "BS-2024-0099", nil
}

type flatShipping struct{}

func (flatShipping) QuoteShipping(_ context.Context, _ []pricing.ShippingItem, _ decimal.Decimal) (decimal.Decimal, error) {
	return decimal.NewFromInt(100), nil
}

func newTestServer(t *testing.T) (*httptest.Server, *cartsvc.Store, *gateway.CallbackGateway) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := cartsvc.NewStore(newMemoryRepository(), notify.NewInprocBus(), func(op string, err error) {
		t.Logf("cart %s: %v", op, err)
	})
	store.Start(ctx)

	ids := identity.NewSettable(identity.State{Resolved: true})
	store.BindScope(ctx, cart.ScopeGuest)

	gw := gateway.NewCallbackGateway()
	gw.SetReady(true)

	orch := checkout.NewOrchestrator(store, pricing.NewEngine(flatShipping{}), stubOrders{}, gw)

	router := NewRouter(Handlers{
		Cart:     NewCartHandler(store),
		Checkout: NewCheckoutHandler(orch),
		Payment:  NewPaymentHandler(gw),
		Identity: NewIdentityHandler(ids),
	}, 10*time.Second)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store, gw
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var out map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func field[T any](t *testing.T, raw map[string]json.RawMessage, name string) T {
	t.Helper()
	var v T
	require.Contains(t, raw, name)
	require.NoError(t, json.Unmarshal(raw[name], &v))
	return v
}

func TestCartEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/cart/items", map[string]any{
		"kind":         "product",
		"reference_id": "p1",
		"name":         "Stoneware Vase",
		"unit_price":   "750",
		"quantity":     2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 2, field[int](t, body, "count"))

	// Same product merges into the existing line.
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/cart/items", map[string]any{
		"kind":         "product",
		"reference_id": "p1",
		"name":         "Stoneware Vase",
		"unit_price":   "750",
		"quantity":     1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 3, field[int](t, body, "count"))
	assert.Len(t, field[[]cart.LineItem](t, body, "items"), 1)

	resp, body = doJSON(t, http.MethodPut, srv.URL+"/api/cart/items/p1", map[string]any{"quantity": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, field[int](t, body, "count"))

	resp, body = doJSON(t, http.MethodDelete, srv.URL+"/api/cart/items/p1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, field[int](t, body, "count"))
}

func TestAddBookingRequiresSlot(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/cart/items", map[string]any{
		"kind":         "workshop_booking",
		"reference_id": "w1",
		"name":         "Wheel Throwing",
		"unit_price":   "1200",
		"quantity":     1,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_booking", field[string](t, body, "code"))
}

func TestAddItemRejectsBadQuantity(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/cart/items", map[string]any{
		"kind":         "product",
		"reference_id": "p1",
		"unit_price":   "750",
		"quantity":     0,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func waitForStatus(t *testing.T, srv *httptest.Server, sessionID, want string) map[string]json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/checkout/sessions/"+sessionID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		if field[string](t, body, "status") == want {
			return body
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("session never reached %s", want)
	return nil
}

func TestCheckoutOverHTTP(t *testing.T) {
	srv, store, _ := newTestServer(t)
	store.AddItem(cart.NewProductLine("p1", "Vase", "", decimal.NewFromInt(750), 2))

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/checkout/sessions/", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sessionID := field[string](t, body, "id")

	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/api/checkout/sessions/"+sessionID+"/form", map[string]any{
		"first_name":  "Asha",
		"last_name":   "Rao",
		"phone":       "9876543210",
		"email":       "asha@example.com",
		"address":     "12 Kiln Lane",
		"city":        "Pune",
		"state":       "Maharashtra",
		"postal_code": "411001",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/checkout/sessions/"+sessionID+"/submit", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	waitForStatus(t, srv, sessionID, "AWAITING_GATEWAY_RESULT")

	// The widget reports success through the webhook.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/payments/callback", map[string]any{
		"razorpay_order_id":   "order_http_1",
		"razorpay_payment_id": "pay_http",
		"razorpay_signature":  "sig_http",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body = waitForStatus(t, srv, sessionID, "SUCCEEDED")
	assert.Equal(t, "BS-2024-0099", field[string](t, body, "order_number"))
	assert.Equal(t, "1600", field[decimal.Decimal](t, body, "total").String())
}

func TestCheckoutValidationOverHTTP(t *testing.T) {
	srv, store, _ := newTestServer(t)
	store.AddItem(cart.NewProductLine("p1", "Vase", "", decimal.NewFromInt(750), 2))

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/checkout/sessions/", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sessionID := field[string](t, body, "id")

	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/api/checkout/sessions/"+sessionID+"/form", map[string]any{
		"first_name": "Asha",
		"phone":      "12345",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/checkout/sessions/"+sessionID+"/submit", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	// The session starts and ends in EDITING, so poll for the recorded
	// validation errors rather than the status.
	var errs map[string]string
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, body = doJSON(t, http.MethodGet, srv.URL+"/api/checkout/sessions/"+sessionID, nil)
		errs = field[map[string]string](t, body, "field_errors")
		if len(errs) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, "Please enter a valid 10-digit phone number", errs["phone"])
	assert.Equal(t, "EDITING", field[string](t, body, "status"))

	// A correction clears just that field's error.
	resp, body = doJSON(t, http.MethodPatch, srv.URL+"/api/checkout/sessions/"+sessionID+"/form", map[string]any{
		"field": "phone",
		"value": "9876543210",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	errs = field[map[string]string](t, body, "field_errors")
	assert.NotContains(t, errs, "phone")
	assert.Contains(t, errs, "last_name")
}

func TestGatewayNotReadyOverHTTP(t *testing.T) {
	srv, store, gw := newTestServer(t)
	store.AddItem(cart.NewProductLine("p1", "Vase", "", decimal.NewFromInt(750), 2))
	gw.SetReady(false)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/checkout/sessions/", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sessionID := field[string](t, body, "id")

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/checkout/sessions/"+sessionID+"/submit", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "gateway_not_ready", field[string](t, body, "code"))
}

func TestUnknownIntentCallbackRejected(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/payments/callback", map[string]any{
		"razorpay_order_id":   "order_nobody",
		"razorpay_payment_id": "pay_x",
		"razorpay_signature":  "sig_x",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "unknown_intent", field[string](t, body, "code"))
}

func TestRequestIDEchoedBack(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-fixed")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "req-fixed", resp.Header.Get("X-Request-ID"))
}

func TestIdentityEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/signin", map[string]any{"user_id": "u42"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "u42", field[string](t, body, "user_id"))

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/auth/identity", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "u42", field[string](t, body, "user_id"))

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/signout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
