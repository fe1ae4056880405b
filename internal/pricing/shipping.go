package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ShippingItem is one product line forwarded for weighing. Booking lines
// never appear here.
type ShippingItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type ShippingClient interface {
	QuoteShipping(ctx context.Context, items []ShippingItem, subtotal decimal.Decimal) (decimal.Decimal, error)
}

type shippingRequest struct {
	Items    []ShippingItem  `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type shippingResponse struct {
	ShippingCharge decimal.Decimal `json:"shippingCharge"`
	Error          string          `json:"error,omitempty"`
}

// HTTPShippingClient calls the shipping rate service. A circuit breaker
// sits in front so a flapping service degrades to the caller's fallback
// fast instead of on timeouts.
type HTTPShippingClient struct {
	base    string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[decimal.Decimal]
}

func NewHTTPShippingClient(baseURL string, timeout time.Duration) *HTTPShippingClient {
	settings := gobreaker.Settings{
		Name:    "shipping-rate-service",
		Timeout: 30 * time.Second,
	}
	return &HTTPShippingClient{
		base: baseURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[decimal.Decimal](settings),
	}
}

func (c *HTTPShippingClient) QuoteShipping(ctx context.Context, items []ShippingItem, subtotal decimal.Decimal) (decimal.Decimal, error) {
	return c.breaker.Execute(func() (decimal.Decimal, error) {
		return c.quote(ctx, items, subtotal)
	})
}

func (c *HTTPShippingClient) quote(ctx context.Context, items []ShippingItem, subtotal decimal.Decimal) (decimal.Decimal, error) {
	body, err := json.Marshal(shippingRequest{Items: items, Subtotal: subtotal})
	if err != nil {
		return decimal.Zero, fmt.Errorf("marshal shipping request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/calculate-shipping/", bytes.NewReader(body))
	if err != nil {
		return decimal.Zero, fmt.Errorf("build shipping request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("shipping rate service unreachable: %w", err)
	}
	defer resp.Body.Close()

	var out shippingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return decimal.Zero, fmt.Errorf("decode shipping response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != "" {
			return decimal.Zero, fmt.Errorf("shipping rate service: %s", out.Error)
		}
		return decimal.Zero, fmt.Errorf("shipping rate service returned %d", resp.StatusCode)
	}
	return out.ShippingCharge, nil
}
