// Package client talks to the order service: reserving a payment intent
// before the gateway opens, and verifying the gateway's callback before
// an order record is created.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/basho-studio/storefront/internal/checkout/domain"
)

// IntentReservation is the order service's answer to a reserve request.
type IntentReservation struct {
	IntentRef  string
	GatewayKey string
	Amount     int64
	Currency   string
}

// VerifyRequest forwards the gateway callback plus the full order payload
// for signature verification and durable order creation.
type VerifyRequest struct {
	PaymentRef string
	IntentRef  string
	Signature  string
	Order      domain.OrderPayload
}

var ErrVerificationRejected = errors.New("payment verification rejected")

type OrderClient interface {
	ReserveIntent(ctx context.Context, amount decimal.Decimal, name, email, phone string) (*IntentReservation, error)
	// VerifyAndCreate returns the order number on success. The order
	// service keys order creation by intent reference, so a duplicate
	// call cannot mint a second order.
	VerifyAndCreate(ctx context.Context, req VerifyRequest) (string, error)
}

type HTTPOrderClient struct {
	base   string
	client *http.Client
}

func NewHTTPOrderClient(baseURL string, timeout time.Duration) *HTTPOrderClient {
	return &HTTPOrderClient{
		base: baseURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type reserveIntentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	CustomerPhone string          `json:"customer_phone"`
}

type reserveIntentResponse struct {
	Success  bool   `json:"success"`
	OrderID  string `json:"order_id"`
	Key      string `json:"key"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Error    string `json:"error,omitempty"`
}

func (c *HTTPOrderClient) ReserveIntent(ctx context.Context, amount decimal.Decimal, name, email, phone string) (*IntentReservation, error) {
	req := reserveIntentRequest{
		Amount:        amount,
		CustomerName:  name,
		CustomerEmail: email,
		CustomerPhone: phone,
	}

	var resp reserveIntentResponse
	if err := c.post(ctx, "/api/products/create-razorpay-order/", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		if resp.Error != "" {
			return nil, fmt.Errorf("reserve intent: %s", resp.Error)
		}
		return nil, errors.New("reserve intent: order service refused")
	}
	return &IntentReservation{
		IntentRef:  resp.OrderID,
		GatewayKey: resp.Key,
		Amount:     resp.Amount,
		Currency:   resp.Currency,
	}, nil
}

type verifyPaymentRequest struct {
	IntentRef  string              `json:"razorpay_order_id"`
	PaymentRef string              `json:"razorpay_payment_id"`
	Signature  string              `json:"razorpay_signature"`
	OrderData  domain.OrderPayload `json:"order_data"`
}

type verifyPaymentResponse struct {
	Success     bool   `json:"success"`
	OrderNumber string `json:"order_number"`
	Error       string `json:"error,omitempty"`
}

func (c *HTTPOrderClient) VerifyAndCreate(ctx context.Context, req VerifyRequest) (string, error) {
	body := verifyPaymentRequest{
		IntentRef:  req.IntentRef,
		PaymentRef: req.PaymentRef,
		Signature:  req.Signature,
		OrderData:  req.Order,
	}

	var resp verifyPaymentResponse
	if err := c.post(ctx, "/api/products/verify-payment/", body, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		if resp.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrVerificationRejected, resp.Error)
		}
		return "", ErrVerificationRejected
	}
	return resp.OrderNumber, nil
}

func (c *HTTPOrderClient) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("order service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode order service response: %w", err)
	}
	return nil
}
