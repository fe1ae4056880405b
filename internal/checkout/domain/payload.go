package domain

import (
	"github.com/shopspring/decimal"

	cart "github.com/basho-studio/storefront/internal/cart/domain"
)

// OrderLine is one cart line flattened for the order record.
type OrderLine struct {
	ReferenceID string          `json:"product"`
	Name        string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"product_price"`
	Quantity    int             `json:"quantity"`
	Kind        cart.LineKind   `json:"kind"`
}

// OrderPayload is the full order forwarded to verification. The order
// service creates the durable record from it only after the signature
// checks out.
type OrderPayload struct {
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerPhone   string          `json:"customer_phone"`
	ShippingAddress string          `json:"shipping_address"`
	ShippingCity    string          `json:"shipping_city"`
	ShippingState   string          `json:"shipping_state"`
	ShippingPincode string          `json:"shipping_pincode"`
	PaymentMethod   string          `json:"payment_method"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingCharge  decimal.Decimal `json:"shipping_charge"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Items           []OrderLine     `json:"items"`
	// UserID is set only for signed-in shoppers.
	UserID string `json:"user,omitempty"`
}

// BuildOrderPayload assembles the order record input from the session's
// cart snapshot and resolved pricing.
func BuildOrderPayload(form FormData, snapshot *cart.Cart, subtotal, shipping, total decimal.Decimal, userID string) OrderPayload {
	lines := make([]OrderLine, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		lines = append(lines, OrderLine{
			ReferenceID: item.ReferenceID,
			Name:        item.Name,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Kind:        item.Kind,
		})
	}
	return OrderPayload{
		CustomerName:    form.CustomerName(),
		CustomerEmail:   form.Email,
		CustomerPhone:   form.Phone,
		ShippingAddress: form.Address,
		ShippingCity:    form.City,
		ShippingState:   form.State,
		ShippingPincode: form.PostalCode,
		PaymentMethod:   "razorpay",
		Subtotal:        subtotal,
		ShippingCharge:  shipping,
		TotalAmount:     total,
		Items:           lines,
		UserID:          userID,
	}
}
