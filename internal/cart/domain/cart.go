package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LineKind distinguishes the two variants of a cart line.
type LineKind string

const (
	KindProduct         LineKind = "product"
	KindWorkshopBooking LineKind = "workshop_booking"
)

// Scope is the namespace a cart is stored under: "guest" or an
// authenticated user id.
type Scope string

const ScopeGuest Scope = "guest"

func UserScope(userID string) Scope {
	return Scope(userID)
}

func (s Scope) IsGuest() bool { return s == ScopeGuest }

// BookingDetails are fixed when a workshop slot is chosen and never
// mutated afterwards.
type BookingDetails struct {
	SlotID           string `json:"slot_id" bson:"slot_id"`
	SlotDate         string `json:"slot_date" bson:"slot_date"`
	StartTime        string `json:"start_time" bson:"start_time"`
	EndTime          string `json:"end_time" bson:"end_time"`
	ParticipantName  string `json:"participant_name" bson:"participant_name"`
	ParticipantEmail string `json:"participant_email" bson:"participant_email"`
	ParticipantPhone string `json:"participant_phone" bson:"participant_phone"`
	SpecialRequests  string `json:"special_requests,omitempty" bson:"special_requests,omitempty"`
}

// LineItem is one entry in the cart. Kind tells consumers which variant
// they are looking at; Booking is set only for workshop bookings.
type LineItem struct {
	CartKey     string          `json:"cart_key" bson:"cart_key"`
	Kind        LineKind        `json:"kind" bson:"kind"`
	ReferenceID string          `json:"reference_id" bson:"reference_id"`
	Name        string          `json:"name" bson:"name"`
	Image       string          `json:"image,omitempty" bson:"image,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price" bson:"unit_price"`
	Quantity    int             `json:"quantity" bson:"quantity"`
	Booking     *BookingDetails `json:"booking,omitempty" bson:"booking,omitempty"`
	AddedAt     time.Time       `json:"added_at" bson:"added_at"`
}

// NewProductLine builds a product line keyed by the catalog product id.
func NewProductLine(productID, name, image string, unitPrice decimal.Decimal, quantity int) LineItem {
	if quantity < 1 {
		quantity = 1
	}
	return LineItem{
		CartKey:     productID,
		Kind:        KindProduct,
		ReferenceID: productID,
		Name:        name,
		Image:       image,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
	}
}

// NewBookingLine builds a workshop booking line. Two bookings of the same
// workshop on different slots get distinct cart keys.
func NewBookingLine(workshopID, name, image string, unitPrice decimal.Decimal, participants int, details BookingDetails) LineItem {
	if participants < 1 {
		participants = 1
	}
	d := details
	return LineItem{
		CartKey:     BookingCartKey(workshopID, details.SlotID),
		Kind:        KindWorkshopBooking,
		ReferenceID: workshopID,
		Name:        name,
		Image:       image,
		UnitPrice:   unitPrice,
		Quantity:    participants,
		Booking:     &d,
	}
}

// BookingCartKey is the cart key format for workshop bookings.
func BookingCartKey(workshopID, slotID string) string {
	return fmt.Sprintf("workshop:%s:%s", workshopID, slotID)
}

// LineTotal is unit price times quantity.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the ordered list of line items for one identity scope.
type Cart struct {
	Scope     Scope      `json:"scope" bson:"scope"`
	Items     []LineItem `json:"items" bson:"items"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}

func NewCart(scope Scope) *Cart {
	now := time.Now()
	return &Cart{Scope: scope, CreatedAt: now, UpdatedAt: now}
}

// Add merges a product line into an existing line with the same cart key,
// bumping quantity. Workshop bookings are always appended; preventing
// duplicate bookings is the caller's job.
func (c *Cart) Add(item LineItem) {
	now := time.Now()
	if item.Kind == KindProduct {
		for i := range c.Items {
			if c.Items[i].CartKey == item.CartKey {
				c.Items[i].Quantity += item.Quantity
				c.UpdatedAt = now
				return
			}
		}
	}
	item.AddedAt = now
	c.Items = append(c.Items, item)
	c.UpdatedAt = now
}

// UpdateQuantity replaces a product line's quantity. A quantity of zero or
// less removes the line. Booking lines are atomic: their participant count
// is fixed at creation, so a positive quantity is ignored for them.
// Unknown cart keys are a no-op.
func (c *Cart) UpdateQuantity(cartKey string, quantity int) {
	if quantity <= 0 {
		c.Remove(cartKey)
		return
	}
	for i := range c.Items {
		if c.Items[i].CartKey != cartKey {
			continue
		}
		if c.Items[i].Kind == KindWorkshopBooking {
			return
		}
		c.Items[i].Quantity = quantity
		c.UpdatedAt = time.Now()
		return
	}
}

// Remove deletes the line with the given cart key; no-op if absent.
func (c *Cart) Remove(cartKey string) {
	for i, item := range c.Items {
		if item.CartKey == cartKey {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.UpdatedAt = time.Now()
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = nil
	c.UpdatedAt = time.Now()
}

// Total sums unit price times quantity over all lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Count reports the badge count: product lines count by quantity, each
// booking line counts as one booking regardless of participants.
func (c *Cart) Count() int {
	count := 0
	for _, item := range c.Items {
		switch item.Kind {
		case KindWorkshopBooking:
			count++
		default:
			count += item.Quantity
		}
	}
	return count
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

// Clone deep-copies the cart so checkout can hold a snapshot that later
// store mutations cannot touch.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = make([]LineItem, len(c.Items))
	copy(cp.Items, c.Items)
	for i := range cp.Items {
		if b := cp.Items[i].Booking; b != nil {
			bc := *b
			cp.Items[i].Booking = &bc
		}
	}
	return &cp
}
