package repository

import (
	"encoding/json"
	"fmt"

	"github.com/basho-studio/storefront/internal/cart/domain"
)

// The persisted representation is the JSON-serialized cart snapshot. Both
// backends store the same payload so a scope can be migrated between them.

func encodeCart(cart *domain.Cart) ([]byte, error) {
	data, err := json.Marshal(cart)
	if err != nil {
		return nil, fmt.Errorf("marshal cart failed: %w", err)
	}
	return data, nil
}

func decodeCart(data []byte) (*domain.Cart, error) {
	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCartCorrupt, err)
	}
	return &cart, nil
}
