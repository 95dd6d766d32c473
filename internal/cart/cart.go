// Package cart owns the shopping cart of one session: the ordered list of
// line items, the stock-checked mutations on it and its persistence.
package cart

import (
	"encoding/json"
	"errors"
	"fmt"
)

// StorageKey is the slot a cart is saved under inside its session scope.
const StorageKey = "@RocketShoes:cart"

// ProductInfo is catalog data for a product, without a cart amount.
type ProductInfo struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	ImageURL   string `json:"image_url"`
}

// Product is a cart line item.
type Product struct {
	ProductInfo
	Amount int `json:"amount"`
}

// Stock is the remote service's available quantity for a product at query time.
type Stock struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

// UpdateAmount is the argument of Manager.UpdateProductAmount.
type UpdateAmount struct {
	ProductID int64
	Amount    int
}

// Cart is an ordered list of line items with unique product ids. Values are
// never mutated after being published by a Manager; mutations work on Clone.
type Cart []Product

var (
	errNonPositiveAmount = errors.New("line item amount must be positive")
	errDuplicateID       = errors.New("duplicate product id")
)

func (c Cart) Index(productID int64) int {
	for i := range c {
		if c[i].ID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Len is the number of distinct products in the cart.
func (c Cart) Len() int { return len(c) }

func (p Product) SubtotalCents() int64 {
	return p.PriceCents * int64(p.Amount)
}

func (c Cart) TotalCents() int64 {
	var total int64
	for _, p := range c {
		total += p.SubtotalCents()
	}
	return total
}

// Validate checks the structural invariants: positive amounts and unique ids.
func (c Cart) Validate() error {
	seen := make(map[int64]struct{}, len(c))
	for _, p := range c {
		if p.Amount <= 0 {
			return fmt.Errorf("product %d: %w", p.ID, errNonPositiveAmount)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("product %d: %w", p.ID, errDuplicateID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// Encode serializes c as a JSON array. An empty cart encodes as [].
func Encode(c Cart) ([]byte, error) {
	if c == nil {
		c = Cart{}
	}
	return json.Marshal(c)
}

// Decode parses a stored cart and rejects data that breaks the invariants.
func Decode(data []byte) (Cart, error) {
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if c == nil {
		return nil, errors.New("decode cart: not a list")
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return c, nil
}
