package catalog

import (
	"context"
	"errors"
)

var ErrInvalidAmount = errors.New("stock amount must be >= 0")

// Product is the descriptive catalog record. It never carries a cart amount.
type Product struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	ImageURL   string `json:"image_url"`
}

// Stock is the available quantity of one product.
type Stock struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

type Store interface {
	Ping(ctx context.Context) error
	ListSortedByID(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, bool, error)
	GetStock(ctx context.Context, id int64) (Stock, bool, error)
	SetStock(ctx context.Context, id int64, amount int) error
}
