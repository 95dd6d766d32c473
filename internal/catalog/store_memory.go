package catalog

import (
	"context"
	"sort"
	"sync"
)

type MemStore struct {
	mu       sync.RWMutex
	products map[int64]Product
	stock    map[int64]int
}

type demoItem struct {
	Product Product
	Amount  int
}

var demoCatalog = []demoItem{
	{Product{ID: 1, Name: "Lightweight Walking Sneaker", PriceCents: 17990, ImageURL: "https://cdn.rocketshoes.dev/1.jpg"}, 3},
	{Product{ID: 2, Name: "Leather Detail Walking Sneaker", PriceCents: 13990, ImageURL: "https://cdn.rocketshoes.dev/2.jpg"}, 5},
	{Product{ID: 3, Name: "Duramo Lite 2.0 Runner", PriceCents: 21990, ImageURL: "https://cdn.rocketshoes.dev/3.jpg"}, 2},
	{Product{ID: 4, Name: "Trail Running Sneaker", PriceCents: 24990, ImageURL: "https://cdn.rocketshoes.dev/4.jpg"}, 1},
	{Product{ID: 5, Name: "Classic Court Sneaker", PriceCents: 13990, ImageURL: "https://cdn.rocketshoes.dev/5.jpg"}, 5},
	{Product{ID: 6, Name: "Everyday Comfort Sneaker", PriceCents: 11990, ImageURL: "https://cdn.rocketshoes.dev/6.jpg"}, 10},
}

// NewMemStore returns a store seeded with the demo storefront.
func NewMemStore() *MemStore {
	s := NewEmptyMemStore()
	for _, d := range demoCatalog {
		s.Put(d.Product, d.Amount)
	}
	return s
}

func NewEmptyMemStore() *MemStore {
	return &MemStore{
		products: map[int64]Product{},
		stock:    map[int64]int{},
	}
}

// Put inserts or replaces a product together with its stock level.
func (s *MemStore) Put(p Product, amount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	s.stock[p.ID] = amount
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) ListSortedByID(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) Get(ctx context.Context, id int64) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	return p, ok, nil
}

func (s *MemStore) GetStock(ctx context.Context, id int64) (Stock, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.stock[id]
	if !ok {
		return Stock{}, false, nil
	}
	return Stock{ID: id, Amount: a}, true, nil
}

func (s *MemStore) SetStock(ctx context.Context, id int64, amount int) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return ErrProductNotFound
	}
	s.stock[id] = amount
	return nil
}
