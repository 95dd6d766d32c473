package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"RocketShoes/internal/storage"
)

// fakeAPI is a configurable stock/catalog backend that counts its calls.
type fakeAPI struct {
	mu       sync.Mutex
	stock    map[int64]int
	products map[int64]ProductInfo

	StockErr   error
	ProductErr error

	StockCalls   int
	ProductCalls int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		stock: map[int64]int{1: 3, 2: 5, 3: 2, 4: 0},
		products: map[int64]ProductInfo{
			1: {ID: 1, Name: "Lightweight Walking Sneaker", PriceCents: 17990, ImageURL: "1.jpg"},
			2: {ID: 2, Name: "Leather Detail Walking Sneaker", PriceCents: 13990, ImageURL: "2.jpg"},
			3: {ID: 3, Name: "Duramo Lite 2.0 Runner", PriceCents: 21990, ImageURL: "3.jpg"},
			4: {ID: 4, Name: "Trail Running Sneaker", PriceCents: 24990, ImageURL: "4.jpg"},
		},
	}
}

func (f *fakeAPI) setStock(id int64, amount int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stock[id] = amount
}

func (f *fakeAPI) FetchStock(ctx context.Context, productID int64) (Stock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.StockCalls++
	if f.StockErr != nil {
		return Stock{}, f.StockErr
	}
	a, ok := f.stock[productID]
	if !ok {
		return Stock{}, ErrProductNotFound
	}
	return Stock{ID: productID, Amount: a}, nil
}

func (f *fakeAPI) FetchProduct(ctx context.Context, productID int64) (ProductInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ProductCalls++
	if f.ProductErr != nil {
		return ProductInfo{}, f.ProductErr
	}
	p, ok := f.products[productID]
	if !ok {
		return ProductInfo{}, ErrProductNotFound
	}
	return p, nil
}

// countingStorage wraps a MemStore, counting writes and optionally failing.
type countingStorage struct {
	*storage.MemStore

	mu     sync.Mutex
	sets   int
	SetErr error
	GetErr error
}

func newCountingStorage() *countingStorage {
	return &countingStorage{MemStore: storage.NewMemStore()}
}

func (s *countingStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if s.GetErr != nil {
		return "", false, s.GetErr
	}
	return s.MemStore.Get(ctx, key)
}

func (s *countingStorage) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetErr != nil {
		return s.SetErr
	}
	s.sets++
	return s.MemStore.Set(ctx, key, value)
}

func (s *countingStorage) Sets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

func (s *countingStorage) raw(t *testing.T) string {
	t.Helper()
	return s.rawAt(t, StorageKey)
}

func (s *countingStorage) rawAt(t *testing.T, key string) string {
	t.Helper()
	v, _, err := s.MemStore.Get(context.Background(), key)
	require.NoError(t, err)
	return v
}

type harness struct {
	m     *Manager
	api   *fakeAPI
	store *countingStorage
	notes *Recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, newFakeAPI(), newCountingStorage())
}

func newHarnessWith(t *testing.T, api *fakeAPI, store *countingStorage) *harness {
	t.Helper()

	notes := &Recorder{}
	m, err := Load(context.Background(), Deps{
		Stock:    api,
		Catalog:  api,
		Storage:  store,
		Notifier: notes,
	})
	require.NoError(t, err)

	return &harness{m: m, api: api, store: store, notes: notes}
}

var errBoom = errors.New("boom")
