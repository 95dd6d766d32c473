package cart

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type StockLookup interface {
	FetchStock(ctx context.Context, productID int64) (Stock, error)
}

type ProductCatalog interface {
	FetchProduct(ctx context.Context, productID int64) (ProductInfo, error)
}

// Storage is the durable slot the cart is saved to. storage.Store satisfies it.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type Deps struct {
	Stock    StockLookup
	Catalog  ProductCatalog
	Storage  Storage
	Notifier Notifier
	Log      *zap.Logger
	Metrics  *Metrics
}

// Manager is the single owner of one cart. Mutations are serialized through
// writeMu for their whole duration, remote calls included, so two concurrent
// mutations can never both commit against the same snapshot. Readers only
// take mu and never wait on a remote call.
type Manager struct {
	deps Deps

	writeMu sync.Mutex
	// persisted is the last serialized form written to (or read from) storage.
	// Guarded by writeMu.
	persisted []byte
	// dirty is set while storage lags behind items. Guarded by writeMu.
	dirty bool
	// retired is set once Sessions has dropped this Manager. Guarded by writeMu.
	retired bool

	mu    sync.RWMutex
	items Cart
}

// Load restores the cart saved in deps.Storage. Absent or malformed data
// yields an empty cart; only a failing storage read is an error.
func Load(ctx context.Context, deps Deps) (*Manager, error) {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = NopNotifier{}
	}

	m := &Manager{deps: deps, items: Cart{}}

	raw, ok, err := deps.Storage.Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if !ok {
		return m, nil
	}

	c, err := Decode([]byte(raw))
	if err != nil {
		deps.Log.Warn("stored cart is malformed, starting empty", zap.Error(err))
		return m, nil
	}

	m.items = c
	m.persisted = []byte(raw)
	return m, nil
}

// Items returns a copy of the current line items in insertion order.
func (m *Manager) Items() Cart {
	return m.snapshot().Clone()
}

func (m *Manager) snapshot() Cart {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.items
}

// AddProduct adds one unit of productID, fetching catalog data when the
// product is not yet in the cart. The new amount must not exceed stock.
func (m *Manager) AddProduct(ctx context.Context, productID int64) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if m.retired {
		return ErrRetired
	}

	return m.finish(OpAdd, productID, m.addProduct(ctx, productID))
}

func (m *Manager) addProduct(ctx context.Context, productID int64) error {
	stock, err := m.deps.Stock.FetchStock(ctx, productID)
	if err != nil {
		return newOpError(OpAdd, productID, ErrRemoteFailure, err)
	}
	if stock.Amount <= 0 {
		return newOpError(OpAdd, productID, ErrStockExhausted, nil)
	}

	next := m.snapshot().Clone()
	idx := next.Index(productID)

	amount := 1
	if idx >= 0 {
		amount = next[idx].Amount + 1
	}
	if amount > stock.Amount {
		return newOpError(OpAdd, productID, ErrStockExhausted, nil)
	}

	if idx >= 0 {
		next[idx].Amount = amount
	} else {
		info, err := m.deps.Catalog.FetchProduct(ctx, productID)
		if err != nil {
			return newOpError(OpAdd, productID, ErrRemoteFailure, err)
		}
		if info.ID != productID {
			return newOpError(OpAdd, productID, ErrRemoteFailure,
				fmt.Errorf("catalog returned product %d", info.ID))
		}
		next = append(next, Product{ProductInfo: info, Amount: amount})
	}

	m.commit(ctx, next)
	return nil
}

// RemoveProduct drops the line item for productID. The remaining items keep
// their order.
func (m *Manager) RemoveProduct(ctx context.Context, productID int64) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if m.retired {
		return ErrRetired
	}

	return m.finish(OpRemove, productID, m.removeProduct(ctx, productID))
}

func (m *Manager) removeProduct(ctx context.Context, productID int64) error {
	current := m.snapshot()

	next := make(Cart, 0, len(current))
	for _, p := range current {
		if p.ID != productID {
			next = append(next, p)
		}
	}
	if len(next) == len(current) {
		return newOpError(OpRemove, productID, ErrNotFound, nil)
	}

	m.commit(ctx, next)
	return nil
}

// UpdateProductAmount sets the amount of an existing line item. Amounts <= 0
// are ignored without error; callers remove items with RemoveProduct.
func (m *Manager) UpdateProductAmount(ctx context.Context, u UpdateAmount) error {
	if u.Amount <= 0 {
		m.deps.Metrics.mutation(OpUpdate, "noop")
		return nil
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if m.retired {
		return ErrRetired
	}

	return m.finish(OpUpdate, u.ProductID, m.updateProductAmount(ctx, u))
}

func (m *Manager) updateProductAmount(ctx context.Context, u UpdateAmount) error {
	stock, err := m.deps.Stock.FetchStock(ctx, u.ProductID)
	if err != nil {
		return newOpError(OpUpdate, u.ProductID, ErrRemoteFailure, err)
	}
	if u.Amount > stock.Amount {
		return newOpError(OpUpdate, u.ProductID, ErrStockExhausted, nil)
	}

	next := m.snapshot().Clone()
	idx := next.Index(u.ProductID)
	if idx < 0 {
		return newOpError(OpUpdate, u.ProductID, ErrNotFound, nil)
	}
	next[idx].Amount = u.Amount

	m.commit(ctx, next)
	return nil
}

// finish records the outcome and turns a failure into a user notification.
func (m *Manager) finish(op Op, productID int64, err error) error {
	m.deps.Metrics.mutation(op, KindName(err))
	if err == nil {
		return nil
	}

	oe, ok := err.(*OpError)
	if !ok {
		oe = newOpError(op, productID, ErrRemoteFailure, err)
	}

	m.deps.Log.Warn("cart mutation failed",
		zap.String("op", string(op)),
		zap.Int64("product_id", productID),
		zap.String("kind", KindName(oe)),
		zap.String("message", oe.Message()),
		zap.Error(oe.Err),
	)
	m.deps.Notifier.NotifyError(oe.Message())
	return oe
}

// commit publishes next and saves it when its serialized form changed.
// Caller holds writeMu.
func (m *Manager) commit(ctx context.Context, next Cart) {
	m.mu.Lock()
	m.items = next
	m.mu.Unlock()

	data, err := Encode(next)
	if err != nil {
		m.dirty = true
		m.deps.Log.Error("encode cart failed", zap.Error(err))
		return
	}
	if bytes.Equal(data, m.persisted) {
		m.dirty = false
		return
	}

	// the mutation already happened; a caller hanging up must not skip the save
	if err := m.deps.Storage.Set(context.WithoutCancel(ctx), StorageKey, string(data)); err != nil {
		m.dirty = true
		m.deps.Metrics.storageWrite("error")
		m.deps.Log.Error("persist cart failed", zap.Error(err))
		return
	}
	m.deps.Metrics.storageWrite("ok")
	m.persisted = data
	m.dirty = false
}

// retire marks m as dropped from memory so that later mutations fail with
// ErrRetired instead of racing a freshly loaded Manager. It refuses while a
// mutation is in flight or while storage is behind.
func (m *Manager) retire() bool {
	if !m.writeMu.TryLock() {
		return false
	}
	defer m.writeMu.Unlock()

	if m.dirty {
		return false
	}
	m.retired = true
	return true
}
