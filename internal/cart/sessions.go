package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"RocketShoes/internal/storage"
)

const (
	defaultMaxSessions = 10_000
	maxRetiredRetries  = 3
)

// ErrCartUnavailable means the session's cart could not be loaded.
var ErrCartUnavailable = errors.New("cart unavailable")

type SessionsConfig struct {
	Stock   StockLookup
	Catalog ProductCatalog
	Storage storage.Store
	// Namespace prefixes every session's storage scope.
	Namespace   string
	MaxSessions int
	Log         *zap.Logger
	Metrics     *Metrics
}

type session struct {
	m        *Manager
	lastUsed time.Time
}

// Sessions holds one Manager per session id, loading it from storage on first
// use. Idle carts beyond MaxSessions are dropped from memory; their state is
// already persisted and is reloaded on the next request.
type Sessions struct {
	cfg SessionsConfig
	now func() time.Time

	mu    sync.Mutex
	carts map[string]*session
}

func NewSessions(cfg SessionsConfig) *Sessions {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	return &Sessions{
		cfg:   cfg,
		now:   time.Now,
		carts: map[string]*session{},
	}
}

// Get returns the Manager for sessionID.
func (s *Sessions) Get(ctx context.Context, sessionID string) (*Manager, error) {
	if m := s.lookup(sessionID); m != nil {
		return m, nil
	}

	log := s.cfg.Log.With(zap.String("session_id", sessionID))
	m, err := Load(ctx, Deps{
		Stock:    s.cfg.Stock,
		Catalog:  s.cfg.Catalog,
		Storage:  storage.NewScoped(s.cfg.Storage, s.cfg.Namespace, sessionID),
		Notifier: LogNotifier{Log: log},
		Log:      log,
		Metrics:  s.cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// another request may have loaded the same session meanwhile
	if cur, ok := s.carts[sessionID]; ok {
		cur.lastUsed = s.now()
		return cur.m, nil
	}
	s.carts[sessionID] = &session{m: m, lastUsed: s.now()}
	s.evictLocked(sessionID)
	s.cfg.Metrics.sessions(len(s.carts))
	return m, nil
}

func (s *Sessions) lookup(sessionID string) *Manager {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.carts[sessionID]
	if !ok {
		return nil
	}
	cur.lastUsed = s.now()
	return cur.m
}

// Do runs fn with the session's Manager. When fn loses a race with eviction
// it is retried against the reloaded Manager.
func (s *Sessions) Do(ctx context.Context, sessionID string, fn func(*Manager) error) error {
	for attempt := 0; ; attempt++ {
		m, err := s.Get(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCartUnavailable, err)
		}
		err = fn(m)
		if !errors.Is(err, ErrRetired) || attempt == maxRetiredRetries {
			return err
		}
	}
}

// evictLocked drops least recently used carts until the bound holds. Carts
// with a mutation in flight or unsaved changes stay, as does keep.
func (s *Sessions) evictLocked(keep string) {
	if len(s.carts) <= s.cfg.MaxSessions {
		return
	}

	ids := make([]string, 0, len(s.carts))
	for id := range s.carts {
		if id != keep {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, func(a, b string) int {
		return s.carts[a].lastUsed.Compare(s.carts[b].lastUsed)
	})

	for _, id := range ids {
		if len(s.carts) <= s.cfg.MaxSessions {
			return
		}
		if s.carts[id].m.retire() {
			delete(s.carts, id)
		}
	}
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}

func (s *Sessions) Ping(ctx context.Context) error {
	return s.cfg.Storage.Ping(ctx)
}
