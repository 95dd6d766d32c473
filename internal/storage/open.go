package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"RocketShoes/internal/config"
	"RocketShoes/internal/database"
)

// Open builds the backend named by cfg.Backend. The returned close func
// releases its connections and is never nil.
func Open(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "", config.StorageMemory:
		log.Warn("using in-memory cart storage; carts are lost on restart")
		return NewMemStore(), noop, nil

	case config.StorageRedis:
		s, err := NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		log.Info("cart storage ready", zap.String("backend", cfg.Backend))
		return s, s.Close, nil

	case config.StoragePostgres:
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		if err := database.Migrate(db, log); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		log.Info("cart storage ready", zap.String("backend", cfg.Backend))
		return NewPostgresStore(db), db.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
