package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"RocketShoes/internal/catalog"
	"RocketShoes/internal/config"
	"RocketShoes/internal/database"
	"RocketShoes/pkg/kit"
)

func main() {
	service := "catalog"

	cfg, err := config.Load("8082")
	if err != nil {
		panic(err)
	}

	log := kit.NewLogger(service, cfg.Service.Env)
	defer func() { _ = log.Sync() }()

	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		log.Fatal("open catalog store failed", zap.Error(err))
	}
	defer func() { _ = closeStore() }()

	reg := prometheus.NewRegistry()
	h := catalog.NewHandler(&catalog.Server{Store: store, Log: log}, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: true,
		MetricsToken:   cfg.Metrics.Token,
	})

	if err := kit.RunHTTPServer(":"+cfg.Service.Port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func openStore(cfg *config.Config, log *zap.Logger) (catalog.Store, func() error, error) {
	if cfg.Catalog.Backend != config.StoragePostgres {
		return catalog.NewMemStore(), func() error { return nil }, nil
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.Storage.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db, log); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	pg := catalog.NewPostgresStore(db)
	seeded, err := pg.SeedDemo(ctx)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if seeded {
		log.Info("seeded empty catalog with demo products")
	}
	return pg, db.Close, nil
}
