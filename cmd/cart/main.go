package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"RocketShoes/internal/cart"
	"RocketShoes/internal/config"
	"RocketShoes/internal/storage"
	"RocketShoes/pkg/kit"
)

func main() {
	service := "cart"

	cfg, err := config.Load("8083")
	if err != nil {
		panic(err)
	}

	log := kit.NewLogger(service, cfg.Service.Env)
	defer func() { _ = log.Sync() }()

	store, closeStore, err := storage.Open(context.Background(), cfg.Storage, log)
	if err != nil {
		log.Fatal("open cart storage failed", zap.Error(err))
	}
	defer func() { _ = closeStore() }()

	reg := prometheus.NewRegistry()
	api := cart.NewAPIClient(cfg.Catalog.URL, cfg.Catalog.Timeout)

	s := &cart.Server{
		Sessions: cart.NewSessions(cart.SessionsConfig{
			Stock:     api,
			Catalog:   api,
			Storage:   store,
			Namespace: cfg.Storage.Namespace,
			Log:       log,
			Metrics:   cart.NewMetrics(reg),
		}),
		Log: log,
	}

	h := cart.NewHandler(s, cart.HTTPDeps{
		Log:          log,
		Service:      service,
		Registry:     reg,
		MetricsToken: cfg.Metrics.Token,
	})

	if err := kit.RunHTTPServer(":"+cfg.Service.Port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
