package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"RocketShoes/internal/config"
	"RocketShoes/internal/gateway"
	"RocketShoes/pkg/kit"
)

func main() {
	service := "gateway"

	cfg, err := config.Load("8080")
	if err != nil {
		panic(err)
	}

	log := kit.NewLogger(service, cfg.Service.Env)
	defer func() { _ = log.Sync() }()

	if len(cfg.Session.Secret) < 32 {
		log.Fatal("SESSION_SECRET is required and must be at least 32 chars")
	}

	h, err := gateway.NewHandler(gateway.Deps{
		CatalogURL:       cfg.Catalog.URL,
		CartURL:          cfg.Cart.URL,
		SessionSecret:    cfg.Session.Secret,
		SessionTTL:       cfg.Session.TTL,
		SessionRateLimit: cfg.Session.RateLimit,
		TrustProxy:       cfg.Session.TrustProxy,
	}, gateway.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: true,
		MetricsToken:   cfg.Metrics.Token,
	})
	if err != nil {
		log.Fatal("init gateway handler failed", zap.Error(err))
	}

	if err := kit.RunHTTPServer(":"+cfg.Service.Port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
