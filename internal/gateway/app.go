package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"RocketShoes/internal/session"
	"RocketShoes/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

type Deps struct {
	CatalogURL    string
	CartURL       string
	SessionSecret string
	SessionTTL    time.Duration
	// SessionRateLimit caps POST /session per client IP per minute.
	SessionRateLimit int
	// TrustProxy makes the rate limit key on X-Forwarded-For.
	TrustProxy bool
}

type sessionResp struct {
	SessionID    string `json:"session_id"`
	SessionToken string `json:"session_token"`
	ExpiresAt    string `json:"expires_at"`
}

const (
	readyTimeout      = 2 * time.Second
	readyProbeTimeout = 700 * time.Millisecond

	defaultSessionTTL       = 30 * 24 * time.Hour
	defaultSessionRateLimit = 10
	sessionRateWindow       = time.Minute
)

var readyClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	},
}

func NewHandler(deps Deps, httpDeps HTTPDeps) (http.Handler, error) {
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = defaultSessionTTL
	}
	if deps.SessionRateLimit <= 0 {
		deps.SessionRateLimit = defaultSessionRateLimit
	}

	catalogProxy, err := NewReverseProxy(deps.CatalogURL, httpDeps.Log)
	if err != nil {
		return nil, fmt.Errorf("catalog proxy: %w", err)
	}
	cartProxy, err := NewReverseProxy(deps.CartURL, httpDeps.Log)
	if err != nil {
		return nil, fmt.Errorf("cart proxy: %w", err)
	}

	tm := session.NewTokenMaker(deps.SessionSecret)
	limiter := kit.NewIPRateLimiter(deps.SessionRateLimit, sessionRateWindow)
	limiter.TrustForwardedFor = deps.TrustProxy

	r := chi.NewRouter()
	setupMiddleware(r, httpDeps)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps, httpDeps.Log))

	r.With(limiter.Middleware).Post("/session", issueSession(tm, deps.SessionTTL, httpDeps.Log))

	// the catalog is read-only from the outside
	r.Get("/products", catalogProxy.ServeHTTP)
	r.Get("/products/*", catalogProxy.ServeHTTP)
	r.Get("/stock/*", catalogProxy.ServeHTTP)

	r.Group(func(pr chi.Router) {
		pr.Use(AuthSession(tm))
		pr.Use(InjectSession)
		pr.Handle("/cart", cartProxy)
		pr.Handle("/cart/*", cartProxy)
	})

	return r, nil
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func issueSession(tm *session.TokenMaker, ttl time.Duration, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, tok, err := tm.NewSession(ttl)
		if err != nil {
			if log != nil {
				log.Error("issue session token failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
			return
		}
		kit.WriteJSON(w, http.StatusCreated, sessionResp{
			SessionID:    sid,
			SessionToken: tok,
			ExpiresAt:    time.Now().Add(ttl).UTC().Format(time.RFC3339),
		})
	}
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(deps Deps, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		for _, upstream := range []struct{ name, url string }{
			{"catalog", deps.CatalogURL},
			{"cart", deps.CartURL},
		} {
			if err := checkReady(ctx, upstream.url+"/readyz"); err != nil {
				if log != nil {
					log.Warn("readyz failed", zap.String("upstream", upstream.name), zap.Error(err))
				}
				kit.WriteError(w, r, http.StatusServiceUnavailable, upstream.name+" not ready", nil)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
	}
}

func checkReady(ctx context.Context, url string) error {
	cctx, cancel := context.WithTimeout(ctx, readyProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := readyClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status=%d", resp.StatusCode)
	}

	return nil
}
