package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"RocketShoes/pkg/kit"
)

type Server struct {
	Store Store
	Log   *zap.Logger
}

type setStockReq struct {
	Amount *int `json:"amount"`
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Store.Ping(ctx); err != nil {
			s.log().Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/products", s.list)
	r.Get("/products/{id}", s.get)
	r.Get("/stock/{id}", s.getStock)
	r.Put("/stock/{id}", s.setStock)

	return r
}

func (s *Server) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.ListSortedByID(r.Context())
	if err != nil {
		s.log().Error("list products failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	p, found, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.log().Error("get product failed", zap.Error(err), zap.Int64("id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) getStock(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	st, found, err := s.Store.GetStock(r.Context(), id)
	if err != nil {
		s.log().Error("get stock failed", zap.Error(err), zap.Int64("id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, st)
}

func (s *Server) setStock(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var req setStockReq
	if err := kit.DecodeJSON(w, r, &req); err != nil || req.Amount == nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	err := s.Store.SetStock(r.Context(), id, *req.Amount)
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidAmount):
		kit.WriteError(w, r, http.StatusBadRequest, "amount must be >= 0", nil)
		return
	case errors.Is(err, ErrProductNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	default:
		s.log().Error("set stock failed", zap.Error(err), zap.Int64("id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	s.log().Info("stock updated", zap.Int64("id", id), zap.Int("amount", *req.Amount))
	kit.WriteJSON(w, http.StatusOK, Stock{ID: id, Amount: *req.Amount})
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid id", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}
