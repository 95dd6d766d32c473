package cart

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"RocketShoes/pkg/kit"
)

type Server struct {
	Sessions *Sessions
	Log      *zap.Logger
}

type lineView struct {
	Product
	SubtotalCents int64 `json:"subtotal_cents"`
}

type cartView struct {
	Items      []lineView `json:"items"`
	Size       int        `json:"size"`
	TotalCents int64      `json:"total_cents"`
}

type addReq struct {
	ProductID int64 `json:"product_id"`
}

type updateReq struct {
	Amount *int `json:"amount"`
}

func newCartView(c Cart) cartView {
	v := cartView{
		Items:      make([]lineView, 0, len(c)),
		Size:       c.Len(),
		TotalCents: c.TotalCents(),
	}
	for _, p := range c {
		v.Items = append(v.Items, lineView{Product: p, SubtotalCents: p.SubtotalCents()})
	}
	return v
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/cart", s.view)
	r.Post("/cart/items", s.add)
	r.Put("/cart/items/{id}", s.update)
	r.Delete("/cart/items/{id}", s.remove)
}

func (s *Server) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	sid, ok := SessionFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no session", nil)
	}
	return sid, ok
}

// do runs fn against the session's cart and writes the resulting view.
func (s *Server) do(w http.ResponseWriter, r *http.Request, fn func(*Manager) error) {
	sid, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	var view cartView
	err := s.Sessions.Do(r.Context(), sid, func(m *Manager) error {
		if err := fn(m); err != nil {
			return err
		}
		view = newCartView(m.Items())
		return nil
	})
	if err != nil {
		s.writeError(w, r, sid, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, view)
}

func (s *Server) view(w http.ResponseWriter, r *http.Request) {
	s.do(w, r, func(*Manager) error { return nil })
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	var req addReq
	if err := kit.DecodeJSON(w, r, &req); err != nil || req.ProductID <= 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	s.do(w, r, func(m *Manager) error {
		return m.AddProduct(r.Context(), req.ProductID)
	})
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(w, r)
	if !ok {
		return
	}
	var req updateReq
	if err := kit.DecodeJSON(w, r, &req); err != nil || req.Amount == nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	s.do(w, r, func(m *Manager) error {
		return m.UpdateProductAmount(r.Context(), UpdateAmount{ProductID: id, Amount: *req.Amount})
	})
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(w, r)
	if !ok {
		return
	}

	s.do(w, r, func(m *Manager) error {
		return m.RemoveProduct(r.Context(), id)
	})
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid product id", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, sid string, err error) {
	var oe *OpError
	switch {
	case errors.As(err, &oe):
		writeOpError(w, r, oe)
	case errors.Is(err, ErrCartUnavailable):
		s.log().Error("load cart failed", zap.Error(err), zap.String("session_id", sid))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "cart unavailable", nil)
	default:
		s.log().Error("cart request failed", zap.Error(err), zap.String("session_id", sid))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func writeOpError(w http.ResponseWriter, r *http.Request, oe *OpError) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(oe, ErrStockExhausted):
		status = http.StatusConflict
	case errors.Is(oe, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(oe, ErrRemoteFailure):
		status = http.StatusBadGateway
	}

	kit.WriteError(w, r, status, oe.Message(), map[string]any{
		"kind":       KindName(oe),
		"product_id": oe.ProductID,
	})
}
