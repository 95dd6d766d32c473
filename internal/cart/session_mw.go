package cart

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"RocketShoes/pkg/kit"
)

type ctxKey string

const sessionKey ctxKey = "session_id"

func SessionFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionKey).(string)
	return v, ok && v != ""
}

// RequireSessionHeader trusts the session id injected by the gateway. Ids
// must be UUIDs so they can be used verbatim as storage key segments.
func RequireSessionHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(kit.SessionHeader)
		if raw == "" {
			kit.WriteError(w, r, http.StatusUnauthorized, "missing session", nil)
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			kit.WriteError(w, r, http.StatusBadRequest, "invalid session", nil)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, id.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
