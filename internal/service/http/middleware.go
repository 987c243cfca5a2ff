package httpsvc

import (
	"context"
	"net/http"
	"strings"

	"github.com/vladislavdragonenkov/orders/internal/auth"
)

type contextKey string

const identityContextKey contextKey = "identity"

// authenticate проверяет bearer-токен и кладёт Identity в контекст запроса.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := h.gate.RequireUser(bearerToken(r))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// identityFrom достаёт Identity из контекста; аутентификация гарантируется
// middleware, поэтому пустая Identity возможна только при ошибке маршрутизации.
func identityFrom(ctx context.Context) auth.Identity {
	identity, _ := ctx.Value(identityContextKey).(auth.Identity)
	return identity
}
