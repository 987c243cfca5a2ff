package httpsvc

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter собирает маршруты REST API. Все ручки требуют bearer-токен;
// правила владения и роли применяются внутри обработчиков.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(handler.authenticate)

		r.Post("/", handler.Create)
		r.Get("/", handler.ListMine)
		r.Get("/all", handler.ListAll)
		r.Get("/number/{orderNumber}", handler.GetByNumber)
		r.Get("/{orderID}", handler.GetByID)
		r.Put("/{orderID}", handler.Update)
		r.Patch("/{orderID}/status", handler.UpdateStatus)
		r.Delete("/{orderID}/cancel", handler.Cancel)
	})

	return r
}
