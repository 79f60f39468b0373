package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vasiliy-maslov/order-desk/internal/customer"
	"github.com/vasiliy-maslov/order-desk/internal/dashboard"
	"github.com/vasiliy-maslov/order-desk/internal/order"
)

// NewRouter mounts every handler under /api next to an unauthenticated /health probe.
func NewRouter(customers customer.Service, orders order.Service, metrics dashboard.Service) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Route("/api", func(r chi.Router) {
		NewCustomerHandler(customers).RegisterRoutes(r)
		NewOrderHandler(orders).RegisterRoutes(r)
		NewDashboardHandler(metrics).RegisterRoutes(r)
	})

	return router
}
