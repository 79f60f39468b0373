package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/order-desk/internal/dashboard"
)

type DashboardHandler struct {
	service dashboard.Service
}

func NewDashboardHandler(service dashboard.Service) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (h *DashboardHandler) RegisterRoutes(router chi.Router) {
	router.Get("/dashboard", h.handleGetMetrics)
}

func (h *DashboardHandler) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.GetMetrics(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute dashboard metrics")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to compute dashboard metrics")
		return
	}

	respondWithJSON(w, http.StatusOK, metrics)
}
