package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opsdeck/helpdesk-backend/internal/core/ports"
)

// DashboardHandler serves the aggregated ticket counters.
type DashboardHandler struct {
	statsService ports.StatsService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	statsService ports.StatsService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		statsService: statsService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "dashboard"),
	}
}

// Router sets up a new chi Router for the dashboard routes.
func (h *DashboardHandler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/stats", h.HandleGetStats)
	return r
}

// HandleGetStats handles GET /dashboard/stats
func (h *DashboardHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.GetDashboardStats(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}
