package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/clawnad/backend/internal/infrastructure/subgraph"
	"github.com/clawnad/backend/pkg/httpext"
)

// StatsHandler serves the platform-wide counters.
type StatsHandler struct {
	subgraph *subgraph.Service
}

func NewStatsHandler(sg *subgraph.Service) *StatsHandler {
	return &StatsHandler{subgraph: sg}
}

func (h *StatsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/stats", h.Get).Methods(http.MethodGet)
}

// Get handles GET /api/v1/stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.subgraph.Stats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to query platform stats")
		httpext.JsonError(w, http.StatusBadGateway, httpext.CodeUpstreamError, "Subgraph query failed")
		return
	}

	httpext.JsonData(w, stats)
}
