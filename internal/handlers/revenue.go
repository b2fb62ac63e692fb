package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/clawnad/backend/internal/infrastructure/subgraph"
	"github.com/clawnad/backend/pkg/httpext"
)

// RevenueHandler serves per-agent revenue history.
type RevenueHandler struct {
	subgraph *subgraph.Service
}

func NewRevenueHandler(sg *subgraph.Service) *RevenueHandler {
	return &RevenueHandler{subgraph: sg}
}

func (h *RevenueHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/revenue/{agentId}", h.List).Methods(http.MethodGet)
}

// List handles GET /api/v1/revenue/{agentId}.
func (h *RevenueHandler) List(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(w, r, 100)
	if !ok {
		return
	}

	events, err := h.subgraph.RevenueEvents(r.Context(), mux.Vars(r)["agentId"], page.Limit, page.Offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to query revenue events")
		httpext.JsonError(w, http.StatusBadGateway, httpext.CodeUpstreamError, "Subgraph query failed")
		return
	}

	httpext.JsonPage(w, events, len(events), page.Limit, page.Offset)
}
