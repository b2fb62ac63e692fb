package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/clawnad/backend/internal/infrastructure/subgraph"
	"github.com/clawnad/backend/pkg/httpext"
)

// ActivityHandler serves the merged cross-entity event feed.
type ActivityHandler struct {
	subgraph *subgraph.Service
}

func NewActivityHandler(sg *subgraph.Service) *ActivityHandler {
	return &ActivityHandler{subgraph: sg}
}

func (h *ActivityHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/activity", h.List).Methods(http.MethodGet)
}

// List handles GET /api/v1/activity.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(w, r, 50)
	if !ok {
		return
	}

	activity, err := h.subgraph.Activity(r.Context(), page.Limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to query activity feed")
		httpext.JsonError(w, http.StatusBadGateway, httpext.CodeUpstreamError, "Subgraph query failed")
		return
	}

	httpext.JsonData(w, activity)
}
