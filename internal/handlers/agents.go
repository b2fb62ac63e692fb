package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/clawnad/backend/internal/infrastructure/subgraph"
	"github.com/clawnad/backend/pkg/httpext"
)

// AgentsHandler serves the read-only agent registry projections.
type AgentsHandler struct {
	subgraph *subgraph.Service
}

func NewAgentsHandler(sg *subgraph.Service) *AgentsHandler {
	return &AgentsHandler{subgraph: sg}
}

func (h *AgentsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/agents", h.List).Methods(http.MethodGet)
	r.HandleFunc("/agents/{agentId}", h.Get).Methods(http.MethodGet)
}

// List handles GET /api/v1/agents.
func (h *AgentsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(w, r, 100)
	if !ok {
		return
	}

	q := r.URL.Query()
	sort := q.Get("sort")
	if sort == "" {
		sort = "launchedAt"
	}
	if !oneOf(sort, "launchedAt", "totalRevenue", "totalFeedback", "agentId") {
		httpext.JsonError(w, http.StatusBadRequest, httpext.CodeInvalidParams, "Invalid sort parameter")
		return
	}

	order := q.Get("order")
	if order == "" {
		order = "desc"
	}
	if !oneOf(order, "asc", "desc") {
		httpext.JsonError(w, http.StatusBadRequest, httpext.CodeInvalidParams, "Invalid order parameter")
		return
	}

	search := q.Get("search")
	if len(search) > 100 {
		httpext.JsonError(w, http.StatusBadRequest, httpext.CodeInvalidParams, "Invalid search parameter")
		return
	}

	filter := subgraph.AgentFilter{
		Limit:          page.Limit,
		Offset:         page.Offset,
		OrderBy:        sort,
		OrderDirection: order,
		Creator:        q.Get("creator"),
		Search:         search,
	}
	if raw := q.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			httpext.JsonError(w, http.StatusBadRequest, httpext.CodeInvalidParams, "Invalid active parameter")
			return
		}
		filter.Active = &active
	}

	agents, err := h.subgraph.Agents(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to query agents")
		httpext.JsonError(w, http.StatusBadGateway, httpext.CodeUpstreamError, "Subgraph query failed")
		return
	}

	httpext.JsonPage(w, agents, len(agents), page.Limit, page.Offset)
}

// Get handles GET /api/v1/agents/{agentId}.
func (h *AgentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["agentId"]

	agent, err := h.subgraph.Agent(r.Context(), agentID)
	if err != nil {
		log.Error().Err(err).Str("agent_id", agentID).Msg("Failed to query agent")
		httpext.JsonError(w, http.StatusBadGateway, httpext.CodeUpstreamError, "Subgraph query failed")
		return
	}
	if agent == nil {
		httpext.JsonError(w, http.StatusNotFound, "AGENT_NOT_FOUND", fmt.Sprintf("Agent %s not found", agentID))
		return
	}

	httpext.JsonData(w, agent)
}
