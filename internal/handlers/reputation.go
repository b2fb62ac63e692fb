package handlers

import (
	"fmt"
	"math/big"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/clawnad/backend/internal/infrastructure/subgraph"
	"github.com/clawnad/backend/pkg/httpext"
)

// ReputationHandler serves feedback scores and history per agent.
type ReputationHandler struct {
	subgraph *subgraph.Service
}

func NewReputationHandler(sg *subgraph.Service) *ReputationHandler {
	return &ReputationHandler{subgraph: sg}
}

func (h *ReputationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/reputation/{agentId}", h.Score).Methods(http.MethodGet)
	r.HandleFunc("/reputation/{agentId}/feedback", h.Feedback).Methods(http.MethodGet)
}

// Score handles GET /api/v1/reputation/{agentId}.
func (h *ReputationHandler) Score(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["agentId"]

	agent, err := h.subgraph.Agent(r.Context(), agentID)
	if err != nil {
		log.Error().Err(err).Str("agent_id", agentID).Msg("Failed to query agent reputation")
		httpext.JsonError(w, http.StatusBadGateway, httpext.CodeUpstreamError, "Subgraph query failed")
		return
	}
	if agent == nil {
		httpext.JsonError(w, http.StatusNotFound, "AGENT_NOT_FOUND", fmt.Sprintf("Agent %s not found", agentID))
		return
	}

	totalFeedback := intField(agent, "totalFeedback")
	totalScore := bigField(agent, "totalScore")

	avgScore := 0.0
	if totalFeedback > 0 {
		score, _ := new(big.Float).SetInt(totalScore).Float64()
		avgScore = score / float64(totalFeedback)
	}

	httpext.JsonData(w, map[string]interface{}{
		"agentId":       agentID,
		"totalFeedback": totalFeedback,
		"avgScore":      fmt.Sprintf("%.2f", avgScore),
	})
}

// Feedback handles GET /api/v1/reputation/{agentId}/feedback.
func (h *ReputationHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(w, r, 100)
	if !ok {
		return
	}

	feedback, err := h.subgraph.Feedback(r.Context(), mux.Vars(r)["agentId"], page.Limit, page.Offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to query feedback")
		httpext.JsonError(w, http.StatusBadGateway, httpext.CodeUpstreamError, "Subgraph query failed")
		return
	}

	httpext.JsonPage(w, feedback, len(feedback), page.Limit, page.Offset)
}

// intField reads a numeric subgraph field that may arrive as a JSON
// number or string.
func intField(entity subgraph.Entity, key string) int {
	switch v := entity[key].(type) {
	case float64:
		return int(v)
	case string:
		n, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return 0
		}
		return int(n.Int64())
	default:
		return 0
	}
}

func bigField(entity subgraph.Entity, key string) *big.Int {
	s, _ := entity[key].(string)
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return n
}
