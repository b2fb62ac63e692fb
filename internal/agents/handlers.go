package agents

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/clawnad/backend/internal/config"
	"github.com/clawnad/backend/internal/infrastructure/openrouter"
	"github.com/clawnad/backend/internal/middleware"
	"github.com/clawnad/backend/internal/services/relay"
	"github.com/clawnad/backend/pkg/httpext"
)

const chatMaxTokens = 2048

// ChatMessage is one caller-supplied conversation turn. The system turn
// is never accepted from the caller; the relay prepends it.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,min=1,max=50000"`
}

// ChatRequest is the body of the agent chat endpoints.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,max=50,dive"`
}

// Mount registers the agent's common routes plus its specialized route
// on a subrouter under /agents/{endpoint}.
func Mount(r *mux.Router, agent *Descriptor, rt *Runtime) {
	r.HandleFunc("/health", handleHealth(agent)).Methods(http.MethodGet)
	r.HandleFunc("/info", handleInfo(agent)).Methods(http.MethodGet)

	chat := http.HandlerFunc(handleChat(agent, rt))
	gate := middleware.RequirePayment("Chat with "+agent.Name, "text/event-stream")
	r.Handle("/chat", gate(chat)).Methods(http.MethodPost)

	r.HandleFunc("/ws", handleChatSocket(agent, rt)).Methods(http.MethodGet)

	if agent.RegisterRoutes != nil {
		agent.RegisterRoutes(r, rt)
	}
}

func handleHealth(agent *Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"status":    "ok",
			"agent":     agent.Name,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// infoResponse is the static descriptor plus the payment-config block.
type infoResponse struct {
	Descriptor
	Type string   `json:"type"`
	X402 x402Info `json:"x402"`
}

type x402Info struct {
	Enabled     bool   `json:"enabled"`
	Network     string `json:"network"`
	Facilitator string `json:"facilitator"`
	PayTo       string `json:"payTo"`
}

func handleInfo(agent *Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpext.JsonData(w, infoResponse{
			Descriptor: *agent,
			Type:       "https://eips.ethereum.org/EIPS/eip-8004#registration-v1",
			X402: x402Info{
				Enabled:     config.IsX402Enabled(),
				Network:     config.X402Network,
				Facilitator: config.GetX402FacilitatorURL(),
				PayTo:       config.GetX402PayToAddress(),
			},
		})
	}
}

func handleChat(agent *Descriptor, rt *Runtime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if !httpext.DecodeValid(w, r, &req) {
			return
		}

		log.Info().
			Str("agent", agent.Name).
			Int("message_count", len(req.Messages)).
			Msg("Agent chat stream starting")

		relay.WriteSSEHeaders(w)
		sink := relay.NewSSESink(w)
		rt.Relay.Stream(r.Context(), agent.Model, fullConversation(agent, req.Messages), chatMaxTokens,
			"[Demo mode] "+agent.Name+" would respond to this conversation.", sink)
	}
}

// fullConversation prepends the agent's system turn to the caller's
// messages.
func fullConversation(agent *Descriptor, messages []ChatMessage) []openrouter.Message {
	full := make([]openrouter.Message, 0, len(messages)+1)
	full = append(full, openrouter.Message{Role: openrouter.RoleSystem, Content: agent.SystemPrompt})
	for _, m := range messages {
		full = append(full, openrouter.Message{Role: m.Role, Content: m.Content})
	}
	return full
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
