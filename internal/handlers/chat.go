package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/clawnad/backend/internal/config"
	"github.com/clawnad/backend/internal/infrastructure/openrouter"
	"github.com/clawnad/backend/internal/middleware"
	"github.com/clawnad/backend/internal/services/relay"
	"github.com/clawnad/backend/pkg/httpext"
)

const (
	defaultChatModel = "openai/gpt-4o-mini"
	chatMaxTokens    = 2048

	chatDemoText = "[Demo mode] No API key configured. The agent would respond to your message here."
)

type chatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,min=1,max=50000"`
}

// chatRequest is the generic persona-chat body. Price is the caller's
// offered USD amount; it is clamped server-side.
type chatRequest struct {
	Persona  string        `json:"persona" validate:"required,min=1,max=5000"`
	Messages []chatMessage `json:"messages" validate:"required,min=1,max=50,dive"`
	Model    string        `json:"model" validate:"omitempty,max=100"`
	Price    string        `json:"price" validate:"omitempty,numeric"`
}

// ChatHandler serves the generic pay-per-call persona chat. Unlike the
// fixed agent endpoints it prices each request from the body, so the
// payment gate runs inside the handler after validation.
type ChatHandler struct {
	relay *relay.Service
}

func NewChatHandler(relayService *relay.Service) *ChatHandler {
	return &ChatHandler{relay: relayService}
}

func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/chat", h.Chat).Methods(http.MethodPost)
}

// Chat handles POST /api/v1/chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !httpext.DecodeValid(w, r, &req) {
		return
	}
	if req.Model == "" {
		req.Model = defaultChatModel
	}

	if config.IsX402Enabled() {
		requirements := middleware.BuildRequirements(
			middleware.ClampPrice(req.Price), r.URL.Path, "Chat with AI agent", "text/event-stream")
		if !middleware.CheckPayment(w, r, requirements) {
			return
		}
	}

	log.Info().
		Str("model", req.Model).
		Int("message_count", len(req.Messages)).
		Msg("Persona chat stream starting")

	messages := make([]openrouter.Message, 0, len(req.Messages)+1)
	messages = append(messages, openrouter.Message{Role: openrouter.RoleSystem, Content: req.Persona})
	for _, m := range req.Messages {
		messages = append(messages, openrouter.Message{Role: m.Role, Content: m.Content})
	}

	relay.WriteSSEHeaders(w)
	sink := relay.NewSSESink(w)
	h.relay.Stream(r.Context(), req.Model, messages, chatMaxTokens, chatDemoText, sink)
}
