package agents

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/clawnad/backend/internal/middleware"
	"github.com/clawnad/backend/pkg/httpext"
)

// SummaryBot condenses arbitrary text into a short summary.
func SummaryBot() *Descriptor {
	return &Descriptor{
		AgentID:     127,
		Name:        "SummaryBot",
		Description: "AI-powered text summarization agent. Provide any text and get a concise summary.",
		Model:       "openai/gpt-4o-mini",
		Skills:      []string{"text-summarization", "content-extraction"},
		Endpoint:    "/agents/summary",
		SystemPrompt: `You are SummaryBot, an AI assistant on the ClawNad platform specialized in text summarization and content analysis.
You help users summarize texts, extract key points, and analyze content. Be concise and helpful.
When asked to summarize, focus on key points and maintain factual accuracy.`,
		RegisterRoutes: registerSummaryRoutes,
	}
}

type summarizeRequest struct {
	Text      string `json:"text" validate:"required,min=1,max=50000"`
	MaxLength int    `json:"maxLength" validate:"omitempty,min=50,max=2000"`
}

func registerSummaryRoutes(r *mux.Router, rt *Runtime) {
	agent := SummaryBot()
	gate := middleware.RequirePayment("Summarize text with "+agent.Name, "application/json")
	r.Handle("/summarize", gate(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var body summarizeRequest
		if !httpext.DecodeValid(w, req, &body) {
			return
		}
		if body.MaxLength == 0 {
			body.MaxLength = 500
		}

		systemPrompt := fmt.Sprintf(`You are SummaryBot, an AI text summarization agent on the ClawNad platform.
Summarize the provided text concisely in %d characters or less.
Focus on key points and maintain factual accuracy.`, body.MaxLength)

		// rough token estimate
		maxTokens := (body.MaxLength + 2) / 3
		summary, err := rt.CallLLM(req.Context(), agent.Name, agent.Model, systemPrompt, body.Text, maxTokens)
		if err != nil {
			httpext.JsonError(w, http.StatusBadGateway, httpext.CodeUpstreamError, "LLM request failed")
			return
		}

		httpext.JsonData(w, map[string]interface{}{
			"agentId":     agent.AgentID,
			"summary":     summary,
			"inputLength": len(body.Text),
			"model":       agent.Model,
		})
	}))).Methods(http.MethodPost)
}
