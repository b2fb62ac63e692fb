package agents

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/clawnad/backend/internal/middleware"
	"github.com/clawnad/backend/internal/services/orchestrator"
	"github.com/clawnad/backend/pkg/httpext"
)

// Orchestrator decomposes tasks and coordinates the other agents.
func Orchestrator() *Descriptor {
	return &Descriptor{
		AgentID:     129,
		Name:        "Orchestrator",
		Description: "Meta-agent that decomposes tasks, discovers other agents, and coordinates multi-step AI workflows.",
		Model:       "openai/gpt-4o-mini",
		Skills:      []string{"task-planning", "agent-coordination", "multi-step-execution"},
		Endpoint:    "/agents/orchestrator",
		SystemPrompt: `You are the Orchestrator, a meta-agent on the ClawNad platform that helps with task planning, coordination, and multi-step AI workflows.
You can help users break down complex tasks, suggest which agents to use (SummaryBot for text summarization, CodeAuditor for security analysis), and coordinate workflows.
Be strategic and methodical in your responses.`,
		RegisterRoutes: registerOrchestratorRoutes,
	}
}

type executeRequest struct {
	Task string `json:"task" validate:"required,min=1,max=5000"`
}

// runtimeLLM adapts Runtime.CallLLM to the pipeline's completion
// dependency, keeping demo-mode fallback behavior.
type runtimeLLM struct {
	rt        *Runtime
	agentName string
}

func (l *runtimeLLM) Complete(ctx context.Context, model, systemPrompt, userMessage string, maxTokens int) (string, error) {
	return l.rt.CallLLM(ctx, l.agentName, model, systemPrompt, userMessage, maxTokens)
}

func registerOrchestratorRoutes(r *mux.Router, rt *Runtime) {
	agent := Orchestrator()
	pipeline := orchestrator.NewPipeline(&runtimeLLM{rt: rt, agentName: agent.Name}, rt.Dispatcher, agent.Model)

	gate := middleware.RequirePayment("Multi-agent task execution by "+agent.Name, "application/json")
	r.Handle("/execute", gate(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var body executeRequest
		if !httpext.DecodeValid(w, req, &body) {
			return
		}

		result, err := pipeline.Run(req.Context(), body.Task)
		if err != nil {
			httpext.JsonError(w, http.StatusBadGateway, httpext.CodeUpstreamError, "Orchestration failed")
			return
		}

		httpext.JsonData(w, map[string]interface{}{
			"agentId":     agent.AgentID,
			"task":        result.Task,
			"plan":        result.Plan,
			"steps":       result.Steps,
			"finalResult": result.FinalResult,
			"model":       result.Model,
		})
	}))).Methods(http.MethodPost)
}
