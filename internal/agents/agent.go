package agents

import (
	"context"
	"fmt"

	"github.com/gorilla/mux"

	"github.com/clawnad/backend/internal/infrastructure/openrouter"
	"github.com/clawnad/backend/internal/services/dispatch"
	"github.com/clawnad/backend/internal/services/relay"
)

// Descriptor parameterizes the shared agent behavior: all agents expose
// the same health/info/chat surface and differ only in identity, model,
// system prompt and one specialized route.
type Descriptor struct {
	AgentID      int      `json:"agentId"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Model        string   `json:"model"`
	Skills       []string `json:"skills"`
	Endpoint     string   `json:"endpoint"`
	SystemPrompt string   `json:"-"`

	// RegisterRoutes mounts the agent's specialized route, if any.
	RegisterRoutes func(r *mux.Router, rt *Runtime) `json:"-"`
}

// Runtime bundles the shared services every agent handler needs.
type Runtime struct {
	Provider   *openrouter.Service
	Relay      *relay.Service
	Dispatcher *dispatch.Service
}

func NewRuntime(provider *openrouter.Service, relayService *relay.Service, dispatcher *dispatch.Service) *Runtime {
	return &Runtime{Provider: provider, Relay: relayService, Dispatcher: dispatcher}
}

// CallLLM performs one non-streaming completion on behalf of an agent.
// Without a provider credential it returns a deterministic demo response
// and makes no network call.
func (rt *Runtime) CallLLM(ctx context.Context, agentName, model, systemPrompt, userMessage string, maxTokens int) (string, error) {
	if !rt.Provider.Configured() {
		return fmt.Sprintf("[Demo mode] %s would process: %q...", agentName, truncate(userMessage, 100)), nil
	}
	return rt.Provider.Complete(ctx, model, systemPrompt, userMessage, maxTokens)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
