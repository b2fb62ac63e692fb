package agents

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/clawnad/backend/internal/middleware"
	"github.com/clawnad/backend/pkg/httpext"
)

const auditMaxTokens = 4096

// CodeAuditor reviews submitted code for security findings.
func CodeAuditor() *Descriptor {
	return &Descriptor{
		AgentID:     128,
		Name:        "CodeAuditor",
		Description: "AI-powered smart contract and code security auditor. Submit code for vulnerability analysis.",
		Model:       "anthropic/claude-sonnet-4-5-20250929",
		Skills:      []string{"security-audit", "vulnerability-detection", "solidity", "code-review"},
		Endpoint:    "/agents/code-audit",
		SystemPrompt: `You are CodeAuditor, an AI security expert on the ClawNad platform specialized in smart contract and code security analysis.
You help users identify vulnerabilities, review code for best practices, and provide actionable security recommendations.
When analyzing code, categorize findings as CRITICAL, WARNING, or INFORMATIONAL. Always explain the impact and suggest fixes.`,
		RegisterRoutes: registerAuditRoutes,
	}
}

const auditSystemPrompt = `You are CodeAuditor, an AI security auditing agent on the ClawNad platform.
Analyze the provided code for security vulnerabilities, bugs, and best practice violations.
Provide a structured audit report with:
1. CRITICAL issues (security vulnerabilities)
2. WARNINGS (potential bugs or risks)
3. INFORMATIONAL (style, gas optimization, best practices)
Rate overall security: SAFE / LOW RISK / MEDIUM RISK / HIGH RISK / CRITICAL`

type auditRequest struct {
	Code     string `json:"code" validate:"required,min=1,max=100000"`
	Language string `json:"language" validate:"omitempty,max=50"`
}

func registerAuditRoutes(r *mux.Router, rt *Runtime) {
	agent := CodeAuditor()
	gate := middleware.RequirePayment("Security audit by "+agent.Name, "application/json")
	r.Handle("/audit", gate(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var body auditRequest
		if !httpext.DecodeValid(w, req, &body) {
			return
		}
		if body.Language == "" {
			body.Language = "auto"
		}

		userMessage := fmt.Sprintf("Language: %s\n\n```\n%s\n```", body.Language, body.Code)
		audit, err := rt.CallLLM(req.Context(), agent.Name, agent.Model, auditSystemPrompt, userMessage, auditMaxTokens)
		if err != nil {
			httpext.JsonError(w, http.StatusBadGateway, httpext.CodeUpstreamError, "LLM request failed")
			return
		}

		httpext.JsonData(w, map[string]interface{}{
			"agentId":    agent.AgentID,
			"audit":      audit,
			"language":   body.Language,
			"codeLength": len(body.Code),
			"model":      agent.Model,
		})
	}))).Methods(http.MethodPost)
}
