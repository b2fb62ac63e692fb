package agents

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawnad/backend/internal/infrastructure/openrouter"
	"github.com/clawnad/backend/internal/middleware"
	"github.com/clawnad/backend/internal/services/dispatch"
	"github.com/clawnad/backend/internal/services/relay"
)

// demoRuntime has no provider credential, so every LLM path takes the
// deterministic demo branch and never touches the network.
func demoRuntime() *Runtime {
	provider := openrouter.NewServiceWith("", "http://127.0.0.1:0", http.DefaultClient)
	return NewRuntime(provider, relay.NewService(provider), dispatch.NewService(dispatch.Registry{}))
}

func mountedRouter(t *testing.T, agent *Descriptor) *mux.Router {
	t.Helper()
	r := mux.NewRouter()
	Mount(r.PathPrefix(agent.Endpoint).Subrouter(), agent, demoRuntime())
	return r
}

func paymentProof(t *testing.T) string {
	t.Helper()
	proof, err := json.Marshal(map[string]interface{}{
		"x402Version": 1,
		"scheme":      "exact",
		"network":     "eip155:143",
		"payload":     map[string]string{"signature": "0xabc"},
	})
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(proof)
}

func TestAgentHealth(t *testing.T) {
	r := mountedRouter(t, SummaryBot())

	req := httptest.NewRequest(http.MethodGet, "/agents/summary/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "SummaryBot", body["agent"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestAgentInfo(t *testing.T) {
	r := mountedRouter(t, CodeAuditor())

	req := httptest.NewRequest(http.MethodGet, "/agents/code-audit/info", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			AgentID  int      `json:"agentId"`
			Name     string   `json:"name"`
			Model    string   `json:"model"`
			Skills   []string `json:"skills"`
			Endpoint string   `json:"endpoint"`
			Type     string   `json:"type"`
			X402     struct {
				Enabled bool   `json:"enabled"`
				Network string `json:"network"`
			} `json:"x402"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 128, body.Data.AgentID)
	assert.Equal(t, "CodeAuditor", body.Data.Name)
	assert.Equal(t, "/agents/code-audit", body.Data.Endpoint)
	assert.Equal(t, "https://eips.ethereum.org/EIPS/eip-8004#registration-v1", body.Data.Type)
	assert.Equal(t, "eip155:143", body.Data.X402.Network)
	assert.True(t, body.Data.X402.Enabled)

	// The system prompt never leaks into the descriptor.
	assert.NotContains(t, rec.Body.String(), "You are CodeAuditor")
}

func TestAgentChatRequiresPayment(t *testing.T) {
	r := mountedRouter(t, SummaryBot())

	payload := `{"messages":[{"role":"user","content":"hello"}]}`
	req := httptest.NewRequest(http.MethodPost, "/agents/summary/chat", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequiredHeader))
}

func TestAgentChatDemoStream(t *testing.T) {
	t.Setenv("X402_ENABLED", "false")
	r := mountedRouter(t, SummaryBot())

	payload := `{"messages":[{"role":"user","content":"hello"}]}`
	req := httptest.NewRequest(http.MethodPost, "/agents/summary/chat", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `data: {"content":"[Demo mode] SummaryBot would respond to this conversation."}`)
	assert.Contains(t, body, "data: [DONE]\n\n")
}

func TestAgentChatValidation(t *testing.T) {
	t.Setenv("X402_ENABLED", "false")
	r := mountedRouter(t, SummaryBot())

	cases := []struct {
		name    string
		payload string
	}{
		{"empty messages", `{"messages":[]}`},
		{"bad role", `{"messages":[{"role":"system","content":"x"}]}`},
		{"empty content", `{"messages":[{"role":"user","content":""}]}`},
		{"malformed json", `{"messages":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/agents/summary/chat", strings.NewReader(tc.payload))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSummarizeDemoMode(t *testing.T) {
	r := mountedRouter(t, SummaryBot())

	payload, err := json.Marshal(map[string]interface{}{"text": "A long text about Go.", "maxLength": 100})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/agents/summary/summarize", bytes.NewReader(payload))
	req.Header.Set(middleware.PaymentHeader, paymentProof(t))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			AgentID     int    `json:"agentId"`
			Summary     string `json:"summary"`
			InputLength int    `json:"inputLength"`
			Model       string `json:"model"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 127, body.Data.AgentID)
	assert.Contains(t, body.Data.Summary, "[Demo mode] SummaryBot would process:")
	assert.Equal(t, len("A long text about Go."), body.Data.InputLength)
	assert.Equal(t, "openai/gpt-4o-mini", body.Data.Model)
}

func TestSummarizeRejectsOutOfRangeMaxLength(t *testing.T) {
	t.Setenv("X402_ENABLED", "false")
	r := mountedRouter(t, SummaryBot())

	payload := `{"text":"abc","maxLength":10}`
	req := httptest.NewRequest(http.MethodPost, "/agents/summary/summarize", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuditDemoMode(t *testing.T) {
	t.Setenv("X402_ENABLED", "false")
	r := mountedRouter(t, CodeAuditor())

	payload := `{"code":"contract C {}"}`
	req := httptest.NewRequest(http.MethodPost, "/agents/code-audit/audit", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			AgentID    int    `json:"agentId"`
			Audit      string `json:"audit"`
			Language   string `json:"language"`
			CodeLength int    `json:"codeLength"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 128, body.Data.AgentID)
	assert.Equal(t, "auto", body.Data.Language)
	assert.Equal(t, len("contract C {}"), body.Data.CodeLength)
	assert.Contains(t, body.Data.Audit, "[Demo mode] CodeAuditor would process:")
}

func TestExecuteDemoMode(t *testing.T) {
	t.Setenv("X402_ENABLED", "false")
	r := mountedRouter(t, Orchestrator())

	payload := `{"task":"Summarize the whitepaper"}`
	req := httptest.NewRequest(http.MethodPost, "/agents/orchestrator/execute", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			AgentID     int    `json:"agentId"`
			Task        string `json:"task"`
			Plan        string `json:"plan"`
			FinalResult string `json:"finalResult"`
			Model       string `json:"model"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 129, body.Data.AgentID)
	assert.Equal(t, "Summarize the whitepaper", body.Data.Task)
	// Demo plan text carries no JSON object, so the raw text becomes the plan.
	assert.Contains(t, body.Data.Plan, "[Demo mode]")
	assert.Contains(t, body.Data.FinalResult, "[Demo mode]")
}
