package handlers

import (
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
	"github.com/clawnad/backend/internal/services/relay"
)

func chatRouter() *mux.Router {
	provider := openrouter.NewServiceWith("", "http://127.0.0.1:0", http.DefaultClient)
	r := mux.NewRouter()
	NewChatHandler(relay.NewService(provider)).RegisterRoutes(r.PathPrefix("/api/v1").Subrouter())
	return r
}

func postChat(r *mux.Router, payload string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(payload))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestChatChallengeCarriesClampedPrice(t *testing.T) {
	r := chatRouter()

	// requested price below the floor clamps to $0.01 = 10000 atomic units
	rec := postChat(r, `{"persona":"You are a pirate.","messages":[{"role":"user","content":"hi"}],"price":"0.001"}`, nil)

	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	header := rec.Header().Get(middleware.RequiredHeader)
	require.NotEmpty(t, header)
	decoded, err := base64.StdEncoding.DecodeString(header)
	require.NoError(t, err)

	var challenge middleware.PaymentRequired
	require.NoError(t, json.Unmarshal(decoded, &challenge))
	require.Len(t, challenge.Accepts, 1)
	assert.Equal(t, "10000", challenge.Accepts[0].MaxAmountRequired)
	assert.Equal(t, "/api/v1/chat", challenge.Accepts[0].Resource)

	// header and body carry the same challenge
	assert.JSONEq(t, string(decoded), rec.Body.String())
}

func TestChatValidationBeforePaymentGate(t *testing.T) {
	r := chatRouter()

	rec := postChat(r, `{"persona":"","messages":[]}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Header().Get(middleware.RequiredHeader))
}

func TestChatMalformedProofRejected(t *testing.T) {
	r := chatRouter()

	rec := postChat(r,
		`{"persona":"You are a pirate.","messages":[{"role":"user","content":"hi"}]}`,
		map[string]string{middleware.PaymentHeader: "not-base64!!"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_PAYMENT", body.Code)
}

func TestChatDemoStreamWithValidProof(t *testing.T) {
	r := chatRouter()

	proof, err := json.Marshal(map[string]interface{}{
		"x402Version": 1,
		"scheme":      "exact",
		"network":     "eip155:143",
		"payload":     map[string]string{"signature": "0xabc"},
	})
	require.NoError(t, err)

	rec := postChat(r,
		`{"persona":"You are a pirate.","messages":[{"role":"user","content":"hi"}]}`,
		map[string]string{middleware.PaymentHeader: base64.StdEncoding.EncodeToString(proof)})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `data: {"content":"[Demo mode] No API key configured. The agent would respond to your message here."}`)
	assert.Contains(t, body, "data: [DONE]\n\n")
}

func TestChatGateDisabled(t *testing.T) {
	t.Setenv("X402_ENABLED", "false")
	r := chatRouter()

	rec := postChat(r, `{"persona":"You are a pirate.","messages":[{"role":"user","content":"hi"}]}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "data: [DONE]\n\n")
}
