package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawnad/backend/internal/infrastructure/subgraph"
)

func reputationRouter(sg *subgraph.Service) *mux.Router {
	r := mux.NewRouter()
	NewReputationHandler(sg).RegisterRoutes(r.PathPrefix("/api/v1").Subrouter())
	return r
}

func TestReputationScore(t *testing.T) {
	sg := fakeSubgraph(t, map[string]string{
		"GetAgent(": `{"data":{"agent":{"agentId":"127","totalFeedback":4,"totalScore":"17"}}}`,
	})
	r := reputationRouter(sg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reputation/127", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			AgentID       string `json:"agentId"`
			TotalFeedback int    `json:"totalFeedback"`
			AvgScore      string `json:"avgScore"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "127", body.Data.AgentID)
	assert.Equal(t, 4, body.Data.TotalFeedback)
	assert.Equal(t, "4.25", body.Data.AvgScore)
}

func TestReputationScoreNoFeedback(t *testing.T) {
	sg := fakeSubgraph(t, map[string]string{
		"GetAgent(": `{"data":{"agent":{"agentId":"127","totalFeedback":0,"totalScore":"0"}}}`,
	})
	r := reputationRouter(sg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reputation/127", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			AvgScore string `json:"avgScore"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "0.00", body.Data.AvgScore)
}

func TestReputationUnknownAgent(t *testing.T) {
	sg := fakeSubgraph(t, map[string]string{
		"GetAgent(": `{"data":{"agent":null}}`,
	})
	r := reputationRouter(sg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reputation/999", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeedbackList(t *testing.T) {
	sg := fakeSubgraph(t, map[string]string{
		"GetFeedback": `{"data":{"reputationFeedbacks":[{"id":"f1","score":5},{"id":"f2","score":4}]}}`,
	})
	r := reputationRouter(sg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reputation/127/feedback?limit=2", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data       []map[string]interface{} `json:"data"`
		Pagination struct {
			HasMore bool `json:"hasMore"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
	assert.True(t, body.Pagination.HasMore)
}
