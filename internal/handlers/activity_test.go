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

func TestActivityFeed(t *testing.T) {
	sg := fakeSubgraph(t, map[string]string{
		"launchedAt, orderDirection: desc": `{"data":{"agents":[{"agentId":"127","launchedAt":"300"}]}}`,
		"agent_not: null":                  `{"data":{"tokenTrades":[{"tradeType":"buy","blockTimestamp":"200"}]}}`,
		"reputationFeedbacks(first:":       `{"data":{"reputationFeedbacks":[{"score":5,"blockTimestamp":"100"}]}}`,
	})
	r := mux.NewRouter()
	NewActivityHandler(sg).RegisterRoutes(r.PathPrefix("/api/v1").Subrouter())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activity", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 3)
	// merged feed is newest first
	assert.Equal(t, "launch", body.Data[0]["type"])
	assert.Equal(t, "trade", body.Data[1]["type"])
	assert.Equal(t, "feedback", body.Data[2]["type"])
}

func TestActivityLimitCap(t *testing.T) {
	r := mux.NewRouter()
	NewActivityHandler(fakeSubgraph(t, map[string]string{})).RegisterRoutes(r.PathPrefix("/api/v1").Subrouter())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activity?limit=51", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStats(t *testing.T) {
	sg := fakeSubgraph(t, map[string]string{
		"platformStats": `{"data":{"platformStats":{"totalAgents":3,"totalTrades":40,"totalRevenue":"12000","totalFeedback":9}}}`,
	})
	r := mux.NewRouter()
	NewStatsHandler(sg).RegisterRoutes(r.PathPrefix("/api/v1").Subrouter())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data subgraph.PlatformStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Data.TotalAgents)
	assert.Equal(t, "12000", body.Data.TotalRevenue)
}
