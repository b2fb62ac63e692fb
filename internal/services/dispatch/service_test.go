package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallExtractsKnownOutputFields(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected string
	}{
		{
			name:     "summary field",
			payload:  `{"data":{"agentId":127,"summary":"A short summary.","model":"openai/gpt-4o-mini"}}`,
			expected: "A short summary.",
		},
		{
			name:     "audit field",
			payload:  `{"data":{"agentId":128,"audit":"No critical issues."}}`,
			expected: "No critical issues.",
		},
		{
			name:     "summary wins over audit",
			payload:  `{"data":{"audit":"second","summary":"first"}}`,
			expected: "first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/summarize", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.payload))
			}))
			defer server.Close()

			svc := NewServiceWith(Registry{"SummaryBot": server.URL}, server.Client())
			result := svc.Call(context.Background(), "SummaryBot", "/summarize", map[string]string{"text": "..."})
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestCallFallsBackToPayloadDump(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"verdict":"ok","score":5}}`))
	}))
	defer server.Close()

	svc := NewServiceWith(Registry{"CodeAuditor": server.URL}, server.Client())
	result := svc.Call(context.Background(), "CodeAuditor", "/audit", nil)

	var dumped map[string]interface{}
	assert.NoError(t, json.Unmarshal([]byte(result), &dumped))
	assert.Equal(t, "ok", dumped["verdict"])
	assert.EqualValues(t, 5, dumped["score"])
}

func TestCallErrorStatusIsAbsorbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewServiceWith(Registry{"SummaryBot": server.URL}, server.Client())
	result := svc.Call(context.Background(), "SummaryBot", "/summarize", nil)
	assert.Equal(t, "[Agent error: 500]", result)
}

func TestCallUnreachableIsAbsorbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	svc := NewService(Registry{"SummaryBot": server.URL})
	result := svc.Call(context.Background(), "SummaryBot", "/summarize", nil)
	assert.Contains(t, result, "[Agent unreachable:")
}

func TestCallUnknownAgent(t *testing.T) {
	svc := NewService(Registry{})
	result := svc.Call(context.Background(), "Ghost", "/x", nil)
	assert.Contains(t, result, "[Agent unreachable:")
	assert.False(t, svc.Known("Ghost"))
}
