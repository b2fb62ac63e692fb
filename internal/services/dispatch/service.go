package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Registry maps agent names to their base URLs. It is built once at
// startup and never mutated, so it is safe to share across requests.
type Registry map[string]string

// outputFields are tried in priority order when extracting an agent's
// primary textual result.
var outputFields = []string{"summary", "audit", "result"}

// Service performs synchronous agent-to-agent calls. Call never returns
// an error: every failure mode is folded into the result text so a broken
// sub-agent cannot fail the caller.
type Service struct {
	client   *http.Client
	registry Registry
}

func NewService(registry Registry) *Service {
	return NewServiceWith(registry, &http.Client{Timeout: 60 * time.Second})
}

func NewServiceWith(registry Registry, client *http.Client) *Service {
	return &Service{client: client, registry: registry}
}

// Known reports whether an agent name is in the registry.
func (s *Service) Known(agent string) bool {
	_, ok := s.registry[agent]
	return ok
}

// Call posts body to the named agent's endpoint and returns its primary
// textual output. Non-2xx responses and transport failures are reported
// as short bracketed strings in the result.
func (s *Service) Call(ctx context.Context, agent, endpoint string, body interface{}) string {
	base, ok := s.registry[agent]
	if !ok {
		return fmt.Sprintf("[Agent unreachable: unknown agent %q]", agent)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Sprintf("[Agent unreachable: %v]", err)
	}

	url := base + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Sprintf("[Agent unreachable: %v]", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("agent", agent).Str("url", url).Msg("Sub-agent call failed")
		return fmt.Sprintf("[Agent unreachable: %v]", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Str("agent", agent).Msg("Sub-agent returned error status")
		return fmt.Sprintf("[Agent error: %d]", resp.StatusCode)
	}

	var envelope struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Sprintf("[Agent unreachable: %v]", err)
	}

	return extractOutput(envelope.Data)
}

// extractOutput picks the agent's main output field, falling back to a
// dump of the whole payload when no known field matches.
func extractOutput(data map[string]json.RawMessage) string {
	for _, field := range outputFields {
		raw, ok := data[field]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			return text
		}
	}

	dump, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return string(dump)
}
