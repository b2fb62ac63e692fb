package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/clawnad/backend/internal/config"
	"github.com/rs/zerolog/log"
)

// Service is a read-only client for the ClawNad indexer subgraph.
type Service struct {
	client *http.Client
	url    string
}

func NewService() *Service {
	return NewServiceWith(config.GetSubgraphURL(), &http.Client{})
}

func NewServiceWith(url string, client *http.Client) *Service {
	return &Service{client: client, url: url}
}

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

// query posts a GraphQL document and decodes the data envelope into out.
func (s *Service) query(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("subgraph request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("subgraph request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("subgraph request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("subgraph request failed: %d %s", resp.StatusCode, resp.Status)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []gqlError      `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("subgraph response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("subgraph error: %s", envelope.Errors[0].Message)
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("subgraph response: %w", err)
	}
	return nil
}

// Entity is a schemaless subgraph row, passed through to API responses.
type Entity = map[string]interface{}

// AgentFilter narrows and orders the agents listing.
type AgentFilter struct {
	Limit          int
	Offset         int
	OrderBy        string
	OrderDirection string
	Active         *bool
	Creator        string
	Search         string
}

const agentFields = `
        id
        agentId
        tokenAddress
        creator
        agentWallet
        agentURI
        endpoint
        tokenName
        tokenSymbol
        active
        launchedAt
        blockNumber
        txHash
        totalRevenue
        totalFeedback
        totalScore
        tokenGraduated`

func buildAgentWhere(f AgentFilter) string {
	var conditions []string
	if f.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active: %t", *f.Active))
	}
	if f.Creator != "" {
		conditions = append(conditions, fmt.Sprintf("creator: %q", strings.ToLower(f.Creator)))
	}
	if f.Search != "" {
		escaped := strings.ReplaceAll(f.Search, `"`, `\"`)
		conditions = append(conditions, fmt.Sprintf(
			"or: [{ tokenName_contains_nocase: %q }, { tokenSymbol_contains_nocase: %q }]", escaped, escaped))
	}
	if len(conditions) == 0 {
		return ""
	}
	return "where: { " + strings.Join(conditions, ", ") + " }"
}

// Agents returns a filtered, ordered page of agents.
func (s *Service) Agents(ctx context.Context, f AgentFilter) ([]Entity, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.OrderBy == "" {
		f.OrderBy = "launchedAt"
	}
	if f.OrderDirection == "" {
		f.OrderDirection = "desc"
	}

	query := fmt.Sprintf(`
    query GetAgents($first: Int!, $skip: Int!, $orderBy: Agent_orderBy!, $orderDirection: OrderDirection!) {
      agents(
        first: $first
        skip: $skip
        orderBy: $orderBy
        orderDirection: $orderDirection
        %s
      ) {%s
      }
    }`, buildAgentWhere(f), agentFields)

	var data struct {
		Agents []Entity `json:"agents"`
	}
	err := s.query(ctx, query, map[string]interface{}{
		"first":          f.Limit,
		"skip":           f.Offset,
		"orderBy":        f.OrderBy,
		"orderDirection": f.OrderDirection,
	}, &data)
	if err != nil {
		return nil, err
	}
	return data.Agents, nil
}

// Agent returns one agent with its recent trades, feedback and revenue
// events, or nil when the id is unknown.
func (s *Service) Agent(ctx context.Context, agentID string) (Entity, error) {
	query := fmt.Sprintf(`
    query GetAgent($id: ID!) {
      agent(id: $id) {%s
        trades(first: 10, orderBy: blockTimestamp, orderDirection: desc) {
          id
          tradeType
          monAmount
          tokenAmount
          trader
          txHash
          blockTimestamp
        }
        feedback(first: 10, orderBy: blockTimestamp, orderDirection: desc) {
          id
          rater
          score
          tag1
          tag2
          txHash
          blockTimestamp
        }
        revenueEvents(first: 10, orderBy: blockTimestamp, orderDirection: desc) {
          id
          eventType
          amount
          paymentToken
          txHash
          blockTimestamp
        }
      }
    }`, agentFields)

	var data struct {
		Agent Entity `json:"agent"`
	}
	if err := s.query(ctx, query, map[string]interface{}{"id": agentID}, &data); err != nil {
		return nil, err
	}
	return data.Agent, nil
}

// TokenTrades returns trades for a token, newest first.
func (s *Service) TokenTrades(ctx context.Context, tokenAddress string, limit, offset int, tradeType string) ([]Entity, error) {
	if limit > 100 {
		limit = 100
	}
	conditions := []string{fmt.Sprintf("tokenAddress: %q", strings.ToLower(tokenAddress))}
	if tradeType != "" {
		conditions = append(conditions, fmt.Sprintf("tradeType: %q", tradeType))
	}

	query := fmt.Sprintf(`
    query GetTrades($first: Int!, $skip: Int!) {
      tokenTrades(
        first: $first
        skip: $skip
        orderBy: blockTimestamp
        orderDirection: desc
        where: { %s }
      ) {
        id
        tokenAddress
        trader
        tradeType
        monAmount
        tokenAmount
        blockNumber
        txHash
        blockTimestamp
      }
    }`, strings.Join(conditions, ", "))

	var data struct {
		TokenTrades []Entity `json:"tokenTrades"`
	}
	err := s.query(ctx, query, map[string]interface{}{"first": limit, "skip": offset}, &data)
	if err != nil {
		return nil, err
	}
	return data.TokenTrades, nil
}

// Snapshot is the latest bonding-curve reserve state of a token.
type Snapshot struct {
	ID                  string `json:"id"`
	TokenAddress        string `json:"tokenAddress"`
	RealMonReserve      string `json:"realMonReserve"`
	RealTokenReserve    string `json:"realTokenReserve"`
	VirtualMonReserve   string `json:"virtualMonReserve"`
	VirtualTokenReserve string `json:"virtualTokenReserve"`
	BlockNumber         string `json:"blockNumber"`
	BlockTimestamp      string `json:"blockTimestamp"`
}

// LatestSnapshot returns the most recent reserve snapshot, or nil.
func (s *Service) LatestSnapshot(ctx context.Context, tokenAddress string) (*Snapshot, error) {
	query := fmt.Sprintf(`
    query GetSnapshot {
      tokenSnapshots(
        first: 1
        orderBy: blockTimestamp
        orderDirection: desc
        where: { tokenAddress: %q }
      ) {
        id
        tokenAddress
        realMonReserve
        realTokenReserve
        virtualMonReserve
        virtualTokenReserve
        blockNumber
        blockTimestamp
      }
    }`, strings.ToLower(tokenAddress))

	var data struct {
		TokenSnapshots []Snapshot `json:"tokenSnapshots"`
	}
	if err := s.query(ctx, query, nil, &data); err != nil {
		return nil, err
	}
	if len(data.TokenSnapshots) == 0 {
		return nil, nil
	}
	return &data.TokenSnapshots[0], nil
}

// Feedback returns reputation feedback for an agent, newest first.
func (s *Service) Feedback(ctx context.Context, agentID string, limit, offset int) ([]Entity, error) {
	if limit > 100 {
		limit = 100
	}
	query := fmt.Sprintf(`
    query GetFeedback($first: Int!, $skip: Int!) {
      reputationFeedbacks(
        first: $first
        skip: $skip
        orderBy: blockTimestamp
        orderDirection: desc
        where: { agent: %q }
      ) {
        id
        rater
        score
        tag1
        tag2
        feedbackHash
        blockNumber
        txHash
        blockTimestamp
      }
    }`, agentID)

	var data struct {
		ReputationFeedbacks []Entity `json:"reputationFeedbacks"`
	}
	err := s.query(ctx, query, map[string]interface{}{"first": limit, "skip": offset}, &data)
	if err != nil {
		return nil, err
	}
	return data.ReputationFeedbacks, nil
}

// RevenueEvents returns revenue events for an agent, newest first.
func (s *Service) RevenueEvents(ctx context.Context, agentID string, limit, offset int) ([]Entity, error) {
	if limit > 100 {
		limit = 100
	}
	query := fmt.Sprintf(`
    query GetRevenue($first: Int!, $skip: Int!) {
      revenueEvents(
        first: $first
        skip: $skip
        orderBy: blockTimestamp
        orderDirection: desc
        where: { agent: %q }
      ) {
        id
        eventType
        paymentToken
        amount
        agentShare
        buybackShare
        platformFee
        fromAddress
        toAddress
        blockNumber
        txHash
        blockTimestamp
      }
    }`, agentID)

	var data struct {
		RevenueEvents []Entity `json:"revenueEvents"`
	}
	err := s.query(ctx, query, map[string]interface{}{"first": limit, "skip": offset}, &data)
	if err != nil {
		return nil, err
	}
	return data.RevenueEvents, nil
}

// Activity merges recent launches, trades and feedback into one feed
// sorted by timestamp, newest first.
func (s *Service) Activity(ctx context.Context, limit int) ([]Entity, error) {
	var launches struct {
		Agents []Entity `json:"agents"`
	}
	err := s.query(ctx, fmt.Sprintf(`
      query { agents(first: %d, orderBy: launchedAt, orderDirection: desc) {
        agentId endpoint tokenName tokenSymbol creator launchedAt txHash
      }}`, limit), nil, &launches)
	if err != nil {
		return nil, err
	}

	var trades struct {
		TokenTrades []Entity `json:"tokenTrades"`
	}
	err = s.query(ctx, fmt.Sprintf(`
      query { tokenTrades(first: %d, orderBy: blockTimestamp, orderDirection: desc, where: { agent_not: null }) {
        tradeType monAmount tokenAmount trader blockTimestamp txHash
        agent { agentId tokenSymbol }
      }}`, limit), nil, &trades)
	if err != nil {
		return nil, err
	}

	var feedback struct {
		ReputationFeedbacks []Entity `json:"reputationFeedbacks"`
	}
	err = s.query(ctx, fmt.Sprintf(`
      query { reputationFeedbacks(first: %d, orderBy: blockTimestamp, orderDirection: desc) {
        score tag1 rater blockTimestamp txHash
        agent { agentId }
      }}`, limit), nil, &feedback)
	if err != nil {
		// Feedback may not be indexed yet on fresh deployments.
		log.Warn().Err(err).Msg("Activity feed: feedback query failed, continuing without it")
		feedback.ReputationFeedbacks = nil
	}

	var items []Entity
	appendItems := func(kind, tsField string, rows []Entity) {
		for _, row := range rows {
			item := Entity{"type": kind, "timestamp": row[tsField]}
			for k, v := range row {
				item[k] = v
			}
			items = append(items, item)
		}
	}
	appendItems("launch", "launchedAt", launches.Agents)
	appendItems("trade", "blockTimestamp", trades.TokenTrades)
	appendItems("feedback", "blockTimestamp", feedback.ReputationFeedbacks)

	sort.SliceStable(items, func(i, j int) bool {
		return timestampOf(items[i]) > timestampOf(items[j])
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func timestampOf(item Entity) float64 {
	switch ts := item["timestamp"].(type) {
	case string:
		var n float64
		fmt.Sscanf(ts, "%f", &n)
		return n
	case float64:
		return ts
	default:
		return 0
	}
}

// PlatformStats are the aggregate platform counters.
type PlatformStats struct {
	TotalAgents   int    `json:"totalAgents"`
	TotalTrades   int    `json:"totalTrades"`
	TotalRevenue  string `json:"totalRevenue"`
	TotalFeedback int    `json:"totalFeedback"`
}

// Stats returns the platform counters, zero-valued when the aggregate
// entity has not been created yet.
func (s *Service) Stats(ctx context.Context) (PlatformStats, error) {
	var data struct {
		PlatformStats *PlatformStats `json:"platformStats"`
	}
	err := s.query(ctx, `
    query {
      platformStats(id: "platform") {
        totalAgents
        totalTrades
        totalRevenue
        totalFeedback
      }
    }`, nil, &data)
	if err != nil {
		return PlatformStats{}, err
	}
	if data.PlatformStats == nil {
		return PlatformStats{TotalRevenue: "0"}, nil
	}
	return *data.PlatformStats, nil
}
