package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/clawnad/backend/internal/config"
	"github.com/clawnad/backend/internal/infrastructure/chain"
	"github.com/clawnad/backend/internal/infrastructure/nadfun"
	"github.com/clawnad/backend/internal/infrastructure/openrouter"
	"github.com/clawnad/backend/internal/infrastructure/redis"
	"github.com/clawnad/backend/internal/infrastructure/subgraph"
	"github.com/clawnad/backend/internal/services/dispatch"
	"github.com/clawnad/backend/internal/services/relay"
	"github.com/clawnad/backend/internal/services/tokenmeta"
)

var (
	// Mutex for thread-safe initialization
	servicesMu sync.RWMutex
)

type Services struct {
	chainService      *chain.Service
	dispatchService   *dispatch.Service
	nadfunService     *nadfun.Service
	openRouterService *openrouter.Service
	redisService      *redis.Service
	relayService      *relay.Service
	subgraphService   *subgraph.Service
	tokenMetaService  *tokenmeta.Service
}

// InitializeServices initializes all required services
func InitializeServices(ctx context.Context) (*Services, error) {
	servicesMu.Lock()
	defer servicesMu.Unlock()

	log.Info().Msg("Initializing core services")

	// Redis is optional; the metadata cache falls back to memory
	redisService := redis.NewService()
	log.Info().Msg("Initializing Redis service")

	subgraphService := subgraph.NewService()
	nadfunService := nadfun.NewService()
	log.Info().Msg("Initializing infrastructure services")

	// Chain reads are optional; price projections degrade without them
	chainService := chain.NewService(ctx)
	if chainService == nil {
		log.Warn().Msg("Chain service unavailable, price projections will omit on-chain fields")
	}

	openRouterService := openrouter.NewService()
	if !openRouterService.Configured() {
		log.Warn().Msg("OPENROUTER_API_KEY not set, agents run in demo mode")
	}

	relayService := relay.NewService(openRouterService)

	base := config.GetBaseURL()
	dispatchService := dispatch.NewService(dispatch.Registry{
		"SummaryBot":  base + "/agents/summary",
		"CodeAuditor": base + "/agents/code-audit",
	})
	log.Info().Msg("Initializing dispatch service")

	tokenMetaService := tokenmeta.NewService(redisService, nadfunService)
	log.Info().Msg("Initializing token metadata service")

	log.Info().Msg("All services initialized successfully")

	return &Services{
		chainService:      chainService,
		dispatchService:   dispatchService,
		nadfunService:     nadfunService,
		openRouterService: openRouterService,
		redisService:      redisService,
		relayService:      relayService,
		subgraphService:   subgraphService,
		tokenMetaService:  tokenMetaService,
	}, nil
}

// GetChainService returns the chain service, nil when unconfigured
func (s *Services) GetChainService() *chain.Service {
	return s.chainService
}

// GetDispatchService returns the agent dispatch service
func (s *Services) GetDispatchService() *dispatch.Service {
	return s.dispatchService
}

// GetNadfunService returns the nad.fun service
func (s *Services) GetNadfunService() *nadfun.Service {
	return s.nadfunService
}

// GetOpenRouterService returns the LLM provider service
func (s *Services) GetOpenRouterService() *openrouter.Service {
	return s.openRouterService
}

// GetRelayService returns the streaming relay service
func (s *Services) GetRelayService() *relay.Service {
	return s.relayService
}

// GetSubgraphService returns the subgraph service
func (s *Services) GetSubgraphService() *subgraph.Service {
	return s.subgraphService
}

// GetTokenMetaService returns the token metadata cache service
func (s *Services) GetTokenMetaService() *tokenmeta.Service {
	return s.tokenMetaService
}

// Close releases held connections.
func (s *Services) Close() {
	if s.redisService != nil {
		if err := s.redisService.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis connection")
		}
	}
}
