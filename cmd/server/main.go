package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/clawnad/backend/internal/agents"
	"github.com/clawnad/backend/internal/config"
	"github.com/clawnad/backend/internal/handlers"
	"github.com/clawnad/backend/internal/middleware"
	"github.com/clawnad/backend/internal/services"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if config.GetEnvOrDefault("LOG_PRETTY", "") != "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	svc, err := services.InitializeServices(ctx)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer svc.Close()

	r := setupRouter(svc)

	port := config.GetPort()
	log.Info().
		Str("port", port).
		Bool("x402_enabled", config.IsX402Enabled()).
		Str("subgraph", config.GetSubgraphURL()).
		Msg("ClawNad backend starting")

	// no WriteTimeout: chat responses stream for as long as the model talks
	server := &http.Server{
		Addr:        ":" + port,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

// setupRouter builds the full route tree. CORS wraps the router itself
// so preflight requests are answered even when no route matches.
func setupRouter(svc *services.Services) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	handlers.NewAgentsHandler(svc.GetSubgraphService()).RegisterRoutes(api)
	handlers.NewTokensHandler(svc.GetSubgraphService(), svc.GetChainService(), svc.GetTokenMetaService()).RegisterRoutes(api)
	handlers.NewReputationHandler(svc.GetSubgraphService()).RegisterRoutes(api)
	handlers.NewRevenueHandler(svc.GetSubgraphService()).RegisterRoutes(api)
	handlers.NewActivityHandler(svc.GetSubgraphService()).RegisterRoutes(api)
	handlers.NewStatsHandler(svc.GetSubgraphService()).RegisterRoutes(api)
	handlers.NewNadfunHandler(svc.GetNadfunService()).RegisterRoutes(api)
	handlers.NewChatHandler(svc.GetRelayService()).RegisterRoutes(api)

	rt := agents.NewRuntime(svc.GetOpenRouterService(), svc.GetRelayService(), svc.GetDispatchService())
	for _, agent := range []*agents.Descriptor{agents.SummaryBot(), agents.CodeAuditor(), agents.Orchestrator()} {
		agents.Mount(r.PathPrefix(agent.Endpoint).Subrouter(), agent, rt)
	}

	return middleware.RequestLogger(middleware.CORS()(r))
}
