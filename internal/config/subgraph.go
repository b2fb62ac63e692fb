package config

// GetSubgraphURL returns the GraphQL endpoint of the ClawNad indexer.
func GetSubgraphURL() string {
	return GetEnvOrDefault("SUBGRAPH_URL", "https://api.studio.thegraph.com/query/113915/clawnad-indexer/v0.0.5")
}
