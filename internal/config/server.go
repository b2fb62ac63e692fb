package config

// GetPort returns the HTTP listen port.
func GetPort() string {
	return GetEnvOrDefault("PORT", "3001")
}

// GetBaseURL returns the address agents use to reach each other. Sub-agent
// calls loop back through the local listener so they traverse the same
// middleware as external callers.
func GetBaseURL() string {
	return GetEnvOrDefault("BASE_URL", "http://localhost:"+GetPort())
}
