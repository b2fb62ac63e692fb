package config

// GetNadFunAPIURL returns the base URL of the nad.fun metadata service.
func GetNadFunAPIURL() string {
	return GetEnvOrDefault("NADFUN_API_URL", "https://api.nadapp.net")
}
