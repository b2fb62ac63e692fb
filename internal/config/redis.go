package config

// GetRedisURL returns the Redis address. Empty means no Redis; callers fall
// back to in-memory stores.
func GetRedisURL() string {
	return GetEnvOrDefault("REDIS_URL", "")
}

func GetRedisPassword() string {
	return GetEnvOrDefault("REDIS_PASSWORD", "")
}
