package config

// OpenRouter exposes an OpenAI-compatible API; the gateway relays all LLM
// traffic through it.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// GetOpenRouterAPIKey returns the OpenRouter credential. An empty value is
// not fatal: the gateway falls back to demo-mode responses without making
// any provider calls.
func GetOpenRouterAPIKey() string {
	return GetEnvOrDefault("OPENROUTER_API_KEY", "")
}

// GetOpenRouterReferer returns the HTTP-Referer attribution header value
// OpenRouter asks integrators to send.
func GetOpenRouterReferer() string {
	return GetEnvOrDefault("OPENROUTER_REFERER", "https://clawnad.dev")
}

// GetOpenRouterTitle returns the X-Title attribution header value.
func GetOpenRouterTitle() string {
	return GetEnvOrDefault("OPENROUTER_TITLE", "ClawNad")
}
