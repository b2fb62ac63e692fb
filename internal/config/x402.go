package config

// X402Network is the CAIP-2 identifier of the Monad chain payments settle on.
const X402Network = "eip155:143"

// X402USDCAddress is the stable-value asset payments are denominated in.
const X402USDCAddress = "0x534b2f3A21130d7a60830c2Df862319e593943A3"

// GetX402PayToAddress returns the recipient of agent payments.
func GetX402PayToAddress() string {
	return GetEnvOrDefault("X402_PAY_TO_ADDRESS", "0xa8aE120c6CaA10e43878da47274Ed5544e66C1d5")
}

// GetX402FacilitatorURL returns the facilitator endpoint advertised in the
// agent info block.
func GetX402FacilitatorURL() string {
	return GetEnvOrDefault("X402_FACILITATOR_URL", "https://x402-facilitator.molandak.org")
}

// IsX402Enabled reports whether monetized routes are gated at all.
func IsX402Enabled() bool {
	return GetEnvOrDefault("X402_ENABLED", "true") != "false"
}
