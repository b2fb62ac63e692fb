package config

// ChainID of the Monad network.
const ChainID = 143

// GetMonadRPCURL returns the JSON-RPC endpoint for chain reads.
func GetMonadRPCURL() string {
	return GetEnvOrDefault("MONAD_RPC_URL", "https://rpc.monad.xyz")
}

// GetLensAddress returns the Lens contract used for bonding-curve reads.
func GetLensAddress() string {
	return GetEnvOrDefault("LENS_ADDRESS", "0x7e78A8DE94f21804F7a17F4E8BF9EC2c872187ea")
}
