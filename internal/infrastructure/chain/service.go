package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"

	"github.com/clawnad/backend/internal/config"
)

// lensABI covers the read-only Lens views the gateway projects.
const lensABI = `[
  {"inputs":[{"name":"token","type":"address"}],"name":"getProgress","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"token","type":"address"}],"name":"isGraduated","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"token","type":"address"},{"name":"amountIn","type":"uint256"},{"name":"isBuy","type":"bool"}],"name":"getAmountOut","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

// caller is the subset of ethclient used, extracted for tests.
type caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Service reads bonding-curve state from the Lens contract on Monad.
type Service struct {
	eth  caller
	lens common.Address
	abi  abi.ABI
}

// NewService dials the configured RPC endpoint. Returns nil when the node
// is unreachable; token price projections then fall back to subgraph-only
// data.
func NewService(ctx context.Context) *Service {
	eth, err := ethclient.DialContext(ctx, config.GetMonadRPCURL())
	if err != nil {
		log.Error().Err(err).Str("rpc", config.GetMonadRPCURL()).Msg("Failed to dial Monad RPC")
		return nil
	}
	return NewServiceWith(eth, config.GetLensAddress())
}

func NewServiceWith(eth caller, lensAddress string) *Service {
	parsed, err := abi.JSON(strings.NewReader(lensABI))
	if err != nil {
		// The ABI is a compile-time constant; failing to parse it is a bug.
		panic(fmt.Sprintf("chain: invalid lens ABI: %v", err))
	}
	return &Service{
		eth:  eth,
		lens: common.HexToAddress(lensAddress),
		abi:  parsed,
	}
}

func (s *Service) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	input, err := s.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("chain: pack %s: %w", method, err)
	}

	output, err := s.eth.CallContract(ctx, ethereum.CallMsg{To: &s.lens, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: call %s: %w", method, err)
	}

	values, err := s.abi.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("chain: unpack %s: %w", method, err)
	}
	return values, nil
}

// TokenProgress returns the bonding-curve progress in basis points.
func (s *Service) TokenProgress(ctx context.Context, tokenAddress string) (*big.Int, error) {
	values, err := s.call(ctx, "getProgress", common.HexToAddress(tokenAddress))
	if err != nil {
		return nil, err
	}
	progress, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("chain: unexpected getProgress result %T", values[0])
	}
	return progress, nil
}

// IsGraduated reports whether the token has left the bonding curve.
func (s *Service) IsGraduated(ctx context.Context, tokenAddress string) (bool, error) {
	values, err := s.call(ctx, "isGraduated", common.HexToAddress(tokenAddress))
	if err != nil {
		return false, err
	}
	graduated, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("chain: unexpected isGraduated result %T", values[0])
	}
	return graduated, nil
}

// AmountOut quotes a curve trade.
func (s *Service) AmountOut(ctx context.Context, tokenAddress string, amountIn *big.Int, isBuy bool) (*big.Int, error) {
	values, err := s.call(ctx, "getAmountOut", common.HexToAddress(tokenAddress), amountIn, isBuy)
	if err != nil {
		return nil, err
	}
	out, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("chain: unexpected getAmountOut result %T", values[0])
	}
	return out, nil
}
