package handlers

import (
	"math/big"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/clawnad/backend/internal/infrastructure/chain"
	"github.com/clawnad/backend/internal/infrastructure/subgraph"
	"github.com/clawnad/backend/internal/services/tokenmeta"
	"github.com/clawnad/backend/pkg/httpext"
)

// bonding-curve tokens all launch with a fixed 1B supply
const tokenTotalSupply = 1_000_000_000

// TokensHandler serves token trade history, pricing and metadata.
type TokensHandler struct {
	subgraph *subgraph.Service
	chain    *chain.Service
	metadata *tokenmeta.Service
}

func NewTokensHandler(sg *subgraph.Service, ch *chain.Service, meta *tokenmeta.Service) *TokensHandler {
	return &TokensHandler{subgraph: sg, chain: ch, metadata: meta}
}

func (h *TokensHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/tokens/{tokenAddress}/trades", h.Trades).Methods(http.MethodGet)
	r.HandleFunc("/tokens/{tokenAddress}/price", h.Price).Methods(http.MethodGet)
	r.HandleFunc("/tokens/{tokenAddress}/metadata", h.Metadata).Methods(http.MethodGet)
}

// Trades handles GET /api/v1/tokens/{tokenAddress}/trades.
func (h *TokensHandler) Trades(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(w, r, 100)
	if !ok {
		return
	}

	tradeType := r.URL.Query().Get("tradeType")
	if !oneOf(tradeType, "buy", "sell") {
		httpext.JsonError(w, http.StatusBadRequest, httpext.CodeInvalidParams, "Invalid tradeType parameter")
		return
	}

	trades, err := h.subgraph.TokenTrades(r.Context(), mux.Vars(r)["tokenAddress"], page.Limit, page.Offset, tradeType)
	if err != nil {
		log.Error().Err(err).Msg("Failed to query token trades")
		httpext.JsonError(w, http.StatusBadGateway, httpext.CodeUpstreamError, "Subgraph query failed")
		return
	}

	httpext.JsonPage(w, trades, len(trades), page.Limit, page.Offset)
}

type reservesView struct {
	RealMon      string `json:"realMon"`
	RealToken    string `json:"realToken"`
	VirtualMon   string `json:"virtualMon"`
	VirtualToken string `json:"virtualToken"`
}

type priceView struct {
	TokenAddress string        `json:"tokenAddress"`
	PriceInMon   string        `json:"priceInMon"`
	MarketCap    string        `json:"marketCap"`
	Progress     float64       `json:"progress"`
	Graduated    bool          `json:"graduated"`
	Reserves     *reservesView `json:"reserves"`
}

// Price handles GET /api/v1/tokens/{tokenAddress}/price. Chain read
// failures degrade to zero values; only a snapshot query failure is an
// error.
func (h *TokensHandler) Price(w http.ResponseWriter, r *http.Request) {
	addr := mux.Vars(r)["tokenAddress"]
	ctx := r.Context()

	snapshot, err := h.subgraph.LatestSnapshot(ctx, addr)
	if err != nil {
		log.Error().Err(err).Str("token", addr).Msg("Failed to query token snapshot")
		httpext.JsonError(w, http.StatusBadGateway, httpext.CodeUpstreamError, "Subgraph query failed")
		return
	}

	if snapshot == nil {
		httpext.JsonData(w, priceView{
			TokenAddress: addr,
			PriceInMon:   "0",
			MarketCap:    "0",
		})
		return
	}

	progress := big.NewInt(0)
	graduated := false
	if h.chain != nil {
		if p, err := h.chain.TokenProgress(ctx, addr); err == nil {
			progress = p
		} else {
			log.Debug().Err(err).Str("token", addr).Msg("Token progress read failed")
		}
		if g, err := h.chain.IsGraduated(ctx, addr); err == nil {
			graduated = g
		} else {
			log.Debug().Err(err).Str("token", addr).Msg("Graduation read failed")
		}
	}

	vMon := parseBig(snapshot.VirtualMonReserve)
	rMon := parseBig(snapshot.RealMonReserve)
	vToken := parseBig(snapshot.VirtualTokenReserve)
	rToken := parseBig(snapshot.RealTokenReserve)

	totalMon := new(big.Int).Add(vMon, rMon)
	totalToken := new(big.Int).Add(vToken, rToken)

	price := big.NewFloat(0)
	if totalToken.Sign() > 0 {
		price = new(big.Float).Quo(new(big.Float).SetInt(totalMon), new(big.Float).SetInt(totalToken))
	}
	marketCap := new(big.Float).Mul(price, big.NewFloat(tokenTotalSupply))

	httpext.JsonData(w, priceView{
		TokenAddress: addr,
		PriceInMon:   price.Text('f', 18),
		MarketCap:    marketCap.Text('f', 2),
		Progress:     float64(progress.Int64()) / 100, // basis points to percentage
		Graduated:    graduated,
		Reserves: &reservesView{
			RealMon:      formatEther(rMon),
			RealToken:    formatEther(rToken),
			VirtualMon:   formatEther(vMon),
			VirtualToken: formatEther(vToken),
		},
	})
}

// Metadata handles GET /api/v1/tokens/{tokenAddress}/metadata. Unknown
// tokens project as a null payload.
func (h *TokensHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	info, err := h.metadata.Lookup(r.Context(), mux.Vars(r)["tokenAddress"])
	if err != nil {
		log.Error().Err(err).Msg("Token metadata lookup failed")
		httpext.JsonError(w, http.StatusBadGateway, httpext.CodeUpstreamError, "Metadata lookup failed")
		return
	}
	httpext.JsonData(w, info)
}

func parseBig(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return n
}

var weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// formatEther renders a wei amount as a decimal ether string with
// trailing zeros trimmed.
func formatEther(wei *big.Int) string {
	s := new(big.Rat).SetFrac(wei, weiPerEther).FloatString(18)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
