package middleware

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/clawnad/backend/internal/config"
	"github.com/clawnad/backend/pkg/httpext"
)

const (
	// PaymentHeader carries the caller's base64-encoded payment proof.
	PaymentHeader = "X-Payment"
	// RequiredHeader carries the base64-encoded challenge on 402 responses.
	RequiredHeader = "PAYMENT-REQUIRED"

	x402Version = 1

	// MinPriceUSD is the floor the facilitator accepts; caller-supplied
	// prices below it are clamped, never honored.
	MinPriceUSD = 0.01

	usdcDecimals = 1_000_000
)

// PaymentRequirement describes one accepted way to pay for a resource.
type PaymentRequirement struct {
	Scheme            string            `json:"scheme"`
	Network           string            `json:"network"`
	MaxAmountRequired string            `json:"maxAmountRequired"`
	Resource          string            `json:"resource"`
	Description       string            `json:"description"`
	MimeType          string            `json:"mimeType"`
	PayTo             string            `json:"payTo"`
	Asset             string            `json:"asset"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// PaymentRequired is the 402 challenge body.
type PaymentRequired struct {
	X402Version int                  `json:"x402Version"`
	Error       string               `json:"error"`
	Accepts     []PaymentRequirement `json:"accepts"`
}

// PaymentPayload is the decoded shape of the X-Payment header: a signed
// authorization produced by the caller's wallet. It is received once per
// request and never persisted or reused.
type PaymentPayload struct {
	X402Version int             `json:"x402Version"`
	Scheme      string          `json:"scheme"`
	Network     string          `json:"network"`
	Payload     json.RawMessage `json:"payload"`
}

// ClampPrice parses a caller-supplied dollar price and enforces the
// configured floor. Unparsable input also degrades to the floor.
func ClampPrice(requested string) float64 {
	price, err := strconv.ParseFloat(requested, 64)
	if err != nil || price < MinPriceUSD {
		return MinPriceUSD
	}
	return price
}

// BuildRequirements constructs the requirement set for a route. Fresh per
// request: the resource URL and price vary by call.
func BuildRequirements(priceUSD float64, resource, description, mimeType string) []PaymentRequirement {
	atomic := int64(math.Floor(priceUSD * usdcDecimals))
	return []PaymentRequirement{
		{
			Scheme:            "exact",
			Network:           config.X402Network,
			MaxAmountRequired: strconv.FormatInt(atomic, 10),
			Resource:          resource,
			Description:       description,
			MimeType:          mimeType,
			PayTo:             config.GetX402PayToAddress(),
			Asset:             config.X402USDCAddress,
			Extra:             map[string]string{"name": "USDC", "version": "2"},
		},
	}
}

// CheckPayment runs the payment state machine for one request. It returns
// true when the request is granted. Otherwise it has already written the
// 402 challenge or the 400 rejection and the handler must not run.
func CheckPayment(w http.ResponseWriter, r *http.Request, requirements []PaymentRequirement) bool {
	header := r.Header.Get(PaymentHeader)

	if header == "" {
		challenge := PaymentRequired{
			X402Version: x402Version,
			Error:       PaymentHeader + " header is required",
			Accepts:     requirements,
		}
		body, err := json.Marshal(challenge)
		if err != nil {
			httpext.JsonError(w, http.StatusInternalServerError, httpext.CodeInternalError, "Failed to build payment requirements")
			return false
		}

		w.Header().Set(RequiredHeader, base64.StdEncoding.EncodeToString(body))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write(body)
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		log.Warn().Err(err).Msg("Payment header is not valid base64")
		httpext.JsonError(w, http.StatusBadRequest, httpext.CodeInvalidPayment, "Invalid X-PAYMENT header")
		return false
	}

	var payload PaymentPayload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		log.Warn().Err(err).Msg("Payment header did not decode to a payment payload")
		httpext.JsonError(w, http.StatusBadRequest, httpext.CodeInvalidPayment, "Invalid X-PAYMENT header")
		return false
	}

	// The signed payload is accepted as proof of intent without asking
	// the facilitator to verify it. Known gap: a structurally valid but
	// unfunded authorization passes the gate.
	return true
}

// RequirePayment gates a fixed-price route. When x402 is disabled the
// gate is a no-op.
func RequirePayment(description, mimeType string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.IsX402Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			requirements := BuildRequirements(MinPriceUSD, r.URL.Path, description, mimeType)
			if !CheckPayment(w, r, requirements) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
