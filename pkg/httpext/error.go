package httpext

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// ErrorResponse is the standardised JSON error body.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// Error codes used across handlers.
const (
	CodeInvalidParams  = "INVALID_PARAMS"
	CodeNotFound       = "NOT_FOUND"
	CodeUpstreamError  = "UPSTREAM_ERROR"
	CodeInvalidPayment = "INVALID_PAYMENT"
	CodeInternalError  = "INTERNAL_ERROR"
)

// JsonError writes a JSON error response with the specified status code.
func JsonError(w http.ResponseWriter, code int, errCode, message string) {
	JsonErrorWithDetails(w, code, ErrorResponse{Error: message, Code: errCode})
}

// JsonErrorWithDetails writes a detailed JSON error response.
func JsonErrorWithDetails(w http.ResponseWriter, code int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode error response")
		http.Error(w, "{\"error\":\"Internal server error\",\"code\":\"INTERNAL_ERROR\"}", http.StatusInternalServerError)
	}
}

// JsonData writes a {"data": ...} success envelope.
func JsonData(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": payload}); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// Pagination is the framing block for list endpoints.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// JsonPage writes a paginated {"data": ..., "pagination": ...} envelope.
// The upstream store does not return total counts, so total reflects the
// page size and hasMore is inferred from a full page.
func JsonPage(w http.ResponseWriter, payload interface{}, count, limit, offset int) {
	w.Header().Set("Content-Type", "application/json")
	body := map[string]interface{}{
		"data": payload,
		"pagination": Pagination{
			Total:   count,
			Limit:   limit,
			Offset:  offset,
			HasMore: count == limit,
		},
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode paginated response")
	}
}
