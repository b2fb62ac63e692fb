package httpext

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// use a single instance of Validate, it caches struct info
var validate = validator.New(validator.WithRequiredStructEnabled())

// fieldError is one entry of the per-field detail block on 400 responses.
type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Value string `json:"value,omitempty"`
}

// Validate checks a struct against its validation tags without writing
// any response, for transports that frame errors themselves.
func Validate(dst interface{}) error {
	return validate.Struct(dst)
}

// DecodeValid decodes a JSON body into dst and validates it against its
// struct tags. On failure it writes the 400 response and returns false.
func DecodeValid(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Warn().Err(err).Msg("Client sent malformed JSON request")
		JsonError(w, http.StatusBadRequest, CodeInvalidParams, "Invalid request format")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		log.Warn().Err(err).Msg("Request validation failed")
		JsonErrorWithDetails(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Validation error",
			Code:    CodeInvalidParams,
			Details: validationDetails(err),
		})
		return false
	}
	return true
}

func validationDetails(err error) interface{} {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	details := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fieldError{
			Field: fe.Namespace(),
			Rule:  fe.Tag(),
			Value: fe.Param(),
		})
	}
	return details
}
