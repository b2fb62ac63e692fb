package handlers

import (
	"net/http"
	"strconv"

	"github.com/clawnad/backend/pkg/httpext"
)

// pageParams carries the shared limit/offset query parameters.
type pageParams struct {
	Limit  int
	Offset int
}

// parsePage reads limit/offset with bounds checking. On a bad value it
// writes the 400 response and returns false.
func parsePage(w http.ResponseWriter, r *http.Request, maxLimit int) (pageParams, bool) {
	p := pageParams{Limit: 20, Offset: 0}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLimit {
			httpext.JsonError(w, http.StatusBadRequest, httpext.CodeInvalidParams, "Invalid limit parameter")
			return p, false
		}
		p.Limit = n
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httpext.JsonError(w, http.StatusBadRequest, httpext.CodeInvalidParams, "Invalid offset parameter")
			return p, false
		}
		p.Offset = n
	}

	return p, true
}

// oneOf reports whether value is empty or one of the allowed choices.
func oneOf(value string, allowed ...string) bool {
	if value == "" {
		return true
	}
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
