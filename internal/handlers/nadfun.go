package handlers

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/clawnad/backend/internal/infrastructure/nadfun"
	"github.com/clawnad/backend/pkg/httpext"
)

const maxImageBytes = 5 << 20

// NadfunHandler proxies the token-launch helper endpoints.
type NadfunHandler struct {
	nadfun *nadfun.Service
}

func NewNadfunHandler(nad *nadfun.Service) *NadfunHandler {
	return &NadfunHandler{nadfun: nad}
}

func (h *NadfunHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/nadfun/upload-image", h.UploadImage).Methods(http.MethodPost)
	r.HandleFunc("/nadfun/create-metadata", h.CreateMetadata).Methods(http.MethodPost)
	r.HandleFunc("/nadfun/get-salt", h.GetSalt).Methods(http.MethodPost)
}

// UploadImage handles POST /api/v1/nadfun/upload-image. Expects a
// multipart form with a single "image" field.
func (h *NadfunHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+4096)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		httpext.JsonError(w, http.StatusBadRequest, "MISSING_IMAGE", "No image file provided")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httpext.JsonError(w, http.StatusBadRequest, "MISSING_IMAGE", "No image file provided")
		return
	}
	defer file.Close()

	if header.Size > maxImageBytes {
		httpext.JsonError(w, http.StatusBadRequest, httpext.CodeInvalidParams, "Image exceeds 5MB limit")
		return
	}

	image, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		httpext.JsonError(w, http.StatusBadRequest, httpext.CodeInvalidParams, "Failed to read image")
		return
	}

	contentType := header.Header.Get("Content-Type")
	switch contentType {
	case "image/png", "image/jpeg", "image/webp", "image/gif":
	default:
		httpext.JsonError(w, http.StatusBadRequest, httpext.CodeInvalidParams, "Unsupported image type")
		return
	}

	result, err := h.nadfun.UploadImage(r.Context(), image, contentType)
	if err != nil {
		log.Error().Err(err).Msg("Image upload failed")
		httpext.JsonError(w, http.StatusBadGateway, httpext.CodeUpstreamError, "Image upload failed")
		return
	}

	httpext.JsonData(w, result)
}

// CreateMetadata handles POST /api/v1/nadfun/create-metadata.
func (h *NadfunHandler) CreateMetadata(w http.ResponseWriter, r *http.Request) {
	var input nadfun.MetadataInput
	if !httpext.DecodeValid(w, r, &input) {
		return
	}

	result, err := h.nadfun.CreateMetadata(r.Context(), input)
	if err != nil {
		log.Error().Err(err).Msg("Metadata creation failed")
		httpext.JsonError(w, http.StatusBadGateway, httpext.CodeUpstreamError, "Metadata creation failed")
		return
	}

	httpext.JsonData(w, result)
}

// GetSalt handles POST /api/v1/nadfun/get-salt.
func (h *NadfunHandler) GetSalt(w http.ResponseWriter, r *http.Request) {
	var input nadfun.SaltInput
	if !httpext.DecodeValid(w, r, &input) {
		return
	}

	result, err := h.nadfun.GetSalt(r.Context(), input)
	if err != nil {
		log.Error().Err(err).Msg("Salt generation failed")
		httpext.JsonError(w, http.StatusBadGateway, httpext.CodeUpstreamError, "Salt generation failed")
		return
	}

	httpext.JsonData(w, result)
}
