package nadfun

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clawnad/backend/internal/config"
	"github.com/rs/zerolog/log"
)

const (
	maxRetries = 2
	retryDelay = time.Second
)

// Service is a client for the nad.fun token-metadata API.
type Service struct {
	client  *http.Client
	baseURL string
}

func NewService() *Service {
	return NewServiceWith(config.GetNadFunAPIURL(), &http.Client{Timeout: 30 * time.Second})
}

func NewServiceWith(baseURL string, client *http.Client) *Service {
	return &Service{client: client, baseURL: baseURL}
}

// withRetry runs fn up to maxRetries+1 times with linear backoff.
func withRetry[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var lastErr error
	var zero T
	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt < maxRetries {
			select {
			case <-time.After(retryDelay * time.Duration(attempt+1)):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}
	return zero, lastErr
}

// UploadResult carries the hosted image URL.
type UploadResult struct {
	URL string `json:"url"`
}

// UploadImage stores an image and returns its hosted URI.
func (s *Service) UploadImage(ctx context.Context, image []byte, contentType string) (*UploadResult, error) {
	return withRetry(ctx, func() (*UploadResult, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/metadata/image", bytes.NewReader(image))
		if err != nil {
			return nil, fmt.Errorf("nadfun image upload: %w", err)
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("nadfun image upload: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("nadfun image upload failed: %d %s", resp.StatusCode, string(body))
		}

		var data struct {
			ImageURI string `json:"image_uri"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return nil, fmt.Errorf("nadfun image upload: %w", err)
		}
		if data.ImageURI == "" {
			return nil, fmt.Errorf("nadfun returned no image URL")
		}
		return &UploadResult{URL: data.ImageURI}, nil
	})
}

// MetadataInput is the gateway-facing metadata shape. Field names match
// what the frontend sends; they are remapped to nad.fun's names before
// forwarding.
type MetadataInput struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Symbol      string `json:"symbol" validate:"required,min=1,max=20"`
	Description string `json:"description" validate:"required,min=1,max=1000"`
	Image       string `json:"image" validate:"required,url"`
	Twitter     string `json:"twitter,omitempty"`
	Telegram    string `json:"telegram,omitempty"`
	Website     string `json:"website,omitempty"`
}

// MetadataResult carries the hosted metadata URL.
type MetadataResult struct {
	URL string `json:"url"`
}

// CreateMetadata uploads token metadata, remapping image -> image_uri.
func (s *Service) CreateMetadata(ctx context.Context, input MetadataInput) (*MetadataResult, error) {
	payload := map[string]string{
		"name":        input.Name,
		"symbol":      input.Symbol,
		"description": input.Description,
		"image_uri":   input.Image,
	}
	if input.Twitter != "" {
		payload["twitter"] = input.Twitter
	}
	if input.Telegram != "" {
		payload["telegram"] = input.Telegram
	}
	if input.Website != "" {
		payload["website"] = input.Website
	}

	return withRetry(ctx, func() (*MetadataResult, error) {
		data, err := s.postJSON(ctx, "/metadata/metadata", payload)
		if err != nil {
			return nil, fmt.Errorf("nadfun metadata creation: %w", err)
		}
		var out struct {
			MetadataURI string `json:"metadata_uri"`
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("nadfun metadata creation: %w", err)
		}
		if out.MetadataURI == "" {
			return nil, fmt.Errorf("nadfun returned no metadata URL")
		}
		return &MetadataResult{URL: out.MetadataURI}, nil
	})
}

// SaltInput requests a deterministic deploy salt for a token.
type SaltInput struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Symbol   string `json:"symbol" validate:"required,min=1,max=20"`
	Deployer string `json:"deployer" validate:"required,eth_addr"`
	TokenURI string `json:"tokenURI" validate:"required,url"`
}

// SaltResult carries the salt and the predicted token address.
type SaltResult struct {
	Salt  string `json:"salt"`
	Token string `json:"token"`
}

// GetSalt computes a deploy salt, remapping deployer -> creator and
// tokenURI -> metadata_uri.
func (s *Service) GetSalt(ctx context.Context, input SaltInput) (*SaltResult, error) {
	payload := map[string]string{
		"name":         input.Name,
		"symbol":       input.Symbol,
		"creator":      input.Deployer,
		"metadata_uri": input.TokenURI,
	}

	return withRetry(ctx, func() (*SaltResult, error) {
		data, err := s.postJSON(ctx, "/token/salt", payload)
		if err != nil {
			return nil, fmt.Errorf("nadfun salt generation: %w", err)
		}
		var out struct {
			Salt    string `json:"salt"`
			Address string `json:"address"`
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("nadfun salt generation: %w", err)
		}
		if out.Salt == "" || out.Address == "" {
			return nil, fmt.Errorf("nadfun returned incomplete salt data")
		}
		return &SaltResult{Salt: out.Salt, Token: out.Address}, nil
	})
}

// TokenInfo is the public metadata nad.fun holds for a token.
type TokenInfo struct {
	ImageURI    *string `json:"imageUri"`
	Description *string `json:"description"`
	Website     *string `json:"website"`
	Twitter     *string `json:"twitter"`
	IsGraduated bool    `json:"isGraduated"`
}

// TokenMetadata fetches public token metadata. Returns nil (no error) on
// upstream failure so callers can serve a null projection.
func (s *Service) TokenMetadata(ctx context.Context, tokenAddress string) (*TokenInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/token/"+tokenAddress, nil)
	if err != nil {
		return nil, fmt.Errorf("nadfun token metadata: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nadfun token metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Debug().Int("status", resp.StatusCode).Str("token", tokenAddress).Msg("nad.fun has no metadata for token")
		return nil, nil
	}

	var data struct {
		TokenInfo *struct {
			ImageURI    *string `json:"image_uri"`
			Description *string `json:"description"`
			Website     *string `json:"website"`
			Twitter     *string `json:"twitter"`
			IsGraduated bool    `json:"is_graduated"`
		} `json:"token_info"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("nadfun token metadata: %w", err)
	}
	if data.TokenInfo == nil {
		return &TokenInfo{}, nil
	}
	return &TokenInfo{
		ImageURI:    data.TokenInfo.ImageURI,
		Description: data.TokenInfo.Description,
		Website:     data.TokenInfo.Website,
		Twitter:     data.TokenInfo.Twitter,
		IsGraduated: data.TokenInfo.IsGraduated,
	}, nil
}

func (s *Service) postJSON(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(text))
	}
	return io.ReadAll(resp.Body)
}
