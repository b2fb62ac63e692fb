package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/clawnad/backend/internal/infrastructure/openrouter"
	"github.com/clawnad/backend/pkg/sse"
	"github.com/rs/zerolog/log"
)

// Service owns the outbound streaming call to the inference provider and
// re-emits a normalized event sequence to a sink. Every stream it produces
// ends with exactly one terminal event unless the sink itself dies first.
type Service struct {
	provider *openrouter.Service
}

func NewService(provider *openrouter.Service) *Service {
	return &Service{provider: provider}
}

// Configured reports whether a provider credential is present.
func (s *Service) Configured() bool {
	return s.provider.Configured()
}

// Stream relays one streaming chat completion into the sink. demoText is
// emitted as the entire response when no provider credential is
// configured; that path performs no network call at all.
func (s *Service) Stream(ctx context.Context, model string, messages []openrouter.Message, maxTokens int, demoText string, sink Sink) {
	if !s.provider.Configured() {
		if err := sink.Send(sse.ContentEvent(demoText)); err != nil {
			return
		}
		_ = sink.Send(sse.DoneEvent())
		return
	}

	resp, err := s.provider.OpenStream(ctx, model, messages, maxTokens)
	if err != nil {
		_ = sink.Send(sse.ErrorEvent(err.Error()))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = sink.Send(sse.ErrorEvent(fmt.Sprintf("LLM API error %d: %s", resp.StatusCode, body)))
		return
	}

	decoder := sse.NewDecoder()
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, ev := range decoder.Feed(buf[:n]) {
				if err := sink.Send(ev); err != nil {
					// Client disconnected; stop pulling from upstream.
					log.Debug().Err(err).Msg("Stream sink closed, aborting relay")
					return
				}
				if ev.Terminal() {
					return
				}
			}
		}

		if readErr == io.EOF {
			for _, ev := range decoder.Close() {
				if err := sink.Send(ev); err != nil {
					return
				}
			}
			return
		}
		if readErr != nil {
			// Mid-stream failure with partial output already delivered:
			// the stream still ends with a well-formed terminal event.
			_ = sink.Send(sse.ErrorEvent(readErr.Error()))
			return
		}
	}
}
