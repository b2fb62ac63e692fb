package relay

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/clawnad/backend/pkg/sse"
)

// A Sink receives the normalized event stream. Send returning an error
// means the sink is unusable (client gone); the relay stops pulling from
// upstream when that happens.
type Sink interface {
	Send(ev sse.Event) error
}

// WriteSSEHeaders prepares an HTTP response for server-sent events and
// flushes the header block so the client sees the stream open immediately.
func WriteSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// sseSink frames events as the gateway's SSE wire format:
// data: {"content": "..."} / data: {"error": "..."} / data: [DONE].
type sseSink struct {
	w http.ResponseWriter
	f http.Flusher
}

// NewSSESink wraps an HTTP response as a Sink. Headers must already have
// been written with WriteSSEHeaders.
func NewSSESink(w http.ResponseWriter) Sink {
	f, _ := w.(http.Flusher)
	return &sseSink{w: w, f: f}
}

func (s *sseSink) Send(ev sse.Event) error {
	var frame string
	switch ev.Type {
	case sse.EventContent:
		payload, err := json.Marshal(map[string]string{"content": ev.Content})
		if err != nil {
			return err
		}
		frame = fmt.Sprintf("data: %s\n\n", payload)
	case sse.EventError:
		payload, err := json.Marshal(map[string]string{"error": ev.Message})
		if err != nil {
			return err
		}
		frame = fmt.Sprintf("data: %s\n\n", payload)
	case sse.EventDone:
		frame = "data: [DONE]\n\n"
	}

	if _, err := fmt.Fprint(s.w, frame); err != nil {
		return err
	}
	if s.f != nil {
		s.f.Flush()
	}
	return nil
}
