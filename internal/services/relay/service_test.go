package relay

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/clawnad/backend/internal/infrastructure/openrouter"
	"github.com/clawnad/backend/pkg/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectSink records every event it receives.
type collectSink struct {
	events  []sse.Event
	failAt  int
	sendErr error
}

func (c *collectSink) Send(ev sse.Event) error {
	if c.sendErr != nil && len(c.events) >= c.failAt {
		return c.sendErr
	}
	c.events = append(c.events, ev)
	return nil
}

// countingTransport fails every request and counts attempts.
type countingTransport struct {
	calls atomic.Int64
}

func (t *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	t.calls.Add(1)
	return nil, errors.New("network call in demo mode")
}

func TestStreamDemoMode(t *testing.T) {
	transport := &countingTransport{}
	provider := openrouter.NewServiceWith("", "http://unused", &http.Client{Transport: transport})
	svc := NewService(provider)

	sink := &collectSink{}
	svc.Stream(context.Background(), "openai/gpt-4o-mini", nil, 2048, "[Demo mode] SummaryBot would respond to this conversation.", sink)

	assert.Equal(t, []sse.Event{
		sse.ContentEvent("[Demo mode] SummaryBot would respond to this conversation."),
		sse.DoneEvent(),
	}, sink.events)
	assert.EqualValues(t, 0, transport.calls.Load(), "demo mode must not touch the network")
}

func TestStreamForwardsDecodedEvents(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, frame := range []string{
			"data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n",
			"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n",
			"data: [DONE]\n\n",
		} {
			_, _ = w.Write([]byte(frame))
			flusher.Flush()
		}
	}))
	defer upstream.Close()

	provider := openrouter.NewServiceWith("test-key", upstream.URL, upstream.Client())
	svc := NewService(provider)

	sink := &collectSink{}
	svc.Stream(context.Background(), "openai/gpt-4o-mini", []openrouter.Message{
		{Role: openrouter.RoleUser, Content: "hi"},
	}, 2048, "", sink)

	assert.Equal(t, []sse.Event{
		sse.ContentEvent("Hel"),
		sse.ContentEvent("lo"),
		sse.DoneEvent(),
	}, sink.events)
}

func TestStreamUpstreamErrorStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	provider := openrouter.NewServiceWith("test-key", upstream.URL, upstream.Client())
	svc := NewService(provider)

	sink := &collectSink{}
	svc.Stream(context.Background(), "openai/gpt-4o-mini", nil, 2048, "", sink)

	require.Len(t, sink.events, 1, "a single terminal error event, no partial content")
	assert.Equal(t, sse.EventError, sink.events[0].Type)
	assert.Contains(t, sink.events[0].Message, "429")
	assert.Contains(t, sink.events[0].Message, "model overloaded")
}

func TestStreamSynthesizesDoneWhenUpstreamEndsEarly(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Upstream closes without ever sending the end-marker.
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n"))
	}))
	defer upstream.Close()

	provider := openrouter.NewServiceWith("test-key", upstream.URL, upstream.Client())
	svc := NewService(provider)

	sink := &collectSink{}
	svc.Stream(context.Background(), "openai/gpt-4o-mini", nil, 2048, "", sink)

	assert.Equal(t, []sse.Event{
		sse.ContentEvent("partial"),
		sse.DoneEvent(),
	}, sink.events)
}

func TestStreamStopsWhenSinkDies(t *testing.T) {
	frames := make(chan string)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for frame := range frames {
			_, _ = w.Write([]byte(frame))
			flusher.Flush()
		}
	}))
	defer upstream.Close()
	defer close(frames)

	provider := openrouter.NewServiceWith("test-key", upstream.URL, upstream.Client())
	svc := NewService(provider)

	sink := &collectSink{failAt: 1, sendErr: errors.New("client gone")}

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Stream(context.Background(), "openai/gpt-4o-mini", nil, 2048, "", sink)
	}()

	frames <- "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n"
	frames <- "data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n\n"

	// The relay must return promptly once the sink refuses writes, long
	// before any end-marker arrives.
	<-done
	assert.Equal(t, []sse.Event{sse.ContentEvent("a")}, sink.events)
}
