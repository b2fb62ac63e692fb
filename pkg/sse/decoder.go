package sse

import (
	"encoding/json"
	"strings"
)

const (
	dataPrefix = "data: "
	doneMarker = "[DONE]"
)

// chunkPayload is the subset of the provider's streaming chunk we care
// about. Everything else in the frame is ignored.
type chunkPayload struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Decoder turns raw byte chunks of a text/event-stream body into Events.
// Chunks may be split at arbitrary byte boundaries; the decoder buffers
// the trailing partial line between feeds. Once a terminal event has
// been produced, further input is ignored.
type Decoder struct {
	buf  string
	done bool
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends a chunk and returns every event completed by it.
func (d *Decoder) Feed(chunk []byte) []Event {
	if d.done {
		return nil
	}

	d.buf += string(chunk)
	lines := strings.Split(d.buf, "\n")
	d.buf = lines[len(lines)-1]

	var events []Event
	for _, line := range lines[:len(lines)-1] {
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := strings.TrimSpace(line[len(dataPrefix):])
		if payload == doneMarker {
			d.done = true
			events = append(events, DoneEvent())
			return events
		}

		var chunk chunkPayload
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			// Malformed frames are dropped, the stream continues.
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			events = append(events, ContentEvent(content))
		}
	}
	return events
}

// Close signals end of upstream input. If the stream ended without the
// end-marker, a Done event is synthesized so consumers always see a
// terminal event.
func (d *Decoder) Close() []Event {
	if d.done {
		return nil
	}
	d.done = true
	return []Event{DoneEvent()}
}
