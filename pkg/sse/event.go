package sse

// EventType discriminates the events produced by the decoder.
type EventType int

const (
	// EventContent carries an incremental chunk of assistant text.
	EventContent EventType = iota
	// EventDone marks the end of a stream. No events follow it.
	EventDone
	// EventError carries a terminal error. No events follow it.
	EventError
)

// Event is a single normalized stream event. Content is set for
// EventContent, Message for EventError.
type Event struct {
	Type    EventType
	Content string
	Message string
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

func ContentEvent(text string) Event {
	return Event{Type: EventContent, Content: text}
}

func DoneEvent() Event {
	return Event{Type: EventDone}
}

func ErrorEvent(message string) Event {
	return Event{Type: EventError, Message: message}
}
