package pipeline

import "time"

// EventType classifies server events.
type EventType string

// Event types emitted by the pipeline.
const (
	EventLog      EventType = "log"
	EventResponse EventType = "response"
)

// ResponseEvent summarizes a completed request.
type ResponseEvent struct {
	Method   string
	Path     string
	Route    string
	Status   int
	Duration time.Duration
}

// Event is delivered to every Observer.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Tags      []string
	Data      any
	RequestID string
	Response  *ResponseEvent
}

// HasTag reports whether the event carries tag.
func (e Event) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Observer receives server events. Observe is called synchronously on the
// request goroutine and must be safe for concurrent use.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) {
	f(e)
}
