package timer

import "encoding/json"

// EventType is the tag of an outbound timer event
type EventType string

const (
	EventTypeTimer EventType = "timer"
	EventTypeDone  EventType = "done"
	EventTypeStop  EventType = "stop"
)

// Event is the message broadcast to every connected client
type Event struct {
	Type  EventType `json:"type"`
	Value int64     `json:"value,omitempty"` // milliseconds remaining, timer events only
}

// ProgressEvent reports the remaining countdown time
func ProgressEvent(remaining int64) Event {
	return Event{Type: EventTypeTimer, Value: remaining}
}

// DoneEvent reports that the countdown elapsed
func DoneEvent() Event {
	return Event{Type: EventTypeDone}
}

// StopEvent reports that a client stopped the countdown
func StopEvent() Event {
	return Event{Type: EventTypeStop}
}

// Marshal serializes the event for the wire
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
