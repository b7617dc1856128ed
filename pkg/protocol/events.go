package protocol

import (
	"encoding/json"
	"fmt"
)

// The five relay event names. The set is closed: the broadcaster forwards
// any well-formed envelope, but clients only dispatch on these names.
const (
	EventCodeChange     = "code-change"
	EventQuestionChange = "question-change"
	EventLanguageChange = "language-change"
	EventCustomQuestion = "custom-question"
	EventStartTimer     = "start-timer"
)

// Event is the wire envelope for a relayed event. Payload stays raw so the
// relay can forward it verbatim without inspecting its shape.
type Event struct {
	Name    string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an envelope with the payload marshaled to JSON.
func NewEvent(name string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", name, err)
	}
	return &Event{Name: name, Payload: data}, nil
}

// ParseEvent decodes a wire frame into an envelope. The payload is not
// validated here; malformed payloads are the receiver's problem to skip.
func ParseEvent(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("malformed event frame: %w", err)
	}
	if ev.Name == "" {
		return nil, ErrMissingEventName
	}
	return &ev, nil
}

// Encode serializes the envelope for the wire.
func (e *Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event %s: %w", e.Name, err)
	}
	return data, nil
}

// IsKnownEvent reports whether name is one of the five relay event names.
func IsKnownEvent(name string) bool {
	switch name {
	case EventCodeChange, EventQuestionChange, EventLanguageChange,
		EventCustomQuestion, EventStartTimer:
		return true
	}
	return false
}
