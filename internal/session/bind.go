package session

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"pairpad/pkg/protocol"
)

// Subscriber is the inbound half of the event channel: handlers registered
// per event name, invoked in receipt order.
type Subscriber interface {
	Subscribe(eventName string, handler func(payload json.RawMessage))
}

// Bind wires inbound relay events to store mutations: the dispatch table
// mapping each event name to its operation. Payloads that fail to decode are
// logged and skipped so one bad frame never stalls the stream behind it.
func Bind(store *Store, sub Subscriber) {
	sub.Subscribe(protocol.EventCodeChange, func(payload json.RawMessage) {
		var text string
		if !decode(protocol.EventCodeChange, payload, &text) {
			return
		}
		store.ApplyCodeChange(text)
	})

	sub.Subscribe(protocol.EventQuestionChange, func(payload json.RawMessage) {
		var id string
		if !decode(protocol.EventQuestionChange, payload, &id) {
			return
		}
		store.ApplyQuestionChange(id)
	})

	sub.Subscribe(protocol.EventLanguageChange, func(payload json.RawMessage) {
		var language string
		if !decode(protocol.EventLanguageChange, payload, &language) {
			return
		}
		store.ApplyLanguageChange(language)
	})

	sub.Subscribe(protocol.EventCustomQuestion, func(payload json.RawMessage) {
		var question protocol.Question
		if !decode(protocol.EventCustomQuestion, payload, &question) {
			return
		}
		store.ApplyCustomQuestion(question)
	})

	sub.Subscribe(protocol.EventStartTimer, func(payload json.RawMessage) {
		var seconds int
		if !decode(protocol.EventStartTimer, payload, &seconds) {
			return
		}
		store.ApplyStartTimer(seconds)
	})
}

func decode(event string, payload json.RawMessage, v interface{}) bool {
	if err := json.Unmarshal(payload, v); err != nil {
		log.Warn().Err(err).Str("event", event).Msg("skipping malformed payload")
		return false
	}
	return true
}
