package session

import (
	"github.com/rs/zerolog/log"

	"pairpad/pkg/protocol"
)

// DefaultTimerSeconds is the countdown the interviewer's timer button starts.
const DefaultTimerSeconds = 300

// Transport is the outbound half of the event channel: fire-and-forget emit
// of a named event. No delivery confirmation reaches the caller.
type Transport interface {
	Emit(eventName string, payload interface{}) error
}

// RoleProvider answers whether this viewer is the interviewer. The decision
// is made by the surrounding auth layer; the emitter only consults it to
// gate the timer control, the protocol itself enforces nothing.
type RoleProvider interface {
	IsInterviewer() bool
}

// StaticRole is a RoleProvider with a fixed answer.
type StaticRole bool

// IsInterviewer implements RoleProvider.
func (r StaticRole) IsInterviewer() bool { return bool(r) }

// Emitter turns local user actions into store mutations plus outbound
// events. The store is always updated first: the acting user sees their own
// change immediately, and only the peers depend on the relay.
type Emitter struct {
	store     *Store
	transport Transport
	role      RoleProvider
}

// NewEmitter creates an emitter over the given store and transport.
func NewEmitter(store *Store, transport Transport, role RoleProvider) *Emitter {
	return &Emitter{store: store, transport: transport, role: role}
}

// EditCode handles a local edit: apply to the buffer, then emit the full
// text as a code-change event.
func (e *Emitter) EditCode(text string) {
	e.store.ApplyCodeChange(text)
	e.emit(protocol.EventCodeChange, text)
}

// SelectQuestion handles a local question selection.
func (e *Emitter) SelectQuestion(id string) {
	e.store.ApplyQuestionChange(id)
	e.emit(protocol.EventQuestionChange, id)
}

// SelectLanguage handles a local language switch.
func (e *Emitter) SelectLanguage(language string) {
	e.store.ApplyLanguageChange(language)
	e.emit(protocol.EventLanguageChange, language)
}

// EditCustomQuestion handles an interviewer edit to the custom question
// slot. The whole question object travels with the event.
func (e *Emitter) EditCustomQuestion(question protocol.Question) {
	e.store.ApplyCustomQuestion(question)
	e.emit(protocol.EventCustomQuestion, question)
}

// StartTimer starts a countdown locally and tells the peers to do the same.
// Only the interviewer's UI exposes the control, so non-interviewers are
// dropped here; a peer that emits start-timer anyway is still applied on
// the receiving side.
func (e *Emitter) StartTimer(seconds int) {
	if e.role != nil && !e.role.IsInterviewer() {
		log.Debug().Msg("ignoring timer start from non-interviewer")
		return
	}
	e.store.ApplyStartTimer(seconds)
	e.emit(protocol.EventStartTimer, seconds)
}

// emit sends the event best-effort. A send failure only affects the peers;
// local state has already moved on, so it is logged and swallowed.
func (e *Emitter) emit(name string, payload interface{}) {
	if err := e.transport.Emit(name, payload); err != nil {
		log.Warn().Err(err).Str("event", name).Msg("failed to emit event")
	}
}
