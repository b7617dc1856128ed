package session

import (
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"pairpad/internal/catalog"
	"pairpad/pkg/protocol"
)

// Store holds one client's view of the shared interview: active question,
// language, code buffer and countdown. Mutations come from two places, the
// local emitter and inbound relay events, and both go through the same
// operations. Whatever applied last wins; there is no merging of concurrent
// remote updates.
type Store struct {
	mu        sync.Mutex
	catalog   *catalog.Catalog
	question  protocol.Question
	language  string
	code      string
	countdown *Countdown
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	QuestionID         string
	Question           protocol.Question
	Language           string
	Code               string
	CountdownRemaining int
	CountdownActive    bool
}

// NewStore creates a store positioned on the catalog's first question in the
// default language, with that pair's starter code in the buffer.
func NewStore(cat *catalog.Catalog, clock clockwork.Clock) *Store {
	question := cat.First()
	language := cat.DefaultLanguage()
	return &Store{
		catalog:   cat,
		question:  question,
		language:  language,
		code:      question.Starter(language),
		countdown: NewCountdown(clock),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining, active := s.countdown.Remaining()
	return Snapshot{
		QuestionID:         s.question.ID,
		Question:           s.question,
		Language:           s.language,
		Code:               s.code,
		CountdownRemaining: remaining,
		CountdownActive:    active,
	}
}

// ApplyCodeChange replaces the code buffer unconditionally.
func (s *Store) ApplyCodeChange(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = text
}

// ApplyQuestionChange switches to a catalog question and resets the code
// buffer to its starter code for the current language. An id that is not in
// the catalog leaves the state untouched; the miss is logged, never surfaced.
func (s *Store) ApplyQuestionChange(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	question, ok := s.catalog.Question(id)
	if !ok {
		log.Warn().Str("question_id", id).Msg("ignoring change to unknown question")
		return
	}
	s.question = question
	s.code = question.Starter(s.language)
}

// ApplyLanguageChange switches the editor language and resets the code
// buffer to the current question's starter code for it.
func (s *Store) ApplyLanguageChange(language string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.language = language
	s.code = s.question.Starter(language)
}

// ApplyCustomQuestion replaces the active question object outright. Used for
// the interviewer-authored slot, where edits ship the whole question rather
// than a catalog id.
func (s *Store) ApplyCustomQuestion(question protocol.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.question = question
	s.code = question.Starter(s.language)
}

// ApplyStartTimer starts (or restarts) the countdown at the given number of
// seconds. Ticking is purely local from here on.
func (s *Store) ApplyStartTimer(seconds int) {
	s.countdown.Start(seconds)
}

// Countdown exposes the ticker, mainly for tests and teardown.
func (s *Store) Countdown() *Countdown {
	return s.countdown
}

// Close stops the countdown ticker. Call on component teardown.
func (s *Store) Close() {
	s.countdown.Stop()
}
