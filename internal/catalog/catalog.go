package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"pairpad/pkg/protocol"
)

//go:embed seed.yaml
var seedYAML []byte

// Catalog is the static question and language set a client works against.
// Questions keep their seed order so selection UIs stay stable across peers.
type Catalog struct {
	questions []protocol.Question
	byID      map[string]protocol.Question
	languages []protocol.Language
}

type seedFile struct {
	Languages []protocol.Language `yaml:"languages"`
	Questions []protocol.Question `yaml:"questions"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog parsed from the embedded seed. The seed ships
// with the binary, so a parse failure is a build defect, not a runtime one.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(seedYAML)
	})
	return defaultCatalog, defaultErr
}

// Parse builds a catalog from YAML seed data.
func Parse(data []byte) (*Catalog, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse catalog seed: %w", err)
	}
	return New(seed.Questions, seed.Languages)
}

// New builds a catalog from already-loaded entries.
func New(questions []protocol.Question, languages []protocol.Language) (*Catalog, error) {
	if len(questions) == 0 {
		return nil, ErrEmptyCatalog
	}
	if len(languages) == 0 {
		return nil, ErrNoLanguages
	}

	byID := make(map[string]protocol.Question, len(questions))
	for _, q := range questions {
		if q.ID == "" {
			return nil, fmt.Errorf("catalog question %q: %w", q.Title, ErrMissingQuestionID)
		}
		if _, dup := byID[q.ID]; dup {
			return nil, fmt.Errorf("catalog question %q: %w", q.ID, ErrDuplicateQuestionID)
		}
		byID[q.ID] = q
	}

	return &Catalog{
		questions: questions,
		byID:      byID,
		languages: languages,
	}, nil
}

// Question looks up a catalog entry by id.
func (c *Catalog) Question(id string) (protocol.Question, bool) {
	q, ok := c.byID[id]
	return q, ok
}

// Questions returns all entries in seed order.
func (c *Catalog) Questions() []protocol.Question {
	out := make([]protocol.Question, len(c.questions))
	copy(out, c.questions)
	return out
}

// First returns the initial question a fresh session starts on.
func (c *Catalog) First() protocol.Question {
	return c.questions[0]
}

// Languages returns the supported languages in seed order.
func (c *Catalog) Languages() []protocol.Language {
	out := make([]protocol.Language, len(c.languages))
	copy(out, c.languages)
	return out
}

// DefaultLanguage returns the language a fresh session starts in.
func (c *Catalog) DefaultLanguage() string {
	return c.languages[0].ID
}

// HasLanguage reports whether id is a supported language.
func (c *Catalog) HasLanguage(id string) bool {
	for _, l := range c.languages {
		if l.ID == id {
			return true
		}
	}
	return false
}
