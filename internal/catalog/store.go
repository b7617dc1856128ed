package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"pairpad/pkg/protocol"
)

// Store persists the question catalog in SQLite. The relay never touches it;
// it backs the HTTP API so catalog authoring stays outside client binaries.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle. The schema must already exist.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Seed inserts the catalog entries that are not in the database yet.
// Existing rows win so operator edits survive restarts.
func (s *Store) Seed(ctx context.Context, c *Catalog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for i, q := range c.Questions() {
		examples, err := json.Marshal(q.Examples)
		if err != nil {
			return fmt.Errorf("failed to marshal examples for %s: %w", q.ID, err)
		}
		constraints, err := json.Marshal(q.Constraints)
		if err != nil {
			return fmt.Errorf("failed to marshal constraints for %s: %w", q.ID, err)
		}
		starter, err := json.Marshal(q.StarterCode)
		if err != nil {
			return fmt.Errorf("failed to marshal starter code for %s: %w", q.ID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO questions
				(id, title, description, examples, constraints, starter_code, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			q.ID, q.Title, q.Description, string(examples), string(constraints), string(starter), i,
		)
		if err != nil {
			return fmt.Errorf("failed to seed question %s: %w", q.ID, err)
		}
	}

	for i, l := range c.Languages() {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO languages (id, name, position)
			VALUES (?, ?, ?)`,
			l.ID, l.Name, i,
		)
		if err != nil {
			return fmt.Errorf("failed to seed language %s: %w", l.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}
	return nil
}

// Load reads the whole catalog back out of the database in seed order.
func (s *Store) Load(ctx context.Context) (*Catalog, error) {
	questions, err := s.Questions(ctx)
	if err != nil {
		return nil, err
	}
	languages, err := s.Languages(ctx)
	if err != nil {
		return nil, err
	}
	return New(questions, languages)
}

// Questions returns all catalog questions ordered by position.
func (s *Store) Questions(ctx context.Context) ([]protocol.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, examples, constraints, starter_code
		FROM questions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []protocol.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}
	return questions, nil
}

// Question returns a single catalog entry by id.
func (s *Store) Question(ctx context.Context, id string) (protocol.Question, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, examples, constraints, starter_code
		FROM questions WHERE id = ?`, id)

	q, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		return protocol.Question{}, ErrQuestionNotFound
	}
	if err != nil {
		return protocol.Question{}, err
	}
	return q, nil
}

// Languages returns the supported languages ordered by position.
func (s *Store) Languages(ctx context.Context) ([]protocol.Language, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM languages ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query languages: %w", err)
	}
	defer rows.Close()

	var languages []protocol.Language
	for rows.Next() {
		var l protocol.Language
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, fmt.Errorf("failed to scan language: %w", err)
		}
		languages = append(languages, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate languages: %w", err)
	}
	return languages, nil
}

// HealthCheck verifies the database answers queries.
func (s *Store) HealthCheck(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("catalog database unavailable: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestion(row rowScanner) (protocol.Question, error) {
	var q protocol.Question
	var examples, constraints, starter string

	if err := row.Scan(&q.ID, &q.Title, &q.Description, &examples, &constraints, &starter); err != nil {
		return protocol.Question{}, err
	}
	if err := json.Unmarshal([]byte(examples), &q.Examples); err != nil {
		return protocol.Question{}, fmt.Errorf("corrupt examples for %s: %w", q.ID, err)
	}
	if err := json.Unmarshal([]byte(constraints), &q.Constraints); err != nil {
		return protocol.Question{}, fmt.Errorf("corrupt constraints for %s: %w", q.ID, err)
	}
	if err := json.Unmarshal([]byte(starter), &q.StarterCode); err != nil {
		return protocol.Question{}, fmt.Errorf("corrupt starter code for %s: %w", q.ID, err)
	}
	return q, nil
}
