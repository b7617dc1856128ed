package database

import (
	"database/sql"
	"fmt"
)

// Catalog schema. Examples, constraints and starter code are stored as JSON
// text: the catalog is read whole into memory, never queried by sub-field.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS questions (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL,
	examples     TEXT NOT NULL DEFAULT '[]',
	constraints  TEXT NOT NULL DEFAULT '[]',
	starter_code TEXT NOT NULL DEFAULT '{}',
	position     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS languages (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	position INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_questions_position ON questions(position);
CREATE INDEX IF NOT EXISTS idx_languages_position ON languages(position);
`

// EnsureSchema creates the catalog tables when they do not exist yet.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create catalog schema: %w", err)
	}
	return nil
}

// ValidateSchema verifies the tables the catalog store depends on exist.
func ValidateSchema(db *sql.DB) error {
	required := map[string]string{
		"questions": "question catalog entries",
		"languages": "supported editor languages",
	}
	for table, description := range required {
		exists, err := tableExists(db, table)
		if err != nil {
			return fmt.Errorf("error checking table %s (%s): %w", table, description, err)
		}
		if !exists {
			return fmt.Errorf("required table %s (%s) does not exist", table, description)
		}
	}
	return nil
}

func tableExists(db *sql.DB, name string) (bool, error) {
	var count int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
