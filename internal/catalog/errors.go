package catalog

import "errors"

var (
	ErrEmptyCatalog        = errors.New("catalog has no questions")
	ErrNoLanguages         = errors.New("catalog has no languages")
	ErrMissingQuestionID   = errors.New("question id is required")
	ErrDuplicateQuestionID = errors.New("duplicate question id")
	ErrQuestionNotFound    = errors.New("question not found")
)
