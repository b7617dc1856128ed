package protocol

// CustomQuestionID is the one catalog slot the interviewer may rewrite live.
// Edits to it travel as custom-question events carrying the whole object.
const CustomQuestionID = "new_question"

// Question is a coding question presented during an interview. Catalog
// entries are read-only at runtime; only the custom slot is ever replaced.
type Question struct {
	ID          string            `json:"id" yaml:"id"`
	Title       string            `json:"title" yaml:"title"`
	Description string            `json:"description" yaml:"description"`
	Examples    []Example         `json:"examples" yaml:"examples"`
	Constraints []string          `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	StarterCode map[string]string `json:"starterCode" yaml:"starterCode"`
}

// Example is one worked input/output pair shown with a question.
type Example struct {
	Input       string `json:"input" yaml:"input"`
	Output      string `json:"output" yaml:"output"`
	Explanation string `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// Language is an editor language supported by the platform.
type Language struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Starter returns the starter code for a language, or the empty string when
// the question carries none for it. Matches how the editor resets its buffer.
func (q Question) Starter(language string) string {
	return q.StarterCode[language]
}

// IsCustom reports whether this is the interviewer-editable slot.
func (q Question) IsCustom() bool {
	return q.ID == CustomQuestionID
}
