package quizgen

import "fmt"

// Validator checks a generated draft.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier for this validator, e.g. "structural".
	Name() string

	// Validate returns nil if the draft passes.
	Validate(d *Draft, cfg Config) *ValidationError
}

// ValidationError describes why a draft failed validation.
type ValidationError struct {
	Validator string // Name of the validator that failed
	Question  int    // 1-based question number, 0 for the whole draft
	Message   string // Human-readable description of the failure
	Retryable bool   // Whether regeneration is likely to fix this
}

func (e *ValidationError) Error() string {
	if e.Question > 0 {
		return fmt.Sprintf("validator %q: question %d: %s", e.Validator, e.Question, e.Message)
	}
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}
