package quizgen

import (
	"fmt"
	"strings"
)

// DuplicateValidator rejects drafts that ask the same question twice.
type DuplicateValidator struct{}

func (v *DuplicateValidator) Name() string { return "duplicate" }

func (v *DuplicateValidator) Validate(d *Draft, _ Config) *ValidationError {
	seen := make(map[string]int, len(d.Questions))
	for i, q := range d.Questions {
		key := normalizeText(q.Text)
		if first, ok := seen[key]; ok {
			return &ValidationError{
				Validator: v.Name(),
				Question:  i + 1,
				Message:   fmt.Sprintf("repeats question %d", first),
				Retryable: true,
			}
		}
		seen[key] = i + 1
	}
	return nil
}

// normalizeText lowercases s and collapses whitespace and trailing
// punctuation so trivially different phrasings compare equal.
func normalizeText(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	return strings.TrimRight(s, "?!. ")
}
