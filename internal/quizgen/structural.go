package quizgen

import (
	"fmt"
	"strings"
)

// StructuralValidator checks that the draft has the configured number of
// questions and options, and that no required text is empty.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(d *Draft, cfg Config) *ValidationError {
	if len(d.Questions) != cfg.QuestionCount {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("expected %d questions, got %d", cfg.QuestionCount, len(d.Questions)),
			Retryable: true,
		}
	}

	for i, q := range d.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return &ValidationError{
				Validator: v.Name(),
				Question:  i + 1,
				Message:   "question text is empty",
				Retryable: true,
			}
		}
		if len(q.Options) != cfg.OptionCount {
			return &ValidationError{
				Validator: v.Name(),
				Question:  i + 1,
				Message:   fmt.Sprintf("expected %d options, got %d", cfg.OptionCount, len(q.Options)),
				Retryable: true,
			}
		}
		seen := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			key := strings.ToLower(strings.TrimSpace(o))
			if key == "" {
				return &ValidationError{
					Validator: v.Name(),
					Question:  i + 1,
					Message:   "option is empty",
					Retryable: true,
				}
			}
			if seen[key] {
				return &ValidationError{
					Validator: v.Name(),
					Question:  i + 1,
					Message:   fmt.Sprintf("duplicate option %q", o),
					Retryable: true,
				}
			}
			seen[key] = true
		}
	}
	return nil
}
