package quizgen

import (
	"fmt"
	"unicode/utf8"
)

// Quiz poll limits enforced by Telegram, in characters.
const (
	MaxQuestionChars    = 300
	MaxOptionChars      = 100
	MaxExplanationChars = 200
)

// PollLimitsValidator rejects drafts that could not be sent as a quiz poll.
type PollLimitsValidator struct{}

func (v *PollLimitsValidator) Name() string { return "poll-limits" }

func (v *PollLimitsValidator) Validate(d *Draft, _ Config) *ValidationError {
	for i, q := range d.Questions {
		if n := utf8.RuneCountInString(q.Text); n > MaxQuestionChars {
			return v.fail(i, fmt.Sprintf("question exceeds %d characters (%d)", MaxQuestionChars, n))
		}
		for _, o := range q.Options {
			if n := utf8.RuneCountInString(o); n > MaxOptionChars {
				return v.fail(i, fmt.Sprintf("option exceeds %d characters (%d)", MaxOptionChars, n))
			}
		}
		if n := utf8.RuneCountInString(q.Explanation); n > MaxExplanationChars {
			return v.fail(i, fmt.Sprintf("explanation exceeds %d characters (%d)", MaxExplanationChars, n))
		}
	}
	return nil
}

func (v *PollLimitsValidator) fail(i int, msg string) *ValidationError {
	return &ValidationError{
		Validator: v.Name(),
		Question:  i + 1,
		Message:   msg,
		Retryable: true,
	}
}
