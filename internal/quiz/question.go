package quiz

import (
	"errors"
	"fmt"
	"strings"
)

// MinOptions is the smallest number of options a question may offer.
const MinOptions = 2

// ErrEmptySet is returned when a QuestionSet would contain no questions.
var ErrEmptySet = errors.New("question set is empty")

// Question is a single multiple-choice question. It is immutable once built
// with NewQuestion: callers receive copies and never share the options slice.
type Question struct {
	// Text is the question prompt shown to the learner.
	Text string

	// Options are the answer choices in display order.
	Options []string

	// CorrectIndex is the zero-based index into Options of the correct answer.
	// Always within [0, len(Options)-1].
	CorrectIndex int

	// Explanation is a short justification shown after the question resolves.
	// May be empty.
	Explanation string

	// Clamped is true when the generator supplied an out-of-range index
	// that was pulled back into range.
	Clamped bool
}

// NewQuestion builds a Question, clamping correctIndex into the valid option
// range. The generator contract is zero-based; an out-of-range value is never
// trusted, so both the learner check and the announced answer use the same
// clamped index.
func NewQuestion(text string, options []string, correctIndex int, explanation string) (Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Question{}, fmt.Errorf("question text is empty")
	}
	if len(options) < MinOptions {
		return Question{}, fmt.Errorf("question %q has %d options, need at least %d", text, len(options), MinOptions)
	}

	opts := make([]string, len(options))
	copy(opts, options)

	clamped := ClampIndex(correctIndex, len(opts))
	return Question{
		Text:         text,
		Options:      opts,
		CorrectIndex: clamped,
		Explanation:  strings.TrimSpace(explanation),
		Clamped:      clamped != correctIndex,
	}, nil
}

// ClampIndex pulls idx into [0, n-1]. n must be positive.
func ClampIndex(idx, n int) int {
	if idx < 0 {
		return 0
	}
	if idx > n-1 {
		return n - 1
	}
	return idx
}

// CorrectOption returns the text of the correct option.
func (q Question) CorrectOption() string {
	return q.Options[q.CorrectIndex]
}

// IsCorrect reports whether chosen is the correct option index.
func (q Question) IsCorrect(chosen int) bool {
	return chosen == q.CorrectIndex
}

func (q Question) clone() Question {
	c := q
	c.Options = make([]string, len(q.Options))
	copy(c.Options, q.Options)
	return c
}
