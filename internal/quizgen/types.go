package quizgen

import (
	"errors"
	"fmt"
)

// Draft is a quiz as returned by the LLM, before validation and before the
// questions are turned into quiz.Question values.
type Draft struct {
	Questions []DraftQuestion `json:"questions"`
}

// DraftQuestion is one generated multiple-choice question.
type DraftQuestion struct {
	Text    string   `json:"question"`
	Options []string `json:"options"`

	// CorrectIndex is 0-based. Out-of-range values are clamped when the
	// question is built, not rejected.
	CorrectIndex int `json:"correct_index"`

	Explanation string `json:"explanation"`
}

// ErrEmptyLesson is returned when there is no lesson text to quiz on.
var ErrEmptyLesson = errors.New("lesson text is empty")

// GenerationError reports that no usable quiz could be produced.
type GenerationError struct {
	// Attempts is the number of LLM calls made.
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("generate quiz (%d attempts): %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("generate quiz: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
