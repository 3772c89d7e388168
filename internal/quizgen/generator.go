package quizgen

import (
	"context"

	"github.com/abhisek/lessonquiz/internal/quiz"
)

// Generator turns lesson text into a quiz.
type Generator interface {
	// Generate produces a validated QuestionSet for lessonText.
	// Failures are returned as *GenerationError.
	Generate(ctx context.Context, lessonText string) (quiz.QuestionSet, error)
}
