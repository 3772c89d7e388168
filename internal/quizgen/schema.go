package quizgen

import (
	"fmt"

	"github.com/abhisek/lessonquiz/internal/llm"
)

// QuizSchema returns the JSON schema for a quiz of questions questions with
// options options each. The counts are part of the name so recorded LLM
// requests show which shape was asked for.
func QuizSchema(questions, options int) *llm.Schema {
	return &llm.Schema{
		Name:        fmt.Sprintf("lesson-quiz-%dq-%do", questions, options),
		Description: "A multiple-choice quiz checking understanding of a lesson",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"questions": map[string]any{
					"type":     "array",
					"minItems": questions,
					"maxItems": questions,
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"question": map[string]any{
								"type":        "string",
								"description": "The question shown to the learner, answerable from the lesson alone",
							},
							"options": map[string]any{
								"type":        "array",
								"minItems":    options,
								"maxItems":    options,
								"items":       map[string]any{"type": "string"},
								"description": fmt.Sprintf("Exactly %d short answer options, exactly one of them correct", options),
							},
							"correct_index": map[string]any{
								"type":        "integer",
								"description": "0-based position of the correct option in options",
							},
							"explanation": map[string]any{
								"type":        "string",
								"description": "One or two sentences explaining why the correct option is right",
							},
						},
						"required":             []any{"question", "options", "correct_index", "explanation"},
						"additionalProperties": false,
					},
				},
			},
			"required":             []any{"questions"},
			"additionalProperties": false,
		},
	}
}
