package quizgen

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const systemPrompt = `You are a teaching assistant who writes short quizzes that check whether a student understood a lesson.

Rules:
- Every question must be answerable from the lesson text alone. Do not test outside knowledge.
- Each question has the requested number of options and exactly one of them is correct.
- Distractors should be plausible misreadings of the lesson, not obviously wrong.
- Options must be distinct and short (under 100 characters).
- Questions must be under 300 characters. Explanations must be under 200 characters.
- correct_index is the 0-based position of the correct option.
- Vary the position of the correct option across questions.
- Write in the same language as the lesson.
- Do not ask the same thing twice.`

// buildUserMessage constructs the user message for lessonText.
func buildUserMessage(lessonText string, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Questions: %d\n", cfg.QuestionCount)
	fmt.Fprintf(&b, "Options per question: %d\n", cfg.OptionCount)
	b.WriteString("\nLesson:\n")
	b.WriteString(truncateRunes(strings.TrimSpace(lessonText), cfg.MaxLessonChars))

	return b.String()
}

// buildRetryMessage asks the model to fix the draft that failed validation.
func buildRetryMessage(verr *ValidationError) string {
	return fmt.Sprintf("The previous quiz was rejected: %s. Generate the whole quiz again and fix this problem.", verr.Error())
}

// truncateRunes cuts s to at most max runes.
func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
