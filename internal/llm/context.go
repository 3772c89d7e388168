package llm

import "context"

type contextKey string

const (
	purposeKey contextKey = "llm_purpose"
	lessonKey  contextKey = "llm_lesson"
)

// WithPurpose attaches a purpose label to the context for event logging.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom extracts the purpose label from the context, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}

// WithLesson tags the LLM calls made under ctx with a lesson id, so usage
// can be traced back to the lesson that caused it.
func WithLesson(ctx context.Context, lessonID string) context.Context {
	return context.WithValue(ctx, lessonKey, lessonID)
}

// LessonFrom returns the lesson id set by WithLesson, or "".
func LessonFrom(ctx context.Context) string {
	v, _ := ctx.Value(lessonKey).(string)
	return v
}
