package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abhisek/lessonquiz/internal/store"
)

// MessageSender sends a plain text message to a chat.
type MessageSender interface {
	DeliverMessage(ctx context.Context, chatID int64, text string) error
}

// OperatorReporter sends persistence failures to an operator chat. A zero
// ChatID only logs.
type OperatorReporter struct {
	Sender MessageSender
	ChatID int64
	Logger *slog.Logger
}

// ReportPersistenceFailure implements session.Reporter.
func (r *OperatorReporter) ReportPersistenceFailure(ctx context.Context, data store.ResultData, err error) {
	log := r.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	log.Error("quiz result not saved",
		"session_id", data.SessionID,
		"learner_id", data.LearnerID,
		"lesson_id", data.LessonID,
		"correct", data.CorrectCount,
		"total", data.TotalQuestions,
		"error", err,
	)
	if r.ChatID == 0 || r.Sender == nil {
		return
	}
	if serr := r.Sender.DeliverMessage(ctx, r.ChatID, failureReport(data, err)); serr != nil {
		log.Warn("failed to notify operator", "error", serr)
	}
}

func failureReport(data store.ResultData, err error) string {
	return fmt.Sprintf(
		"⚠️ Result not saved\n\nSession: %s\nLearner: %d\nLesson: %s\nScore: %d/%d (%d%%)\nError: %v\n\nSend /recover to retry.",
		data.SessionID, data.LearnerID, data.LessonID,
		data.CorrectCount, data.TotalQuestions, data.ScorePct, err,
	)
}
