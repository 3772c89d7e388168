package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/abhisek/lessonquiz/internal/quiz"
	"github.com/abhisek/lessonquiz/internal/registry"
	"github.com/abhisek/lessonquiz/internal/store"
)

// Registry arbitrates exactly-once resolution of delivered questions.
// *registry.Registry satisfies it.
type Registry interface {
	Register(tokenID, sessionID string, expectedCorrectIndex int) error
	ResolveOnce(tokenID string) (registry.PendingEvent, bool)
}

// QuestionDelivery is everything a transport needs to render one question.
type QuestionDelivery struct {
	Question quiz.Question

	// Number is the 1-based position of the question in the set.
	Number int

	// Total is the number of questions in the set.
	Total int

	// OpenFor is how long the learner has to answer.
	OpenFor time.Duration
}

// Transport delivers questions and status messages to a chat.
type Transport interface {
	// DeliverQuestion sends a question and returns the correlation id that
	// answers for it will carry.
	DeliverQuestion(ctx context.Context, chatID int64, d QuestionDelivery) (string, error)

	// DeliverMessage sends a plain status message.
	DeliverMessage(ctx context.Context, chatID int64, text string) error
}

// ResultStore records final scores. *store.Store satisfies it.
type ResultStore interface {
	PersistResult(ctx context.Context, data store.ResultData) (int64, error)
}

// Reporter forwards failures to an operator-facing channel.
type Reporter interface {
	ReportPersistenceFailure(ctx context.Context, data store.ResultData, err error)
}

// Deps are the collaborators an Engine needs. Registry and Transport are
// required; the rest are optional.
type Deps struct {
	Registry  Registry
	Transport Transport

	// Results persists the final score. Nil disables persistence.
	Results ResultStore

	// Timers defaults to SystemTimers.
	Timers Timers

	// Recovery keeps scores that failed to persist. Nil disables it.
	Recovery *RecoveryBuffer

	// Reporter is notified when persistence fails. Nil disables it.
	Reporter Reporter

	// Logger defaults to a discarding logger.
	Logger *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Options tune an Engine.
type Options struct {
	// QuestionDuration is the contract time the learner has per question.
	QuestionDuration time.Duration

	// TimeoutGrace is an explicit extra buffer added before the timeout
	// fires. It is not shown to the learner.
	TimeoutGrace time.Duration

	// FeedbackDelay is the pause after a question resolves before the next
	// one is delivered.
	FeedbackDelay time.Duration

	// EventBuffer is the capacity of the engine's event queue.
	EventBuffer int
}

// DefaultQuestionDuration is the per-question time limit when none is configured.
const DefaultQuestionDuration = 15 * time.Second

// DefaultOptions returns the standard engine options.
func DefaultOptions() Options {
	return Options{
		QuestionDuration: DefaultQuestionDuration,
		TimeoutGrace:     0,
		FeedbackDelay:    time.Second,
		EventBuffer:      16,
	}
}

// timeout is the duration after which an unanswered question resolves.
func (o Options) timeout() time.Duration {
	return o.QuestionDuration + o.TimeoutGrace
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.QuestionDuration <= 0 {
		o.QuestionDuration = def.QuestionDuration
	}
	if o.TimeoutGrace < 0 {
		o.TimeoutGrace = 0
	}
	if o.FeedbackDelay < 0 {
		o.FeedbackDelay = 0
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = def.EventBuffer
	}
	return o
}
