package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit    int       // max results (0 = unlimited)
	After    int64     // sequence > After
	Before   int64     // sequence < Before
	From     time.Time // timestamp >= From
	To       time.Time // timestamp <= To
	Purpose  string    // exact purpose match ("" = any)
	LessonID string    // LLM events for one lesson ("" = any)
}

// Lesson is a lesson text a teacher shared with learners.
type Lesson struct {
	ID        string
	AuthorID  int64
	Text      string
	CreatedAt time.Time
}

// LessonRepo stores lesson texts.
type LessonRepo interface {
	// CreateLesson stores text and returns the new lesson.
	CreateLesson(ctx context.Context, authorID int64, text string) (*Lesson, error)

	// GetLesson returns the lesson with id, or ErrNotFound.
	GetLesson(ctx context.Context, id string) (*Lesson, error)

	// LessonsByAuthor returns the author's lessons, newest first.
	LessonsByAuthor(ctx context.Context, authorID int64, limit int) ([]Lesson, error)
}

// ResultData captures the final score of one quiz session.
type ResultData struct {
	SessionID      string
	LearnerID      int64
	LessonID       string
	CorrectCount   int
	TotalQuestions int
	ScorePct       int
	CompletedAt    time.Time
}

// ResultRecord is a stored ResultData.
type ResultRecord struct {
	ID       int64
	Sequence int64
	ResultData
}

// ResultRepo stores quiz results.
type ResultRepo interface {
	// PersistResult stores data and returns its record id. Persisting the
	// same session twice returns the existing id without writing.
	PersistResult(ctx context.Context, data ResultData) (int64, error)

	// ResultsByLesson returns the results for a lesson, newest first.
	ResultsByLesson(ctx context.Context, lessonID string, opts QueryOpts) ([]ResultRecord, error)

	// ResultsByLearner returns a learner's results, newest first.
	ResultsByLearner(ctx context.Context, learnerID int64, opts QueryOpts) ([]ResultRecord, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
	LessonID     string // lesson the call was made for, if any
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates token usage per purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates token usage per model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns the event with id, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	// LLMUsageByPurpose aggregates usage grouped by purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)

	// LLMUsageByModel aggregates usage grouped by model.
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}
