package session

import (
	"time"

	"github.com/abhisek/lessonquiz/internal/quiz"
)

// Phase is the engine's position in the session state machine.
type Phase int

const (
	PhaseIdle           Phase = iota // Created, Start not yet called
	PhaseAwaitingAnswer              // A question is out and a timer is armed
	PhaseFinalizing                  // All questions resolved, score not yet recorded
	PhaseCompleted                   // Terminal
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingAnswer:
		return "awaiting-answer"
	case PhaseFinalizing:
		return "finalizing"
	case PhaseCompleted:
		return "completed"
	}
	return "unknown"
}

// Status is the coarse session status visible to collaborators.
type Status int

const (
	StatusActive Status = iota
	StatusCompleted
)

func (s Status) String() string {
	if s == StatusCompleted {
		return "completed"
	}
	return "active"
}

// Outcome records how a completed session ended.
type Outcome string

const (
	OutcomeNone     Outcome = ""         // Session still running
	OutcomeFinished Outcome = "finished" // Every question resolved and the score was computed
	OutcomeFailed   Outcome = "failed"   // Delivery or registration failed mid-session
	OutcomeAborted  Outcome = "aborted"  // Stopped by the learner or by shutdown
)

// SessionState is the per-learner progress record. It is owned by a single
// Engine and only mutated from that engine's event loop.
type SessionState struct {
	// SessionID uniquely identifies this run.
	SessionID string

	// LearnerID identifies who is allowed to answer.
	LearnerID int64

	// ChatID is where questions and messages are delivered.
	ChatID int64

	// LessonID is the lesson the questions were generated from.
	LessonID string

	// Questions is the immutable question set for this session.
	Questions quiz.QuestionSet

	// CurrentIndex is the index of the question awaiting resolution.
	// Equals Questions.Len() once every question has been resolved.
	CurrentIndex int

	// CorrectCount is the number of questions answered correctly so far.
	CorrectCount int

	Status  Status
	Phase   Phase
	Outcome Outcome

	// ActiveToken is the correlation id of the live question, "" if none.
	ActiveToken string

	StartedAt   time.Time
	CompletedAt time.Time
}

// Total returns the number of questions in the session.
func (s SessionState) Total() int {
	return s.Questions.Len()
}
