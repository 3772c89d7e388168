package session

import (
	"errors"
	"fmt"
)

// ErrAborted is returned by Run when the session was stopped before all
// questions were resolved.
var ErrAborted = errors.New("session aborted")

// ErrNotFinished is returned by Finalize while questions are still pending.
var ErrNotFinished = errors.New("session has unresolved questions")

// ErrAlreadyStarted is returned when Start is called twice.
var ErrAlreadyStarted = errors.New("session already started")

// DeliveryError indicates the transport failed to deliver a question.
// The session is ended when this happens.
type DeliveryError struct {
	SessionID string
	Index     int
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("session %s: deliver question %d: %v", e.SessionID, e.Index+1, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// PersistenceError indicates the final score could not be stored. The
// session still completes; the score is kept for manual recovery.
type PersistenceError struct {
	SessionID string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("session %s: persist result: %v", e.SessionID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
