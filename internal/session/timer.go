package session

import "time"

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop prevents the callback from firing if it has not fired yet.
	// It reports whether the call stopped the timer.
	Stop() bool
}

// Timers schedules timeout callbacks for delivered questions.
type Timers interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemTimers schedules callbacks on the runtime timer wheel.
var SystemTimers Timers = systemTimers{}

type systemTimers struct{}

func (systemTimers) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
