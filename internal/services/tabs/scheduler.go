package tabs

import "time"

// Timer is a pending scheduled call
type Timer interface {
	// Stop cancels the call and reports whether it was still pending
	Stop() bool
}

// Scheduler runs f once after d. The Manager debounces saves through it so
// tests can fire timers by hand.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallScheduler struct{}

func (wallScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// NewWallScheduler returns a Scheduler backed by time.AfterFunc
func NewWallScheduler() Scheduler {
	return wallScheduler{}
}
