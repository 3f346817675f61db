package reveal

import "time"

// Scheduler abstracts timer creation so the animation state machine can be
// driven without a real clock in tests.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a cancelable pending callback.
type Timer interface {
	Stop() bool
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// NewScheduler returns a Scheduler backed by the wall clock.
func NewScheduler() Scheduler {
	return clockScheduler{}
}
