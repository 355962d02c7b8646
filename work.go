package scheduler

import (
	"sync/atomic"
)

// WorkGuard keeps a scheduler's outstanding work count above zero for as
// long as it is held, preventing the scheduler from stopping itself while
// work is pending outside its queues (an in-flight asynchronous operation,
// a producer that has not posted yet).
//
// Release the guard exactly once when the external work is done; Release
// is idempotent, so deferring it alongside an explicit call is safe.
type WorkGuard struct {
	s        *Scheduler
	released atomic.Bool
}

// NewWorkGuard records the start of one externally-held unit of work on s.
func NewWorkGuard(s *Scheduler) *WorkGuard {
	s.WorkStarted()
	return &WorkGuard{s: s}
}

// Release ends the unit of work. Only the first call has an effect. If
// this was the last outstanding unit, the scheduler stops.
func (w *WorkGuard) Release() {
	if w.released.CompareAndSwap(false, true) {
		w.s.WorkFinished()
	}
}
