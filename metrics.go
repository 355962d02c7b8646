package scheduler

// Stats is a point-in-time snapshot of a scheduler's counters. All
// counters are monotonic over the scheduler's lifetime and maintained with
// atomic increments, so collection is always on and cheap.
type Stats struct {
	// Posts counts calls to Post, including those routed to a private
	// queue and those made on behalf of Dispatch and Defer.
	Posts int64

	// PrivatePosts counts posts that took the reentrant private-queue
	// path instead of the mutex.
	PrivatePosts int64

	// InlineDispatches counts Dispatch calls that ran their callable
	// inline rather than posting it.
	InlineDispatches int64

	// Completions counts operations completed (callable invoked).
	Completions int64

	// Destroys counts operations destroyed without running.
	Destroys int64

	// CondWaits counts condition-variable waits begun by blocked workers.
	CondWaits int64

	// LockAcquisitions counts acquisitions of the scheduler mutex.
	LockAcquisitions int64

	// Notifies counts condition-variable wake-ups delivered.
	Notifies int64
}

// Stats returns a snapshot of the scheduler's counters. The fields are
// read individually, not atomically as a set; treat the snapshot as
// approximate while the scheduler is in motion.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Posts:            s.posts.Load(),
		PrivatePosts:     s.privatePosts.Load(),
		InlineDispatches: s.inline.Load(),
		Completions:      s.completions.Load(),
		Destroys:         s.destroys.Load(),
		CondWaits:        s.condWaits.Load(),
		LockAcquisitions: s.lockCount.Load(),
		Notifies:         s.notifies.Load(),
	}
}
