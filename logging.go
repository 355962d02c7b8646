package scheduler

// Logging is wired through logiface and attached per scheduler via
// WithLogger. All helpers tolerate a nil logger: logiface builders no-op
// when the root logger is nil, so the unconfigured path costs a nil check
// and nothing else.

func (s *Scheduler) logStopped() {
	s.logger.Debug().
		Int64("outstanding", s.outstanding.Load()).
		Log("scheduler stopped")
}

func (s *Scheduler) logReset() {
	s.logger.Debug().
		Int64("outstanding", s.outstanding.Load()).
		Log("scheduler reset")
}

func (s *Scheduler) logDrained() {
	s.logger.Debug().
		Log("scheduler drained")
}

func (s *Scheduler) logDestroyed() {
	s.logger.Warning().
		Log("operation destroyed without running")
}
