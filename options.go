package scheduler

import (
	"github.com/joeycumines/logiface"
)

// schedulerOptions holds resolved configuration for New.
type schedulerOptions struct {
	clock           Clock
	logger          *logiface.Logger[logiface.Event]
	concurrencyHint int
}

// Option configures a Scheduler instance.
type Option interface {
	apply(*schedulerOptions)
}

type optionImpl struct {
	applyFunc func(*schedulerOptions)
}

func (o *optionImpl) apply(opts *schedulerOptions) {
	o.applyFunc(opts)
}

// WithConcurrencyHint declares how many goroutines will run the scheduler.
// The only value with an effect is 1, which enables the reentrant-post
// optimization: posts made from inside a running callable bypass the mutex
// and the wake-up by landing on a per-run private queue. A scheduler built
// with hint 1 must never be run by more than one goroutine at a time.
//
// Any other value, and the default, mean "unknown, assume many".
func WithConcurrencyHint(n int) Option {
	return &optionImpl{func(opts *schedulerOptions) {
		opts.concurrencyHint = n
	}}
}

// WithClock sets the time source used by RunFor and RunUntil. Defaults to
// the real clock. Intended mainly for tests.
func WithClock(clk Clock) Option {
	return &optionImpl{func(opts *schedulerOptions) {
		if clk != nil {
			opts.clock = clk
		}
	}}
}

// WithLogger attaches a structured logger. The scheduler logs lifecycle
// transitions (stopped, reset, drained) and operations destroyed without
// running. A nil logger is accepted and disables logging, which is also
// the default.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *schedulerOptions) {
		opts.logger = logger
	}}
}

// resolveOptions applies opts over the defaults. Nil options are skipped.
func resolveOptions(opts []Option) *schedulerOptions {
	cfg := &schedulerOptions{
		clock: realClock{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(cfg)
	}
	return cfg
}
