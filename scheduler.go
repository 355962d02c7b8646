package scheduler

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/logiface"
)

// Scheduler is a thread-safe FIFO work queue with worker-blocking
// semantics. Producers hand it callables via [Scheduler.Post] or
// [Scheduler.Dispatch]; workers drain it via the Run and Poll families.
//
// # Lifecycle
//
// Every posted callable is one unit of outstanding work, counted from the
// moment it is wrapped until it is completed or destroyed. When the count
// falls to zero the scheduler stops itself: waiting workers wake and every
// Run or Poll call returns 0 until [Scheduler.Reset] is called. Stopping
// never discards queued operations; Reset followed by Run resumes draining
// them.
//
// # Thread Safety
//
// Any number of goroutines may concurrently call any method on the same
// Scheduler. The one exception is a scheduler constructed with
// WithConcurrencyHint(1): the caller promises at most one goroutine runs
// it at a time, and the scheduler exploits that promise by coalescing
// reentrant posts into a per-run private queue, skipping the mutex and the
// wake-up entirely. Violating the promise is undefined.
//
// # Ordering
//
// Operations on the global queue run in FIFO order of their arrival, which
// for concurrent posters is the mutex acquisition order in Post. Reentrant
// posts on the single-goroutine configuration are spliced onto the tail of
// the global queue between operations and keep their mutual order.
//
// Callables run with the scheduler mutex released. The scheduler does not
// recover panics: a panicking callable unwinds through the worker's Run
// call. Work still queued, including reentrant posts not yet spliced,
// survives and may be drained by a subsequent Run.
type Scheduler struct {
	// Prevent copying
	_ [0]func()

	cond        cond
	clock       Clock
	logger      *logiface.Logger[logiface.Event]
	hooks       *testHooks
	queue       opQueue
	outstanding atomic.Int64
	mu          sync.Mutex
	stopped     bool
	oneThread   bool

	// Counters, see Stats.
	posts        atomic.Int64
	privatePosts atomic.Int64
	inline       atomic.Int64
	completions  atomic.Int64
	destroys     atomic.Int64
	condWaits    atomic.Int64
	lockCount    atomic.Int64
	notifies     atomic.Int64
}

// testHooks provides injection points for deterministic interleaving tests.
type testHooks struct {
	// onQueuePush is called, with the scheduler mutex held, each time an
	// operation is pushed onto the global queue.
	onQueuePush func(Operation)
}

// New creates a scheduler. With no options it assumes multiple worker
// goroutines and uses the real clock.
func New(opts ...Option) *Scheduler {
	cfg := resolveOptions(opts)
	s := &Scheduler{
		clock:     cfg.clock,
		logger:    cfg.logger,
		oneThread: cfg.concurrencyHint == 1,
	}
	s.cond.s = s
	return s
}

func (s *Scheduler) lock() {
	s.mu.Lock()
	s.lockCount.Add(1)
}

func (s *Scheduler) unlock() {
	s.mu.Unlock()
}

// Post enqueues fn to run on a worker goroutine. It never runs fn inline.
//
// On a WithConcurrencyHint(1) scheduler, a Post made from inside a running
// callable lands on the per-run private queue: no lock, no wake-up. The
// running worker splices the private queue onto the global queue before
// its next dequeue, so the work runs within the same Run call.
func (s *Scheduler) Post(fn func()) {
	op := newFuncOperation(s, fn)
	s.posts.Add(1)

	if s.oneThread {
		if c := running.contains(s); c != nil {
			s.privatePosts.Add(1)
			c.private.push(op)
			return
		}
	}

	s.lock()
	wasEmpty := s.queue.empty()
	s.queue.push(op)
	if s.hooks != nil && s.hooks.onQueuePush != nil {
		s.hooks.onQueuePush(op)
	}
	if wasEmpty {
		s.cond.notifyOne()
	}
	s.unlock()
}

// Dispatch runs fn inline when called from a goroutine that is itself
// inside a Run or Poll call on this scheduler, and posts it otherwise.
// Inline execution gives strict ordering with the caller's frame; Post
// always queues.
func (s *Scheduler) Dispatch(fn func()) {
	if running.contains(s) != nil {
		s.inline.Add(1)
		fn()
		return
	}
	s.Post(fn)
}

// Defer is equivalent to Post for this scheduler. It exists so the
// scheduler satisfies consumers that distinguish post from defer; the
// private-queue path already gives deferred work its run-after-the-current
// -operation placement on the single-goroutine configuration.
func (s *Scheduler) Defer(fn func()) {
	s.Post(fn)
}

// WorkStarted increments the outstanding work count. Pair every call with
// exactly one WorkFinished. Most callers want [NewWorkGuard] instead.
func (s *Scheduler) WorkStarted() {
	s.outstanding.Add(1)
}

// WorkFinished decrements the outstanding work count. A transition to zero
// stops the scheduler.
func (s *Scheduler) WorkFinished() {
	if s.outstanding.Add(-1) == 0 {
		s.logDrained()
		s.Stop()
	}
}

// OutstandingWork returns the current count of live work units, including
// externally held work guards.
func (s *Scheduler) OutstandingWork() int64 {
	return s.outstanding.Load()
}

// Stop marks the scheduler stopped and wakes every blocked worker. Queued
// operations are not discarded. Idempotent.
func (s *Scheduler) Stop() {
	s.lock()
	if !s.stopped {
		s.stopped = true
		s.logStopped()
	}
	s.cond.notifyAll()
	s.unlock()
}

// Stopped reports whether the scheduler is stopped.
func (s *Scheduler) Stopped() bool {
	s.lock()
	defer s.unlock()
	return s.stopped
}

// Shutdown stops the scheduler and destroys every queued operation without
// running it. The outstanding work count is unwound exactly once per
// destroyed operation. Posting to a scheduler after Shutdown is undefined.
func (s *Scheduler) Shutdown() {
	var pending opQueue
	s.lock()
	if !s.stopped {
		s.stopped = true
		s.logStopped()
	}
	pending.pushAll(&s.queue)
	s.cond.notifyAll()
	s.unlock()

	for !pending.empty() {
		pending.pop().Destroy()
	}
}

// Reset clears the stopped flag so subsequent Run and Poll calls can make
// progress again. The outstanding work count is untouched.
func (s *Scheduler) Reset() {
	s.lock()
	if s.stopped {
		s.stopped = false
		s.logReset()
	}
	s.unlock()
}

// Run drains operations, blocking for more whenever the queue is empty but
// work is still outstanding, until the scheduler stops. Returns the number
// of operations completed by this call, saturating at the maximum int.
//
// Returns 0 immediately, after stopping the scheduler, if no work is
// outstanding on entry.
func (s *Scheduler) Run() int {
	if s.outstanding.Load() == 0 {
		s.Stop()
		return 0
	}

	c := s.enterRun()
	defer c.exit()

	n := 0
	for s.doRunOne(c) != 0 {
		if n != math.MaxInt {
			n++
		}
		c.relock()
	}
	return n
}

// RunOne blocks until it completes a single operation, or until the
// scheduler stops. Returns the number of operations completed (0 or 1).
func (s *Scheduler) RunOne() int {
	if s.outstanding.Load() == 0 {
		s.Stop()
		return 0
	}

	c := s.enterRun()
	defer c.exit()

	return s.doRunOne(c)
}

// RunFor is Run bounded by a relative deadline. It returns when the
// scheduler stops or when the deadline passes with no operation ready; an
// operation already in progress is never interrupted.
func (s *Scheduler) RunFor(d time.Duration) int {
	return s.RunUntil(s.clock.Now().Add(d))
}

// RunUntil is Run bounded by an absolute deadline measured against the
// scheduler's clock. A deadline already past returns 0 without touching
// the queue.
func (s *Scheduler) RunUntil(t time.Time) int {
	if s.outstanding.Load() == 0 {
		s.Stop()
		return 0
	}

	c := s.enterRun()
	defer c.exit()

	n := 0
	for s.doRunOneUntil(c, t) != 0 {
		if n != math.MaxInt {
			n++
		}
		c.relock()
	}
	return n
}

// Poll completes all operations that are ready to run without blocking,
// and returns the number completed.
func (s *Scheduler) Poll() int {
	if s.outstanding.Load() == 0 {
		s.Stop()
		return 0
	}

	c := s.enterRun()
	defer c.exit()

	n := 0
	for s.doPollOne(c) != 0 {
		if n != math.MaxInt {
			n++
		}
		c.relock()
	}
	return n
}

// PollOne completes at most one ready operation without blocking, and
// returns the number completed (0 or 1).
func (s *Scheduler) PollOne() int {
	if s.outstanding.Load() == 0 {
		s.Stop()
		return 0
	}

	c := s.enterRun()
	defer c.exit()

	return s.doPollOne(c)
}

// doRunOne dequeues and completes a single operation, blocking on the
// condition variable while the queue is empty and the scheduler is not
// stopped. The mutex is held on entry; it is released around the
// operation's completion, and left released when 1 is returned.
func (s *Scheduler) doRunOne(c *runContext) int {
	for s.queue.empty() && !s.stopped {
		s.condWaits.Add(1)
		s.cond.wait()
	}

	if s.stopped {
		return 0
	}

	op := s.queue.pop()

	// Let another worker start on the remainder while this one runs op.
	if !s.oneThread && !s.queue.empty() {
		s.cond.notifyOne()
	}

	c.unlockForWork()

	op.Complete()
	return 1
}

// doRunOneUntil is doRunOne with the condition wait bounded by deadline.
// Returns 0 on timeout; an already-expired deadline returns 0 before
// looking at the queue.
func (s *Scheduler) doRunOneUntil(c *runContext, deadline time.Time) int {
	if !s.clock.Now().Before(deadline) {
		return 0
	}

	for s.queue.empty() && !s.stopped {
		s.condWaits.Add(1)
		if !s.cond.waitUntil(s.clock, deadline) {
			return 0
		}
	}

	if s.stopped {
		return 0
	}

	op := s.queue.pop()

	if !s.oneThread && !s.queue.empty() {
		s.cond.notifyOne()
	}

	c.unlockForWork()

	op.Complete()
	return 1
}

// doPollOne is doRunOne without the wait: an empty queue returns 0
// immediately.
func (s *Scheduler) doPollOne(c *runContext) int {
	if s.queue.empty() || s.stopped {
		return 0
	}

	op := s.queue.pop()

	if !s.oneThread && !s.queue.empty() {
		s.cond.notifyOne()
	}

	c.unlockForWork()

	op.Complete()
	return 1
}

// runContext is the ephemeral state of one in-flight Run or Poll call,
// held on the worker's stack. It owns the reentrancy registration, the
// private queue for reentrant posts, and knowledge of whether the worker
// currently holds the scheduler mutex.
type runContext struct {
	s       *Scheduler
	frame   *callFrame
	private opQueue
	locked  bool
}

// enterRun registers the context with the reentrancy registry and acquires
// the scheduler mutex.
func (s *Scheduler) enterRun() *runContext {
	c := &runContext{s: s}
	c.frame = running.push(s, c)
	s.lock()
	c.locked = true
	return c
}

// relock reacquires the mutex if released and splices any reentrant posts
// onto the global queue. Called between iterations of the loop forms.
//
// The splice deliberately wakes nobody: it only runs on the path where
// this worker is about to dequeue again itself, and on the
// single-goroutine configuration there is no other worker to wake.
func (c *runContext) relock() {
	if !c.locked {
		c.s.lock()
		c.locked = true
	}
	if !c.private.empty() {
		c.s.queue.pushAll(&c.private)
	}
}

// unlockForWork releases the mutex ahead of running a user callable.
func (c *runContext) unlockForWork() {
	c.locked = false
	c.s.unlock()
}

// exit flushes the private queue back to the global queue and releases the
// mutex and the reentrancy registration. It runs on every way out of a Run
// or Poll call, panics included, so reentrant posts are never lost.
func (c *runContext) exit() {
	if !c.private.empty() {
		if !c.locked {
			c.s.lock()
			c.locked = true
		}
		c.s.queue.pushAll(&c.private)
	}
	if c.locked {
		c.locked = false
		c.s.unlock()
	}
	running.pop(c.frame)
}
