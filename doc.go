// Package scheduler provides a thread-safe work queue for deferred
// callables, with blocking and polling run modes, plus a completion-token
// adaptor that turns callback-style asynchronous operations into futures.
//
// # Architecture
//
// The core is the [Scheduler]: producers enqueue callables with
// [Scheduler.Post] or [Scheduler.Dispatch], and worker goroutines drain
// the queue with [Scheduler.Run], [Scheduler.RunOne], the deadline-bounded
// [Scheduler.RunFor] and [Scheduler.RunUntil], or the non-blocking
// [Scheduler.Poll] and [Scheduler.PollOne]. Workers block on an internal
// condition variable while work is outstanding but the queue is empty, and
// the scheduler stops itself once the outstanding work count reaches zero.
//
// A scheduler constructed with WithConcurrencyHint(1) promises a single
// worker goroutine and in exchange coalesces reentrant posts (work posted
// by a running callable) into a per-run private queue, paying no lock and
// no wake-up per post.
//
// The future half of the package ([Promise], [Future], and the handler
// constructors in usefuture.go) adapts an operation that completes by
// invoking a callback into one that returns a value through a one-shot
// handoff. Handler shapes cover plain completions, leading-error-code
// completions, leading-error completions, and packaged user callables.
//
// # Thread Safety
//
//   - All Scheduler methods are safe to call from any goroutine, except
//     that a WithConcurrencyHint(1) scheduler must be run by at most one
//     goroutine at a time.
//   - Promise settlement and Future waits are safe from any goroutine.
//   - User callables always run with the scheduler mutex released.
//
// # Usage
//
//	s := scheduler.New()
//
//	s.Post(func() { fmt.Println("hello") })
//	s.Post(func() { fmt.Println("world") })
//
//	n := s.Run() // drains both, then returns 2
//
// Futures compose with any callback-style operation:
//
//	h, f := scheduler.NewCodeHandler[int]()
//	beginAsyncRead(h.Invoke) // calls h.Invoke(code, n) when done
//	n, err := f.Get(ctx)
package scheduler
