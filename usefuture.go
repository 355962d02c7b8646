package scheduler

// This file adapts callback-style asynchronous completion into futures. An
// asynchronous operation that reports completion by invoking a callback is
// handed a synthesized handler instead; invoking the handler packs the
// callback arguments into a result and settles a promise, and the caller
// keeps the matching future.
//
// Three handler shapes cover the common callback signatures:
//
//   - plain: every invocation fulfils with the packed value
//     (NewVoidHandler, NewHandler, NewPairHandler)
//   - error code first: a non-zero leading ErrorCode settles the future
//     with a *SystemError, a zero code fulfils with the remaining
//     arguments (NewVoidCodeHandler, NewCodeHandler, NewPairCodeHandler)
//   - error first: a non-nil leading error settles the future with that
//     error unchanged (NewVoidErrHandler, NewErrHandler, NewPairErrHandler)
//
// Argument packing follows the callback arity: no arguments become Unit,
// one argument is carried as-is, and two arguments become a Pair. Wider
// callbacks compose by nesting pairs.
//
// Each handler's Invoke settles its promise exactly once per the handoff
// contract; invoking a handler twice is a caller bug and the second
// invocation is ignored by the promise.

// Unit is the result type of completions that carry no value.
type Unit struct{}

// Pair is the packed result of a two-argument completion.
type Pair[T1, T2 any] struct {
	First  T1
	Second T2
}

// Executor schedules work bound to a completion. Dispatch runs the
// callable inline; Post and Defer hand it to the ambient system scheduler.
type Executor interface {
	Dispatch(fn func())
	Post(fn func())
	Defer(fn func())

	// Same reports whether the two executors are bound to the same
	// underlying completion.
	Same(other Executor) bool
}

// promiseExecutor is the executor associated with a synthesized handler.
// Work it runs has any panic converted into failure of the bound promise,
// so continuation-like work scheduled against a completion cannot take
// down a worker.
type promiseExecutor[T any] struct {
	p *Promise[T]
}

func (e promiseExecutor[T]) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.p.SetError(PanicError{Value: r})
		}
	}()
	fn()
}

// Dispatch runs fn inline on the calling goroutine.
func (e promiseExecutor[T]) Dispatch(fn func()) {
	e.invoke(fn)
}

// Post submits fn to the system scheduler.
func (e promiseExecutor[T]) Post(fn func()) {
	System().Post(func() { e.invoke(fn) })
}

// Defer submits fn to the system scheduler.
func (e promiseExecutor[T]) Defer(fn func()) {
	System().Defer(func() { e.invoke(fn) })
}

// Same reports whether other is bound to the same promise.
func (e promiseExecutor[T]) Same(other Executor) bool {
	o, ok := other.(promiseExecutor[T])
	return ok && o.p == e.p
}

// VoidHandler adapts a func() completion callback.
type VoidHandler struct {
	p *Promise[Unit]
}

// NewVoidHandler returns a handler for zero-argument completions and the
// future its invocation fulfils.
func NewVoidHandler() (*VoidHandler, *Future[Unit]) {
	p := NewPromise[Unit]()
	return &VoidHandler{p: p}, p.Future()
}

// Invoke is the completion callback.
func (h *VoidHandler) Invoke() {
	h.p.SetValue(Unit{})
}

// Executor returns the executor bound to this completion.
func (h *VoidHandler) Executor() Executor {
	return promiseExecutor[Unit]{p: h.p}
}

// Handler adapts a func(T) completion callback.
type Handler[T any] struct {
	p *Promise[T]
}

// NewHandler returns a handler for single-argument completions and the
// future its invocation fulfils.
func NewHandler[T any]() (*Handler[T], *Future[T]) {
	p := NewPromise[T]()
	return &Handler[T]{p: p}, p.Future()
}

// Invoke is the completion callback.
func (h *Handler[T]) Invoke(v T) {
	h.p.SetValue(v)
}

// Executor returns the executor bound to this completion.
func (h *Handler[T]) Executor() Executor {
	return promiseExecutor[T]{p: h.p}
}

// PairHandler adapts a func(T1, T2) completion callback.
type PairHandler[T1, T2 any] struct {
	p *Promise[Pair[T1, T2]]
}

// NewPairHandler returns a handler for two-argument completions and the
// future its invocation fulfils with the packed pair.
func NewPairHandler[T1, T2 any]() (*PairHandler[T1, T2], *Future[Pair[T1, T2]]) {
	p := NewPromise[Pair[T1, T2]]()
	return &PairHandler[T1, T2]{p: p}, p.Future()
}

// Invoke is the completion callback.
func (h *PairHandler[T1, T2]) Invoke(v1 T1, v2 T2) {
	h.p.SetValue(Pair[T1, T2]{First: v1, Second: v2})
}

// Executor returns the executor bound to this completion.
func (h *PairHandler[T1, T2]) Executor() Executor {
	return promiseExecutor[Pair[T1, T2]]{p: h.p}
}

// VoidCodeHandler adapts a func(ErrorCode) completion callback.
type VoidCodeHandler struct {
	p *Promise[Unit]
}

// NewVoidCodeHandler returns a handler for completions that deliver only
// an error code.
func NewVoidCodeHandler() (*VoidCodeHandler, *Future[Unit]) {
	p := NewPromise[Unit]()
	return &VoidCodeHandler{p: p}, p.Future()
}

// Invoke is the completion callback. A non-zero code fails the future
// with a *SystemError.
func (h *VoidCodeHandler) Invoke(code ErrorCode) {
	if !code.Ok() {
		h.p.SetError(&SystemError{Code: code})
		return
	}
	h.p.SetValue(Unit{})
}

// Executor returns the executor bound to this completion.
func (h *VoidCodeHandler) Executor() Executor {
	return promiseExecutor[Unit]{p: h.p}
}

// CodeHandler adapts a func(ErrorCode, T) completion callback.
type CodeHandler[T any] struct {
	p *Promise[T]
}

// NewCodeHandler returns a handler for completions that deliver an error
// code and one value.
func NewCodeHandler[T any]() (*CodeHandler[T], *Future[T]) {
	p := NewPromise[T]()
	return &CodeHandler[T]{p: p}, p.Future()
}

// Invoke is the completion callback. A non-zero code fails the future
// with a *SystemError; a zero code fulfils with v.
func (h *CodeHandler[T]) Invoke(code ErrorCode, v T) {
	if !code.Ok() {
		h.p.SetError(&SystemError{Code: code})
		return
	}
	h.p.SetValue(v)
}

// Executor returns the executor bound to this completion.
func (h *CodeHandler[T]) Executor() Executor {
	return promiseExecutor[T]{p: h.p}
}

// PairCodeHandler adapts a func(ErrorCode, T1, T2) completion callback.
type PairCodeHandler[T1, T2 any] struct {
	p *Promise[Pair[T1, T2]]
}

// NewPairCodeHandler returns a handler for completions that deliver an
// error code and two values.
func NewPairCodeHandler[T1, T2 any]() (*PairCodeHandler[T1, T2], *Future[Pair[T1, T2]]) {
	p := NewPromise[Pair[T1, T2]]()
	return &PairCodeHandler[T1, T2]{p: p}, p.Future()
}

// Invoke is the completion callback.
func (h *PairCodeHandler[T1, T2]) Invoke(code ErrorCode, v1 T1, v2 T2) {
	if !code.Ok() {
		h.p.SetError(&SystemError{Code: code})
		return
	}
	h.p.SetValue(Pair[T1, T2]{First: v1, Second: v2})
}

// Executor returns the executor bound to this completion.
func (h *PairCodeHandler[T1, T2]) Executor() Executor {
	return promiseExecutor[Pair[T1, T2]]{p: h.p}
}

// VoidErrHandler adapts a func(error) completion callback.
type VoidErrHandler struct {
	p *Promise[Unit]
}

// NewVoidErrHandler returns a handler for completions that deliver only a
// captured failure.
func NewVoidErrHandler() (*VoidErrHandler, *Future[Unit]) {
	p := NewPromise[Unit]()
	return &VoidErrHandler{p: p}, p.Future()
}

// Invoke is the completion callback. A non-nil err fails the future with
// err unchanged.
func (h *VoidErrHandler) Invoke(err error) {
	if err != nil {
		h.p.SetError(err)
		return
	}
	h.p.SetValue(Unit{})
}

// Executor returns the executor bound to this completion.
func (h *VoidErrHandler) Executor() Executor {
	return promiseExecutor[Unit]{p: h.p}
}

// ErrHandler adapts a func(error, T) completion callback.
type ErrHandler[T any] struct {
	p *Promise[T]
}

// NewErrHandler returns a handler for completions that deliver a captured
// failure and one value.
func NewErrHandler[T any]() (*ErrHandler[T], *Future[T]) {
	p := NewPromise[T]()
	return &ErrHandler[T]{p: p}, p.Future()
}

// Invoke is the completion callback.
func (h *ErrHandler[T]) Invoke(err error, v T) {
	if err != nil {
		h.p.SetError(err)
		return
	}
	h.p.SetValue(v)
}

// Executor returns the executor bound to this completion.
func (h *ErrHandler[T]) Executor() Executor {
	return promiseExecutor[T]{p: h.p}
}

// PairErrHandler adapts a func(error, T1, T2) completion callback.
type PairErrHandler[T1, T2 any] struct {
	p *Promise[Pair[T1, T2]]
}

// NewPairErrHandler returns a handler for completions that deliver a
// captured failure and two values.
func NewPairErrHandler[T1, T2 any]() (*PairErrHandler[T1, T2], *Future[Pair[T1, T2]]) {
	p := NewPromise[Pair[T1, T2]]()
	return &PairErrHandler[T1, T2]{p: p}, p.Future()
}

// Invoke is the completion callback.
func (h *PairErrHandler[T1, T2]) Invoke(err error, v1 T1, v2 T2) {
	if err != nil {
		h.p.SetError(err)
		return
	}
	h.p.SetValue(Pair[T1, T2]{First: v1, Second: v2})
}

// Executor returns the executor bound to this completion.
func (h *PairErrHandler[T1, T2]) Executor() Executor {
	return promiseExecutor[Pair[T1, T2]]{p: h.p}
}

// PackagedTask wraps a result-returning callable so that invoking the
// handler runs the callable and settles the future with its return value.
// A panic in the callable is captured as a PanicError failure.
type PackagedTask[R any] struct {
	p  *Promise[R]
	fn func() R
}

// PackageTask packages fn. Invoke runs it.
func PackageTask[R any](fn func() R) (*PackagedTask[R], *Future[R]) {
	p := NewPromise[R]()
	return &PackagedTask[R]{p: p, fn: fn}, p.Future()
}

// Invoke runs the packaged callable and settles the future.
func (h *PackagedTask[R]) Invoke() {
	defer func() {
		if r := recover(); r != nil {
			h.p.SetError(PanicError{Value: r})
		}
	}()
	h.p.SetValue(h.fn())
}

// Executor returns the executor bound to this completion.
func (h *PackagedTask[R]) Executor() Executor {
	return promiseExecutor[R]{p: h.p}
}

// PackagedFunc wraps a callable taking the completion argument, for
// packaging an asynchronous operation's callback rather than a plain
// task. Invoking the handler applies the callable to the delivered
// argument and settles the future with the result.
type PackagedFunc[A, R any] struct {
	p  *Promise[R]
	fn func(A) R
}

// PackageFunc packages fn. Invoke(a) applies it.
func PackageFunc[A, R any](fn func(A) R) (*PackagedFunc[A, R], *Future[R]) {
	p := NewPromise[R]()
	return &PackagedFunc[A, R]{p: p, fn: fn}, p.Future()
}

// Invoke is the completion callback; it applies the packaged callable.
func (h *PackagedFunc[A, R]) Invoke(a A) {
	defer func() {
		if r := recover(); r != nil {
			h.p.SetError(PanicError{Value: r})
		}
	}()
	h.p.SetValue(h.fn(a))
}

// Executor returns the executor bound to this completion.
func (h *PackagedFunc[A, R]) Executor() Executor {
	return promiseExecutor[R]{p: h.p}
}

// PostTask packages fn, posts its invocation to s, and returns the
// future. The future settles when a worker runs the task, with a
// PanicError failure if the task panics.
func PostTask[R any](s *Scheduler, fn func() R) *Future[R] {
	h, f := PackageTask(fn)
	s.Post(h.Invoke)
	return f
}
