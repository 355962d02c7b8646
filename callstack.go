package scheduler

import (
	"runtime"
	"sync"
)

// callStack answers "is the current goroutine inside a Run or Poll call on
// scheduler S?" in (amortized) constant time.
//
// Go offers no thread-local storage, so the per-goroutine frame chain is
// kept in a mutex-guarded map keyed by goroutine ID. Frames are pushed on
// entry to a Run/Poll call and popped on exit, including exits by panic;
// the chain depth is almost always one.
type callStack struct {
	mu   sync.Mutex
	tops map[uint64]*callFrame
}

// callFrame is one registration: scheduler identity mapped to the per-run
// context active for it, linked to the next-outer frame on the same
// goroutine.
type callFrame struct {
	key   *Scheduler
	value *runContext
	outer *callFrame
	gid   uint64
}

var running = callStack{tops: make(map[uint64]*callFrame)}

// push registers value as the innermost context for key on the current
// goroutine and returns the frame, which must be passed to pop.
func (c *callStack) push(key *Scheduler, value *runContext) *callFrame {
	gid := goroutineID()
	f := &callFrame{key: key, value: value, gid: gid}
	c.mu.Lock()
	f.outer = c.tops[gid]
	c.tops[gid] = f
	c.mu.Unlock()
	return f
}

// pop removes f, which must be the innermost frame of its goroutine.
func (c *callStack) pop(f *callFrame) {
	c.mu.Lock()
	if f.outer != nil {
		c.tops[f.gid] = f.outer
	} else {
		delete(c.tops, f.gid)
	}
	c.mu.Unlock()
}

// contains returns the most recent context registered for key on the
// current goroutine, or nil.
func (c *callStack) contains(key *Scheduler) *runContext {
	gid := goroutineID()
	c.mu.Lock()
	f := c.tops[gid]
	for f != nil && f.key != key {
		f = f.outer
	}
	c.mu.Unlock()
	if f != nil {
		return f.value
	}
	return nil
}

// goroutineID returns the current goroutine's ID, parsed from the header
// line of its stack dump.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
