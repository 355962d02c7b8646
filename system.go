package scheduler

import (
	"runtime"
	"sync"
)

var (
	systemOnce sync.Once
	systemInst *Scheduler
)

// System returns the ambient system scheduler, shared process-wide. It is
// created on first use with one worker goroutine per GOMAXPROCS and kept
// alive for the life of the process by a permanent work guard, so its
// workers park on the condition variable whenever it is idle.
//
// Promise executors delegate their Post and Defer to it; it is also a
// convenient default for fire-and-forget work.
func System() *Scheduler {
	systemOnce.Do(func() {
		systemInst = New()
		NewWorkGuard(systemInst)
		for i := 0; i < runtime.GOMAXPROCS(0); i++ {
			go func() {
				for {
					// A panicking task unwinds out of Run; the
					// shared workers must survive it and resume
					// draining.
					func() {
						defer func() { _ = recover() }()
						systemInst.Run()
					}()
				}
			}()
		}
	})
	return systemInst
}
