package scheduler

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReentrantPostOrdering(t *testing.T) {
	s := New(WithConcurrencyHint(1))

	var globalPushes atomic.Int64
	s.hooks = &testHooks{onQueuePush: func(Operation) { globalPushes.Add(1) }}

	var order []string
	var pushesDuringX int64
	s.Post(func() {
		order = append(order, "X")
		before := globalPushes.Load()
		s.Post(func() { order = append(order, "Y") })
		s.Post(func() { order = append(order, "Z") })
		pushesDuringX = globalPushes.Load() - before
	})

	n := s.Run()

	require.Equal(t, 3, n)
	require.Equal(t, []string{"X", "Y", "Z"}, order)
	require.Zero(t, pushesDuringX, "reentrant posts must not touch the global queue")
	require.Equal(t, int64(2), s.Stats().PrivatePosts)
	require.True(t, s.Stopped())
}

func TestReentrantPostAcquiresNoLocks(t *testing.T) {
	s := New(WithConcurrencyHint(1))

	const innerPosts = 100
	var lockDelta int64 = -1
	s.Post(func() {
		before := s.Stats().LockAcquisitions
		for i := 0; i < innerPosts; i++ {
			s.Post(func() {})
		}
		lockDelta = s.Stats().LockAcquisitions - before
	})

	require.Equal(t, 1+innerPosts, s.Run())
	require.Zero(t, lockDelta, "posting from inside the run must not pay a lock per post")
}

func TestReentrantPostFromNonWorkerStillQueues(t *testing.T) {
	// The hint only matters for posts made from inside the run; outside
	// posters take the ordinary locked path.
	s := New(WithConcurrencyHint(1))

	s.Post(func() {})
	require.Zero(t, s.Stats().PrivatePosts)
	require.Equal(t, 1, s.Run())
}

func TestMultiThreadSchedulerDoesNotUsePrivateQueue(t *testing.T) {
	s := New()

	s.Post(func() {
		s.Post(func() {})
	})

	require.Equal(t, 2, s.Run())
	require.Zero(t, s.Stats().PrivatePosts)
}

func TestDeepReentrantChain(t *testing.T) {
	s := New(WithConcurrencyHint(1))

	const depth = 50
	ran := 0
	var step func()
	step = func() {
		ran++
		if ran < depth {
			s.Post(step)
		}
	}
	s.Post(step)

	require.Equal(t, depth, s.Run())
	require.Equal(t, depth, ran)
}

func TestPanicFlushesPrivateQueue(t *testing.T) {
	s := New(WithConcurrencyHint(1))

	var ran []string
	s.Post(func() {
		s.Post(func() { ran = append(ran, "Y") })
		panic("boom")
	})

	func() {
		defer func() {
			require.NotNil(t, recover(), "the panic must unwind through Run")
		}()
		s.Run()
	}()

	require.Empty(t, ran)
	require.Equal(t, int64(1), s.OutstandingWork(), "the reentrant post survives the panic")

	require.Equal(t, 1, s.Run(), "a subsequent run drains the flushed work")
	require.Equal(t, []string{"Y"}, ran)
}

func TestPanicReleasesReentrancyRegistration(t *testing.T) {
	s := New(WithConcurrencyHint(1))

	s.Post(func() { panic("boom") })
	func() {
		defer func() { _ = recover() }()
		s.Run()
	}()

	require.Nil(t, running.contains(s), "the per-run registration must be removed on panic exit")
}
