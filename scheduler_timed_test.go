package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestRunForExpires(t *testing.T) {
	s := New()
	g := NewWorkGuard(s)
	defer g.Release()

	start := time.Now()
	n := s.RunFor(50 * time.Millisecond)
	elapsed := time.Since(start)

	require.Equal(t, 0, n)
	require.GreaterOrEqual(t, elapsed, 45*time.Millisecond, "run_for should block until the deadline")
	require.False(t, s.Stopped(), "a timed-out run does not stop the scheduler")
}

func TestRunUntilPastDeadline(t *testing.T) {
	clk := newFakeClock()
	s := New(WithClock(clk))

	s.Post(func() { t.Error("operation must not run") })

	start := time.Now()
	n := s.RunUntil(clk.Now().Add(-time.Second))
	elapsed := time.Since(start)

	require.Equal(t, 0, n)
	require.Less(t, elapsed, time.Second, "a past deadline returns without waiting")
	require.Equal(t, int64(1), s.OutstandingWork(), "the queue is untouched")
	s.Shutdown()
}

func TestRunForCompletesReadyWorkFirst(t *testing.T) {
	s := New()
	g := NewWorkGuard(s)
	defer g.Release()

	ran := 0
	s.Post(func() { ran++ })
	s.Post(func() { ran++ })

	n := s.RunFor(50 * time.Millisecond)

	require.Equal(t, 2, n, "ready operations complete before the deadline applies")
	require.Equal(t, 2, ran)
	require.False(t, s.Stopped())
}

func TestRunForZeroOutstandingStops(t *testing.T) {
	s := New()
	require.Equal(t, 0, s.RunFor(time.Hour))
	require.True(t, s.Stopped())
}

func TestPollDrainsWithoutWaiting(t *testing.T) {
	s := New()
	g := NewWorkGuard(s)

	ran := 0
	for i := 0; i < 5; i++ {
		s.Post(func() { ran++ })
	}

	start := time.Now()
	n := s.Poll()
	elapsed := time.Since(start)

	require.Equal(t, 5, n)
	require.Equal(t, 5, ran)
	require.Less(t, elapsed, time.Second, "poll never blocks")
	require.False(t, s.Stopped(), "the guard is still outstanding")

	// Nothing ready: poll returns immediately with 0.
	require.Equal(t, 0, s.Poll())
	g.Release()
}

func TestPollOne(t *testing.T) {
	s := New()

	ran := 0
	s.Post(func() { ran++ })
	s.Post(func() { ran++ })

	require.Equal(t, 1, s.PollOne())
	require.Equal(t, 1, ran)
	require.Equal(t, int64(1), s.OutstandingWork())

	require.Equal(t, 1, s.PollOne())
	require.Equal(t, 2, ran)
	require.True(t, s.Stopped())

	require.Equal(t, 0, s.PollOne())
}

func TestRunOneBlocksUntilPosted(t *testing.T) {
	s := New()
	g := NewWorkGuard(s)
	defer g.Release()

	done := make(chan int, 1)
	go func() {
		done <- s.RunOne()
	}()

	for s.Stats().CondWaits == 0 {
		time.Sleep(time.Millisecond)
	}
	s.Post(func() {})

	select {
	case n := <-done:
		require.Equal(t, 1, n)
	case <-time.After(5 * time.Second):
		t.Fatal("run_one did not observe the post")
	}
}

func TestRunUntilReturnsOnStop(t *testing.T) {
	s := New()
	g := NewWorkGuard(s)
	defer g.Release()

	done := make(chan int, 1)
	go func() {
		done <- s.RunUntil(time.Now().Add(time.Hour))
	}()

	for s.Stats().CondWaits == 0 {
		time.Sleep(time.Millisecond)
	}
	s.Stop()

	select {
	case n := <-done:
		require.Equal(t, 0, n)
	case <-time.After(5 * time.Second):
		t.Fatal("stop did not wake the deadline-bounded worker")
	}
}
