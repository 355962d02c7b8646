package scheduler

import (
	"testing"
)

func TestCallStackPushContainsPop(t *testing.T) {
	var cs callStack
	cs.tops = make(map[uint64]*callFrame)

	s1, s2 := New(), New()
	c1, c2 := &runContext{s: s1}, &runContext{s: s2}

	if cs.contains(s1) != nil {
		t.Fatal("empty stack should not contain s1")
	}

	f1 := cs.push(s1, c1)
	if got := cs.contains(s1); got != c1 {
		t.Error("contains(s1) should return the registered context")
	}
	if cs.contains(s2) != nil {
		t.Error("contains(s2) should be nil while only s1 is registered")
	}

	f2 := cs.push(s2, c2)
	if got := cs.contains(s1); got != c1 {
		t.Error("outer registration should remain visible under a nested one")
	}
	if got := cs.contains(s2); got != c2 {
		t.Error("contains(s2) should return the nested context")
	}

	cs.pop(f2)
	if cs.contains(s2) != nil {
		t.Error("popped registration should no longer be visible")
	}
	cs.pop(f1)
	if cs.contains(s1) != nil {
		t.Error("stack should be empty after popping both frames")
	}
	if len(cs.tops) != 0 {
		t.Error("goroutine entry should be removed once its chain empties")
	}
}

func TestCallStackInnermostWins(t *testing.T) {
	var cs callStack
	cs.tops = make(map[uint64]*callFrame)

	s := New()
	outer, inner := &runContext{s: s}, &runContext{s: s}

	fOuter := cs.push(s, outer)
	fInner := cs.push(s, inner)

	if got := cs.contains(s); got != inner {
		t.Error("contains should return the most recent registration")
	}

	cs.pop(fInner)
	if got := cs.contains(s); got != outer {
		t.Error("popping the inner frame should expose the outer one")
	}
	cs.pop(fOuter)
}

func TestCallStackPerGoroutine(t *testing.T) {
	var cs callStack
	cs.tops = make(map[uint64]*callFrame)

	s := New()
	c := &runContext{s: s}
	f := cs.push(s, c)
	defer cs.pop(f)

	result := make(chan *runContext)
	go func() {
		result <- cs.contains(s)
	}()
	if got := <-result; got != nil {
		t.Error("registration must not be visible from another goroutine")
	}
}
