package history

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestAppendAndGet(t *testing.T) {
	s := New(10, 100)

	s.Append("alice", Exchange{Question: "q1", Answer: "a1"})
	s.Append("alice", Exchange{Question: "q2", Answer: "a2"})
	s.Append("bob", Exchange{Question: "other", Answer: "session"})

	got := s.Get("alice")
	if len(got) != 2 {
		t.Fatalf("got %d exchanges, want 2", len(got))
	}
	if got[0].Question != "q1" || got[1].Question != "q2" {
		t.Errorf("wrong order: %+v", got)
	}
	if got[0].At.IsZero() {
		t.Error("At not stamped on append")
	}
	if len(s.Get("bob")) != 1 {
		t.Error("sessions not isolated")
	}
}

func TestWindowTrimsOldest(t *testing.T) {
	s := New(10, 100)
	for i := 0; i < 15; i++ {
		s.Append("alice", Exchange{Question: fmt.Sprintf("q%d", i)})
	}

	got := s.Get("alice")
	if len(got) != 10 {
		t.Fatalf("got %d exchanges, want 10", len(got))
	}
	if got[0].Question != "q5" || got[9].Question != "q14" {
		t.Errorf("window kept wrong exchanges: first=%s last=%s",
			got[0].Question, got[9].Question)
	}
}

func TestUnknownSessionIsEmpty(t *testing.T) {
	s := New(10, 100)
	if got := s.Get("nobody"); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := New(10, 100)
	s.Append("alice", Exchange{Question: "q1"})

	got := s.Get("alice")
	got[0].Question = "mutated"

	if s.Get("alice")[0].Question != "q1" {
		t.Error("Get exposed internal storage")
	}
}

func TestEvictsIdlestSessionAtCap(t *testing.T) {
	s := New(10, 3)
	base := time.Unix(1700000000, 0)
	clock := base
	s.now = func() time.Time { return clock }

	for i, id := range []string{"a", "b", "c"} {
		clock = base.Add(time.Duration(i) * time.Minute)
		s.Append(id, Exchange{Question: "q"})
	}

	// Touch "a" so "b" becomes the idlest.
	clock = base.Add(10 * time.Minute)
	s.Get("a")

	clock = base.Add(11 * time.Minute)
	s.Append("d", Exchange{Question: "q"})

	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}
	if len(s.Get("b")) != 0 {
		t.Error("idlest session survived eviction")
	}
	if len(s.Get("a")) == 0 || len(s.Get("d")) == 0 {
		t.Error("wrong session evicted")
	}
}

func TestConcurrentAppends(t *testing.T) {
	s := New(10, 100)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("session-%d", i%4)
			for j := 0; j < 25; j++ {
				s.Append(id, Exchange{Question: "q"})
				s.Get(id)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		if n := len(s.Get(fmt.Sprintf("session-%d", i))); n != 10 {
			t.Errorf("session-%d retained %d exchanges, want 10", i, n)
		}
	}
}
