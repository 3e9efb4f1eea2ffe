package sched

import (
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"runq/runqueue"
)

func newSched(cores int) *Scheduler {
	return New(runqueue.Config{Levels: 8, Threads: 128, Order: runqueue.HighFirst}, cores)
}

func expectContract(t *testing.T, want error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		err, ok := r.(*runqueue.ContractError)
		if !ok || !errors.Is(err, want) {
			t.Fatalf("recovered %v; want *ContractError wrapping %v", r, want)
		}
	}()
	fn()
}

func TestNewRejectsZeroCores(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("New with 0 cores should panic")
		}
	}()
	newSched(0)
}

func TestReadyNextRemove(t *testing.T) {
	s := newSched(1)
	s.Ready(0, 1, 2)
	s.Ready(0, 2, 5)

	if got, ok := s.Next(0); !ok || got != 2 {
		t.Fatalf("Next = %d,%v; want 2", got, ok)
	}
	if cur, _ := s.Current(0); cur != 2 {
		t.Fatalf("Current = %d; want 2", cur)
	}
	if lvl := s.Remove(0, 2); lvl != 5 {
		t.Fatalf("Remove returned level %d; want 5", lvl)
	}
	if _, ok := s.Current(0); ok {
		t.Fatal("removed thread still current")
	}
	if got, _ := s.Next(0); got != 1 {
		t.Fatalf("Next = %d; want 1", got)
	}
	if _, owned := s.Owner(2); owned {
		t.Fatal("removed thread still owned")
	}
}

func TestTickRoundRobin(t *testing.T) {
	s := newSched(1)
	for _, id := range []runqueue.ThreadID{10, 11, 12} {
		s.Ready(0, id, 4)
	}
	s.Ready(0, 3, 1)

	want := []runqueue.ThreadID{11, 12, 10, 11}
	for i, w := range want {
		got, _ := s.Tick(0)
		if got != w {
			t.Fatalf("tick %d ran %d; want %d", i, got, w)
		}
	}
}

func TestTickEmptyCore(t *testing.T) {
	s := newSched(2)
	if _, ok := s.Tick(1); ok {
		t.Fatal("Tick on empty core selected a thread")
	}
}

func TestSingleOwnership(t *testing.T) {
	s := newSched(2)
	s.Ready(0, 7, 3)
	expectContract(t, runqueue.ErrAlreadyQueued, func() { s.Ready(1, 7, 3) })
	if c, ok := s.Owner(7); !ok || c != 0 {
		t.Fatalf("Owner = %d,%v; want 0", c, ok)
	}
	expectContract(t, runqueue.ErrOutOfRange, func() { s.Ready(0, 500, 1) })
}

func TestRemoveUnqueued(t *testing.T) {
	s := newSched(1)
	expectContract(t, runqueue.ErrNotQueued, func() { s.Remove(0, 4) })
}

func TestMigrateAndDrain(t *testing.T) {
	s := newSched(2)
	s.Ready(0, 5, 6)
	s.Ready(0, 6, 2)

	if !s.Migrate(5, 0, 1) {
		t.Fatal("Migrate failed with an empty ring")
	}
	if c, _ := s.Owner(5); c != 1 {
		t.Fatalf("Owner after migrate = %d; want 1", c)
	}
	if s.Len(0) != 1 || s.Len(1) != 0 {
		t.Fatalf("before drain: len0=%d len1=%d; want 1,0", s.Len(0), s.Len(1))
	}
	if n := s.Drain(1); n != 1 {
		t.Fatalf("Drain applied %d; want 1", n)
	}
	if got, _ := s.Next(1); got != 5 {
		t.Fatalf("core 1 Next = %d; want 5", got)
	}
	s.Inspect(1, func(q *runqueue.RunQueue) {
		if l, _ := q.LevelOf(5); l != 6 {
			t.Fatalf("migrated level = %d; want 6", l)
		}
		if err := q.Verify(); err != nil {
			t.Fatal(err)
		}
	})
	if !s.Migrate(6, 0, 0) || s.Len(0) != 1 {
		t.Fatal("self-migration must be a no-op")
	}
}

func TestMigrateRingFull(t *testing.T) {
	s := newSched(2)
	for id := 0; id < 70; id++ {
		s.Ready(0, runqueue.ThreadID(id), 1)
	}
	moved := 0
	for id := 0; id < 70; id++ {
		if s.Migrate(runqueue.ThreadID(id), 0, 1) {
			moved++
		}
	}
	if moved != 64 {
		t.Fatalf("moved %d; want ring capacity 64", moved)
	}
	if s.Len(0) != 6 {
		t.Fatalf("core 0 kept %d; want 6", s.Len(0))
	}
	if c, _ := s.Owner(69); c != 0 {
		t.Fatalf("rejected thread owner = %d; want 0", c)
	}
	if n := s.Drain(1); n != 64 || s.Len(1) != 64 {
		t.Fatalf("Drain = %d, len = %d; want 64", n, s.Len(1))
	}
}

func TestConcurrentReadyRemove(t *testing.T) {
	s := newSched(1)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				for k := 0; k < 16; k++ {
					id := runqueue.ThreadID(g*16 + k)
					s.Ready(0, id, runqueue.Level(k%8))
				}
				s.Next(0)
				s.Tick(0)
				for k := 0; k < 16; k++ {
					s.Remove(0, runqueue.ThreadID(g*16+k))
				}
			}
		}(g)
	}
	wg.Wait()
	s.Inspect(0, func(q *runqueue.RunQueue) {
		if !q.Empty() {
			t.Fatalf("queue holds %d threads after balanced ready/remove", q.Len())
		}
		if err := q.Verify(); err != nil {
			t.Fatal(err)
		}
	})
}

func TestPinnedConsumersApplyHandoffs(t *testing.T) {
	defer goleak.VerifyNone(t)
	runtime.GOMAXPROCS(max(3, runtime.GOMAXPROCS(0)))

	s := newSched(2)
	for id := 0; id < 20; id++ {
		s.Ready(0, runqueue.ThreadID(id), runqueue.Level(id%8))
	}
	if !s.Start() {
		t.Fatal("Start returned false")
	}
	if s.Start() {
		t.Fatal("second Start should report already running")
	}
	for id := 0; id < 20; id++ {
		if !s.Migrate(runqueue.ThreadID(id), 0, 1) {
			t.Fatalf("migrate %d failed", id)
		}
	}
	if s.Drain(1) != 0 {
		t.Fatal("Drain must not compete with running consumers")
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.Len(1) < 20 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d of 20 handoffs applied", s.Len(1))
		}
		runtime.Gosched()
	}
	s.Stop()

	if s.Len(0) != 0 {
		t.Fatalf("core 0 still holds %d", s.Len(0))
	}
	if got, _ := s.Next(1); got != 7 {
		t.Fatalf("core 1 Next = %d; want 7 (first thread at level 7)", got)
	}
}

func TestStopWithoutStart(t *testing.T) {
	s := newSched(2)
	s.Stop()
}

func TestPackRoundTrip(t *testing.T) {
	for _, c := range []struct {
		t runqueue.ThreadID
		l runqueue.Level
	}{{0, 0}, {65534, 4095}, {17, 3}} {
		gt, gl := unpack(pack(c.t, c.l))
		if gt != c.t || gl != c.l {
			t.Fatalf("unpack(pack(%d,%d)) = %d,%d", c.t, c.l, gt, gl)
		}
	}
}

func TestSpinLock(t *testing.T) {
	var l SpinLock
	if !l.TryLock() {
		t.Fatal("TryLock on free lock failed")
	}
	if l.TryLock() {
		t.Fatal("TryLock on held lock succeeded")
	}
	l.Unlock()

	var wg sync.WaitGroup
	counter := 0
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				l.Lock()
				counter++
				l.Unlock()
			}
		}()
	}
	wg.Wait()
	if counter != 8000 {
		t.Fatalf("counter = %d; want 8000", counter)
	}
}

func TestReadyRejectsBadLevel(t *testing.T) {
	s := newSched(1)
	expectContract(t, runqueue.ErrOutOfRange, func() { s.Ready(0, 1, 8) })
	if _, owned := s.Owner(1); owned {
		t.Fatal("rejected Ready left the thread owned")
	}
	// core lock must still be free
	s.Ready(0, 1, 7)
	if got, _ := s.Next(0); got != 1 {
		t.Fatalf("Next = %d; want 1", got)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	expectContract(t, runqueue.ErrBadConfig, func() {
		New(runqueue.Config{Levels: 8, Threads: -1}, 1)
	})
	expectContract(t, runqueue.ErrBadConfig, func() {
		New(runqueue.Config{Levels: 0, Threads: 16}, 2)
	})
}

// TestStopLeavesOtherSchedulerRunning: two schedulers in one process own
// separate consumer groups, so stopping one must not strand handoffs on the
// other.
func TestStopLeavesOtherSchedulerRunning(t *testing.T) {
	defer goleak.VerifyNone(t)
	runtime.GOMAXPROCS(max(3, runtime.GOMAXPROCS(0)))

	a, b := newSched(2), newSched(2)
	if !a.Start() || !b.Start() {
		t.Fatal("Start returned false")
	}
	a.Stop()

	b.Ready(0, 3, 2)
	if !b.Migrate(3, 0, 1) {
		t.Fatal("migrate failed")
	}
	deadline := time.Now().Add(2 * time.Second)
	for b.Len(1) != 1 {
		if time.Now().After(deadline) {
			c, _ := b.Owner(3)
			t.Fatalf("thread 3 in flight: owner=%d len0=%d len1=%d", c, b.Len(0), b.Len(1))
		}
		runtime.Gosched()
	}
	b.Stop()

	if lvl := b.Remove(1, 3); lvl != 2 {
		t.Fatalf("Remove level = %d; want 2", lvl)
	}
}

func TestHandoffActive(t *testing.T) {
	s := newSched(2)
	if s.HandoffActive() {
		t.Fatal("fresh scheduler reports handoff traffic")
	}
	s.Ready(0, 1, 1)
	s.Migrate(1, 0, 1)
	if !s.HandoffActive() {
		t.Fatal("Migrate did not mark handoff traffic")
	}
	if s.Drain(1) != 1 {
		t.Fatal("Drain did not apply the handoff")
	}
}

func TestDrainSkipsWhileHeld(t *testing.T) {
	s := newSched(2)
	s.Ready(0, 1, 1)
	s.Migrate(1, 0, 1)

	k := s.cores[1]
	k.drain.Lock()
	if n := s.Drain(1); n != 0 {
		t.Fatalf("Drain with consumer side held applied %d", n)
	}
	k.drain.Unlock()
	if n := s.Drain(1); n != 1 {
		t.Fatalf("Drain = %d; want 1", n)
	}
}
