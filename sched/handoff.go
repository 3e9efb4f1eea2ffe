package sched

import (
	"sync/atomic"

	"runq/debug"
	"runq/ring"
	"runq/runqueue"
	"runq/utils"
)

// pack encodes a handoff as one ring word: thread in bits 16..31, level in
// bits 0..15.
//
//go:nosplit
//go:inline
func pack(t runqueue.ThreadID, l runqueue.Level) uint64 {
	return uint64(t)<<16 | uint64(l)
}

//go:nosplit
//go:inline
func unpack(w uint64) (runqueue.ThreadID, runqueue.Level) {
	return runqueue.ThreadID(w >> 16), runqueue.Level(w)
}

// Migrate moves t from core from to core to, keeping its level. The thread
// is unlinked on the source immediately and linked on the destination when
// the handoff is drained. If the ring is full the thread is re-queued on the
// source (at the tail of its level) and Migrate returns false.
//
// Pushes happen under the source core's lock, which keeps each ring
// single-producer.
func (s *Scheduler) Migrate(t runqueue.ThreadID, from, to int) bool {
	src := s.core(from)
	s.core(to)
	s.checkThread("migrate", t)
	if from == to {
		return true
	}

	src.lock.Lock()
	level, ok := src.rq.LevelOf(t)
	if !ok {
		src.lock.Unlock()
		panic(&runqueue.ContractError{Op: "migrate", Thread: t, Level: runqueue.NoLevel, Err: runqueue.ErrNotQueued})
	}
	src.rq.Del(t, level)
	if src.current == t {
		src.current = runqueue.NoThread
	}

	if !s.rings[from][to].Push(pack(t, level)) {
		src.rq.Add(t, level)
		src.lock.Unlock()
		debug.DropMessage("HANDOFF", "ring "+utils.Itoa(from)+"->"+utils.Itoa(to)+" full, thread "+
			utils.Itoa(int(t))+" stays on core "+utils.Itoa(from))
		return false
	}
	atomic.StoreInt32(&s.owner[t], int32(to))
	src.lock.Unlock()

	s.flags.SignalActivity()
	return true
}

// deliver links one drained handoff into core k.
func (s *Scheduler) deliver(k *Core, w uint64) {
	t, level := unpack(w)
	k.lock.Lock()
	k.rq.Add(t, level)
	k.lock.Unlock()
}

// Drain links every pending inbound handoff into core c and returns how many
// were applied. It is a no-op while pinned consumers are running, since they
// own the consumer side of every ring, and while another Drain or Start
// holds the core's consumer side.
func (s *Scheduler) Drain(c int) int {
	k := s.core(c)
	if !k.drain.TryLock() {
		return 0
	}
	if s.running.Load() {
		k.drain.Unlock()
		return 0
	}
	n := 0
	for _, r := range k.inbound {
		for {
			w, ok := r.Pop()
			if !ok {
				break
			}
			s.deliver(k, w)
			n++
		}
	}
	k.drain.Unlock()
	return n
}

// Start launches one pinned consumer per core that applies inbound handoffs
// as they arrive. Returns false if consumers are already running.
func (s *Scheduler) Start() bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}
	s.flags.Reset()
	stop, hot := s.flags.Words()
	s.done = make([]chan struct{}, len(s.cores))
	for i, k := range s.cores {
		k := k
		s.done[i] = make(chan struct{})
		// waits out a Drain already past its running check
		k.drain.Lock()
		ring.PinnedConsumer(k.id, k.inbound, stop, hot, func(w uint64) { s.deliver(k, w) }, s.done[i])
		k.drain.Unlock()
	}
	debug.DropMessage("SCHED", utils.Itoa(len(s.cores))+" handoff consumers started")
	return true
}

// Stop shuts the consumers down, waits for every one of them, then drains
// whatever was still in flight.
func (s *Scheduler) Stop() {
	if !s.running.Load() || s.flags.Stopping() {
		return
	}
	s.flags.Shutdown()
	for _, d := range s.done {
		<-d
	}
	s.running.Store(false)
	left := 0
	for c := range s.cores {
		left += s.Drain(c)
	}
	s.flags.Reset()
	if left > 0 {
		debug.DropMessage("SCHED", utils.Itoa(left)+" in-flight handoffs applied at stop")
	}
}
