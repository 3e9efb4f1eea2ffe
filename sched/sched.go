// ════════════════════════════════════════════════════════════════════════════════════════════════
// Per-Core Scheduler Front End
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: ready-queue ownership, serialization and cross-core handoff
//
// Description:
//   A RunQueue performs no synchronization of its own. Scheduler is the caller
//   that supplies it: one RunQueue and one SpinLock per core, every queue call
//   made with that core's lock held.
//
// Ownership:
//   - a ThreadID belongs to at most one core at a time (owner table)
//   - moving a thread between cores is an explicit handoff: unlink on the
//     source under its lock, publish (thread, level) on the SPSC ring for the
//     (source, destination) pair, link on the destination when drained
//   - each ring has one producer (the source core) and one consumer (either
//     the destination's pinned consumer or Drain, never both)
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package sched

import (
	"sync/atomic"

	"runq/constants"
	"runq/control"
	"runq/ring"
	"runq/runqueue"
	"runq/utils"
)

const unowned = -1

// Core is one CPU's ready-queue plus its lock.
type Core struct {
	id      int
	lock    SpinLock
	drain   SpinLock
	rq      *runqueue.RunQueue
	current runqueue.ThreadID
	inbound []*ring.Ring
}

// Scheduler owns one ready-queue per core.
type Scheduler struct {
	cfg     runqueue.Config
	cores   []*Core
	rings   [][]*ring.Ring // rings[from][to]; nil when from == to
	owner   []int32        // per ThreadID: owning core or unowned
	flags   *control.Flags // this scheduler's consumer group
	done    []chan struct{}
	running atomic.Bool
}

// New builds a scheduler with cores ready-queues shaped by cfg.
// It panics with a *runqueue.ContractError wrapping ErrBadConfig on an
// invalid cfg, and on a non-positive core count.
func New(cfg runqueue.Config, cores int) *Scheduler {
	if err := cfg.Validate(); err != nil {
		panic(&runqueue.ContractError{Op: "new", Thread: runqueue.NoThread, Level: runqueue.NoLevel, Err: err})
	}
	if cores <= 0 {
		panic("sched: need at least one core")
	}
	s := &Scheduler{
		cfg:   cfg,
		cores: make([]*Core, cores),
		rings: make([][]*ring.Ring, cores),
		owner: make([]int32, cfg.Threads),
		flags: control.NewFlags(),
	}
	for i := range s.owner {
		s.owner[i] = unowned
	}
	for i := range s.cores {
		s.cores[i] = &Core{id: i, rq: runqueue.New(cfg), current: runqueue.NoThread}
		s.rings[i] = make([]*ring.Ring, cores)
	}
	for from := 0; from < cores; from++ {
		for to := 0; to < cores; to++ {
			if from == to {
				continue
			}
			r := ring.New(constants.HandoffRingSize)
			s.rings[from][to] = r
			s.cores[to].inbound = append(s.cores[to].inbound, r)
		}
	}
	return s
}

// Cores returns the number of cores.
func (s *Scheduler) Cores() int { return len(s.cores) }

// Config returns the per-core queue shape.
func (s *Scheduler) Config() runqueue.Config { return s.cfg }

func (s *Scheduler) core(c int) *Core {
	if c < 0 || c >= len(s.cores) {
		panic("sched: core " + utils.Itoa(c) + " out of range")
	}
	return s.cores[c]
}

func (s *Scheduler) checkThread(op string, t runqueue.ThreadID) {
	if int(t) >= len(s.owner) {
		panic(&runqueue.ContractError{Op: op, Thread: t, Level: runqueue.NoLevel, Err: runqueue.ErrOutOfRange})
	}
}

func (s *Scheduler) checkLevel(op string, t runqueue.ThreadID, level runqueue.Level) {
	if int(level) >= s.cfg.Levels {
		panic(&runqueue.ContractError{Op: op, Thread: t, Level: level, Err: runqueue.ErrOutOfRange})
	}
}

// ============================================================================
// READINESS
// ============================================================================

// Ready queues t on core c at level. t must not be owned by any core.
func (s *Scheduler) Ready(c int, t runqueue.ThreadID, level runqueue.Level) {
	k := s.core(c)
	s.checkThread("ready", t)
	s.checkLevel("ready", t, level)
	if !atomic.CompareAndSwapInt32(&s.owner[t], unowned, int32(c)) {
		panic(&runqueue.ContractError{Op: "ready", Thread: t, Level: level, Err: runqueue.ErrAlreadyQueued})
	}
	k.lock.Lock()
	k.rq.Add(t, level)
	k.lock.Unlock()
}

// Remove unlinks t from core c and releases its ownership. The level is
// looked up from the queue, so callers never pass a stale one.
func (s *Scheduler) Remove(c int, t runqueue.ThreadID) runqueue.Level {
	k := s.core(c)
	s.checkThread("remove", t)
	k.lock.Lock()
	level, ok := k.rq.LevelOf(t)
	if !ok {
		k.lock.Unlock()
		panic(&runqueue.ContractError{Op: "remove", Thread: t, Level: runqueue.NoLevel, Err: runqueue.ErrNotQueued})
	}
	k.rq.Del(t, level)
	if k.current == t {
		k.current = runqueue.NoThread
	}
	k.lock.Unlock()
	atomic.StoreInt32(&s.owner[t], unowned)
	return level
}

// Owner returns the core that currently owns t, including a thread that is
// in flight on a handoff ring.
func (s *Scheduler) Owner(t runqueue.ThreadID) (int, bool) {
	s.checkThread("owner", t)
	c := atomic.LoadInt32(&s.owner[t])
	return int(c), c != unowned
}

// ============================================================================
// SELECTION
// ============================================================================

// Next selects the head of core c's most urgent level as the running thread.
func (s *Scheduler) Next(c int) (runqueue.ThreadID, bool) {
	k := s.core(c)
	k.lock.Lock()
	t, ok := k.rq.PeekHead()
	k.current = t
	k.lock.Unlock()
	return t, ok
}

// Tick expires the running time slice on core c: the most urgent level is
// rotated and its new head becomes the running thread. Ticks also age out
// the consumers' hot flag.
func (s *Scheduler) Tick(c int) (runqueue.ThreadID, bool) {
	k := s.core(c)
	s.flags.PollCooldown()
	k.lock.Lock()
	if level, ok := k.rq.HighestLevel(); ok {
		k.rq.Advance(level)
	}
	t, ok := k.rq.PeekHead()
	k.current = t
	k.lock.Unlock()
	return t, ok
}

// Current returns the thread last selected on core c.
func (s *Scheduler) Current(c int) (runqueue.ThreadID, bool) {
	k := s.core(c)
	k.lock.Lock()
	t := k.current
	k.lock.Unlock()
	return t, t != runqueue.NoThread
}

// Len returns the number of threads queued on core c.
func (s *Scheduler) Len(c int) int {
	k := s.core(c)
	k.lock.Lock()
	n := k.rq.Len()
	k.lock.Unlock()
	return n
}

// HandoffActive reports whether cross-core handoffs were published within
// the cooldown window, i.e. whether the consumers are hot-spinning.
func (s *Scheduler) HandoffActive() bool { return s.flags.Hot() }

// Inspect runs fn with core c's lock held.
func (s *Scheduler) Inspect(c int, fn func(*runqueue.RunQueue)) {
	k := s.core(c)
	k.lock.Lock()
	defer k.lock.Unlock()
	fn(k.rq)
}
