// ============================================================================
// RUNQUEUE: ISR-SAFE PRIORITY READY-QUEUE
// ============================================================================
//
// RunQueue holds the ready threads of one scheduler (or one core) ordered by
// priority level, round-robin within a level.
//
// Architecture overview:
//   - PriorityBitmap: bit per level, set ⇔ the level's list is non-empty
//   - LevelList per level: circular intrusive list over a shared node table
//   - node table indexed by ThreadID: one link slot per thread
//
// Performance characteristics:
//   - Add, Del, PeekHead, Advance, PopHead are O(1)
//   - Zero allocation after New
//   - No loops bounded by queue size on any hot path
//
// Safety model:
//   - Not internally synchronized. Callers serialize every call, either by
//     masking interrupts or by holding a per-queue lock (see package sched).
//   - Precondition violations panic with *ContractError; they are never
//     returned as values.
//   - Empty queries return an explicit (x, false).

package runqueue

import "fmt"

// RunQueue is a fixed-capacity priority ready-queue.
type RunQueue struct {
	bitmap PriorityBitmap
	lists  []LevelList
	nodes  []node
	queued int
}

// New returns an empty RunQueue shaped by cfg. It panics with a
// *ContractError wrapping ErrBadConfig if cfg does not validate; call
// cfg.Validate first to get the error instead.
func New(cfg Config) *RunQueue {
	if err := cfg.Validate(); err != nil {
		panic(&ContractError{Op: "new", Thread: NoThread, Level: NoLevel, Err: err})
	}
	q := &RunQueue{
		bitmap: NewBitmap(cfg.Levels, cfg.Order),
		lists:  make([]LevelList, cfg.Levels),
		nodes:  make([]node, cfg.Threads),
	}
	q.Reset()
	return q
}

// Reset unlinks every thread and clears the bitmap.
func (q *RunQueue) Reset() {
	q.bitmap.reset()
	for i := range q.lists {
		q.lists[i] = LevelList{head: NoThread}
	}
	for i := range q.nodes {
		q.nodes[i] = node{next: NoThread, prev: NoThread, level: NoLevel}
	}
	q.queued = 0
}

// ============================================================================
// RANGE CHECKS
// ============================================================================

//go:nosplit
//go:inline
func (q *RunQueue) checkThread(op string, t ThreadID) {
	if int(t) >= len(q.nodes) {
		violation(op, t, NoLevel, ErrOutOfRange)
	}
}

//go:nosplit
//go:inline
func (q *RunQueue) checkLevel(op string, t ThreadID, level Level) {
	if int(level) >= len(q.lists) {
		violation(op, t, level, ErrOutOfRange)
	}
}

// ============================================================================
// CORE OPERATIONS
// ============================================================================

// Add makes t ready at level, as the new tail of that level's run order.
// t must not be queued anywhere.
//
//go:nosplit
//go:inline
func (q *RunQueue) Add(t ThreadID, level Level) {
	q.checkThread("add", t)
	q.checkLevel("add", t, level)
	n := &q.nodes[t]
	if n.level != NoLevel {
		violation("add", t, level, ErrAlreadyQueued)
	}

	n.level = level
	if q.lists[level].pushBack(q.nodes, t) {
		q.bitmap.Set(level)
	}
	q.queued++
}

// Del removes t from level. t must be queued at exactly that level;
// any other state is a contract violation.
//
//go:nosplit
//go:inline
func (q *RunQueue) Del(t ThreadID, level Level) {
	q.checkThread("del", t)
	q.checkLevel("del", t, level)
	switch q.nodes[t].level {
	case level:
	case NoLevel:
		violation("del", t, level, ErrNotQueued)
	default:
		violation("del", t, level, ErrLevelMismatch)
	}
	q.unlink(t, level)
}

//go:nosplit
//go:inline
func (q *RunQueue) unlink(t ThreadID, level Level) {
	if q.lists[level].remove(q.nodes, t) {
		q.bitmap.Clear(level)
	}
	q.nodes[t].level = NoLevel
	q.queued--
}

// PeekHead returns the head of the most urgent non-empty level.
//
//go:nosplit
//go:inline
func (q *RunQueue) PeekHead() (ThreadID, bool) {
	level, ok := q.bitmap.HighestSet()
	if !ok {
		return NoThread, false
	}
	return q.lists[level].head, true
}

// Advance rotates level round-robin: the head becomes the tail.
// Empty and single-member levels are unchanged.
//
//go:nosplit
//go:inline
func (q *RunQueue) Advance(level Level) {
	q.checkLevel("advance", NoThread, level)
	q.lists[level].rotate(q.nodes)
}

// PopHead removes and returns the head of level.
//
//go:nosplit
//go:inline
func (q *RunQueue) PopHead(level Level) (ThreadID, bool) {
	q.checkLevel("pop", NoThread, level)
	t, empty, ok := q.lists[level].popHead(q.nodes)
	if !ok {
		return NoThread, false
	}
	if empty {
		q.bitmap.Clear(level)
	}
	q.nodes[t].level = NoLevel
	q.queued--
	return t, true
}

// PopNext removes and returns the head of the most urgent non-empty level.
//
//go:nosplit
//go:inline
func (q *RunQueue) PopNext() (ThreadID, Level, bool) {
	level, ok := q.bitmap.HighestSet()
	if !ok {
		return NoThread, NoLevel, false
	}
	t, _ := q.PopHead(level)
	return t, level, true
}

// ============================================================================
// QUERIES
// ============================================================================

// Head returns the head of a single level.
func (q *RunQueue) Head(level Level) (ThreadID, bool) {
	q.checkLevel("head", NoThread, level)
	return q.lists[level].Head()
}

// HighestLevel returns the most urgent non-empty level.
func (q *RunQueue) HighestLevel() (Level, bool) {
	return q.bitmap.HighestSet()
}

// List exposes the read-only view of one level.
func (q *RunQueue) List(level Level) *LevelList {
	q.checkLevel("list", NoThread, level)
	return &q.lists[level]
}

// Contains reports whether t is queued at any level.
func (q *RunQueue) Contains(t ThreadID) bool {
	q.checkThread("contains", t)
	return q.nodes[t].level != NoLevel
}

// LevelOf returns the level t is queued at.
func (q *RunQueue) LevelOf(t ThreadID) (Level, bool) {
	q.checkThread("levelof", t)
	l := q.nodes[t].level
	return l, l != NoLevel
}

// Len returns the number of queued threads.
func (q *RunQueue) Len() int { return q.queued }

// Empty reports whether no thread is queued.
func (q *RunQueue) Empty() bool { return q.bitmap.Empty() }

// Occupied returns the number of non-empty levels.
func (q *RunQueue) Occupied() int { return q.bitmap.Count() }

// Levels returns the configured level count.
func (q *RunQueue) Levels() int { return len(q.lists) }

// Threads returns the configured thread slot count.
func (q *RunQueue) Threads() int { return len(q.nodes) }

// Order returns the priority scan direction.
func (q *RunQueue) Order() Order { return q.bitmap.order }

// Bitmap returns a copy of the occupancy bitmap.
func (q *RunQueue) Bitmap() PriorityBitmap { return q.bitmap }

// AppendLevel appends the members of level to dst in run order.
func (q *RunQueue) AppendLevel(dst []ThreadID, level Level) []ThreadID {
	l := q.List(level)
	t := l.head
	for i := 0; i < int(l.size); i++ {
		dst = append(dst, t)
		t = q.nodes[t].next
	}
	return dst
}

// NextN fills dst with the first len(dst) threads in scheduling order:
// level urgency first, run order within a level. It returns how many
// entries were written. Used to pick one thread per core.
func (q *RunQueue) NextN(dst []ThreadID) int {
	if len(dst) == 0 {
		return 0
	}
	b := q.bitmap
	n := 0
	for {
		level, ok := b.HighestSet()
		if !ok {
			return n
		}
		l := &q.lists[level]
		t := l.head
		for i := 0; i < int(l.size); i++ {
			dst[n] = t
			if n++; n == len(dst) {
				return n
			}
			t = q.nodes[t].next
		}
		b.Clear(level)
	}
}

// ============================================================================
// DIAGNOSTICS
// ============================================================================

// Verify walks every level and node and reports the first broken invariant.
// O(levels + threads); for tests and tooling, never the hot path.
func (q *RunQueue) Verify() error {
	seen := make([]bool, len(q.nodes))
	total := 0

	for w, lane := range q.bitmap.lanes {
		marked := q.bitmap.summary&(1<<uint(w)) != 0
		if marked != (lane != 0) {
			return fmt.Errorf("summary bit %d disagrees with lane %#x", w, lane)
		}
	}
	if q.bitmap.Count() != q.occupiedLists() {
		return fmt.Errorf("bitmap has %d levels set, %d lists non-empty",
			q.bitmap.Count(), q.occupiedLists())
	}

	for i := range q.lists {
		level := Level(i)
		l := &q.lists[i]
		if q.bitmap.Has(level) != !l.Empty() {
			return fmt.Errorf("level %d: bitmap=%v but list size=%d",
				level, q.bitmap.Has(level), l.size)
		}
		if l.Empty() {
			if l.size != 0 {
				return fmt.Errorf("level %d: empty list with size %d", level, l.size)
			}
			continue
		}

		t := l.head
		for k := 0; k < int(l.size); k++ {
			if int(t) >= len(q.nodes) {
				return fmt.Errorf("level %d: link to invalid thread %d", level, t)
			}
			if seen[t] {
				return fmt.Errorf("thread %d linked twice", t)
			}
			seen[t] = true
			n := &q.nodes[t]
			if n.level != level {
				return fmt.Errorf("thread %d in level %d list but stamped %d", t, level, n.level)
			}
			if int(n.next) >= len(q.nodes) || q.nodes[n.next].prev != t {
				return fmt.Errorf("thread %d: next.prev != self", t)
			}
			t = n.next
		}
		if t != l.head {
			return fmt.Errorf("level %d: list does not close after %d members", level, l.size)
		}
		total += int(l.size)
	}

	for i := range q.nodes {
		n := &q.nodes[i]
		if !seen[i] && (n.level != NoLevel || n.next != NoThread || n.prev != NoThread) {
			return fmt.Errorf("thread %d unlinked but carries links", i)
		}
	}
	if total != q.queued {
		return fmt.Errorf("queued=%d but lists hold %d", q.queued, total)
	}
	return nil
}

func (q *RunQueue) occupiedLists() int {
	n := 0
	for i := range q.lists {
		if !q.lists[i].Empty() {
			n++
		}
	}
	return n
}
