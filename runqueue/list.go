// ============================================================================
// LEVEL LIST: INTRUSIVE CIRCULAR RUN ORDER FOR ONE PRIORITY LEVEL
// ============================================================================
//
// Threads are never allocated into a list. Every ThreadID owns one node slot
// in a table shared by all levels; a LevelList only records which of those
// slots is its head. The list is circular and doubly linked, so:
//
//   - tail is head.prev (no tail field to keep in sync)
//   - removing any member uses its own next/prev (no traversal)
//   - rotation is a single head = head.next
//
// A node belongs to at most one list because it has exactly one next/prev
// pair. The owning RunQueue stamps the node's level and keeps the bitmap in
// step with the transitions reported here.

package runqueue

// node is the per-thread link slot.
type node struct {
	next  ThreadID // NoThread while unlinked
	prev  ThreadID // NoThread while unlinked
	level Level    // NoLevel while unlinked
}

// LevelList is the ready list for a single priority level.
type LevelList struct {
	head ThreadID
	size uint16
}

// Head returns the next thread to run at this level.
//
//go:nosplit
//go:inline
func (l *LevelList) Head() (ThreadID, bool) {
	return l.head, l.head != NoThread
}

// Len returns the number of linked threads.
//
//go:nosplit
//go:inline
func (l *LevelList) Len() int { return int(l.size) }

// Empty reports whether the list has no members.
//
//go:nosplit
//go:inline
func (l *LevelList) Empty() bool { return l.head == NoThread }

// pushBack links t as the new tail and reports the empty→non-empty
// transition. t must be unlinked.
//
//go:nosplit
//go:inline
func (l *LevelList) pushBack(nodes []node, t ThreadID) (wasEmpty bool) {
	n := &nodes[t]
	if l.head == NoThread {
		n.next, n.prev = t, t
		l.head = t
		l.size = 1
		return true
	}

	h := &nodes[l.head]
	tail := h.prev
	n.next, n.prev = l.head, tail
	nodes[tail].next = t
	h.prev = t
	l.size++
	return false
}

// remove unlinks member t and reports the non-empty→empty transition.
//
//go:nosplit
//go:inline
func (l *LevelList) remove(nodes []node, t ThreadID) (nowEmpty bool) {
	n := &nodes[t]
	if n.next == t {
		l.head = NoThread
	} else {
		nodes[n.prev].next = n.next
		nodes[n.next].prev = n.prev
		if l.head == t {
			l.head = n.next
		}
	}
	n.next, n.prev = NoThread, NoThread
	l.size--
	return l.head == NoThread
}

// popHead unlinks the head. ok is false on an empty list.
//
//go:nosplit
//go:inline
func (l *LevelList) popHead(nodes []node) (t ThreadID, nowEmpty, ok bool) {
	t = l.head
	if t == NoThread {
		return NoThread, false, false
	}
	return t, l.remove(nodes, t), true
}

// rotate moves the head to the tail.
//
//go:nosplit
//go:inline
func (l *LevelList) rotate(nodes []node) {
	if l.head != NoThread {
		l.head = nodes[l.head].next
	}
}
