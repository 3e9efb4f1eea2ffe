// ============================================================================
// PRIORITY BITMAP: O(1) HIGHEST-POPULATED-LEVEL LOOKUP
// ============================================================================
//
// One bit per priority level, set exactly while that level's list holds at
// least one thread. Lookup never scans levels: a 64-bit summary word marks
// non-zero lanes and each lane word marks non-empty levels, so HighestSet is
// two count-leading-zeros (or trailing-zeros) instructions regardless of the
// configured level count.
//
// Layout:
//   - level l lives in lanes[l>>6], bit l&63
//   - summary bit w is set ⇔ lanes[w] != 0
//
// The scan direction is fixed at construction: HighFirst treats the highest
// numeric level as most urgent, LowFirst the lowest.

package runqueue

import (
	"math/bits"

	"runq/constants"
)

// PriorityBitmap tracks which levels are non-empty. It is a plain value:
// copying it snapshots the current occupancy without allocating.
type PriorityBitmap struct {
	summary uint64
	lanes   [constants.LaneWidth]uint64
	levels  Level
	order   Order
}

// NewBitmap returns a cleared bitmap for levels priority levels.
// It panics with ErrBadConfig if levels is outside [1, MaxLevels].
func NewBitmap(levels int, order Order) PriorityBitmap {
	if levels <= 0 || levels > constants.MaxLevels {
		panic(&ContractError{Op: "bitmap", Thread: NoThread, Level: NoLevel, Err: ErrBadConfig})
	}
	return PriorityBitmap{levels: Level(levels), order: order}
}

// Set marks level as non-empty.
//
//go:nosplit
//go:inline
func (b *PriorityBitmap) Set(level Level) {
	if level >= b.levels {
		violation("set", NoThread, level, ErrOutOfRange)
	}
	w := level >> constants.LaneBits
	b.lanes[w] |= 1 << (level & (constants.LaneWidth - 1))
	b.summary |= 1 << w
}

// Clear marks level as empty.
//
//go:nosplit
//go:inline
func (b *PriorityBitmap) Clear(level Level) {
	if level >= b.levels {
		violation("clear", NoThread, level, ErrOutOfRange)
	}
	w := level >> constants.LaneBits
	b.lanes[w] &^= 1 << (level & (constants.LaneWidth - 1))
	if b.lanes[w] == 0 {
		b.summary &^= 1 << w
	}
}

// Has reports whether level is marked non-empty.
//
//go:nosplit
//go:inline
func (b *PriorityBitmap) Has(level Level) bool {
	if level >= b.levels {
		violation("has", NoThread, level, ErrOutOfRange)
	}
	return b.lanes[level>>constants.LaneBits]&(1<<(level&(constants.LaneWidth-1))) != 0
}

// HighestSet returns the most urgent non-empty level in the configured scan
// direction, or false if no level is set.
//
//go:nosplit
//go:inline
func (b *PriorityBitmap) HighestSet() (Level, bool) {
	if b.summary == 0 {
		return NoLevel, false
	}
	if b.order == LowFirst {
		w := bits.TrailingZeros64(b.summary)
		return Level(w<<constants.LaneBits | bits.TrailingZeros64(b.lanes[w])), true
	}
	w := 63 - bits.LeadingZeros64(b.summary)
	return Level(w<<constants.LaneBits | (63 - bits.LeadingZeros64(b.lanes[w]))), true
}

// Empty reports whether no level is set.
//
//go:nosplit
//go:inline
func (b *PriorityBitmap) Empty() bool {
	return b.summary == 0
}

// Count returns the number of non-empty levels.
func (b *PriorityBitmap) Count() int {
	n := 0
	s := b.summary
	for s != 0 {
		w := bits.TrailingZeros64(s)
		n += bits.OnesCount64(b.lanes[w])
		s &= s - 1
	}
	return n
}

// Levels returns the configured level count.
func (b *PriorityBitmap) Levels() int { return int(b.levels) }

// Order returns the scan direction.
func (b *PriorityBitmap) Order() Order { return b.order }

// Lanes appends the lane words covering the configured levels to dst.
// Used by trace digests; bit i of word w is level w*64+i.
func (b *PriorityBitmap) Lanes(dst []uint64) []uint64 {
	n := (int(b.levels) + constants.LaneWidth - 1) >> constants.LaneBits
	return append(dst, b.lanes[:n]...)
}

// reset clears every bit.
func (b *PriorityBitmap) reset() {
	b.summary = 0
	b.lanes = [constants.LaneWidth]uint64{}
}
