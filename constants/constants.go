// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go - Scheduler tunables & ready-queue limits
//
// Purpose:
//   - Defines build-time sizing for the ready-queue (levels, thread slots).
//   - Sizes the cross-core handoff rings and pinned consumer spin policy.
//   - Default locations for trace tooling.
//
// Notes:
//   - Queue sizing is fixed for the lifetime of a RunQueue; nothing here is
//     read on the hot path after construction.
//
// ⚠️ No runtime logic here: all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

import "time"

// ───────────────────────────── Ready-queue sizing ─────────────────────────────

const (
	// SchedPrioLevels is the default number of distinct priority levels.
	SchedPrioLevels = 12

	// ThreadsNumof is the default number of schedulable thread slots.
	// Every slot owns exactly one intrusive link node.
	ThreadsNumof = 16

	// LaneBits is log2 of the bitmap word width.
	LaneBits = 6

	// LaneWidth is the number of levels tracked by one bitmap word.
	LaneWidth = 1 << LaneBits

	// MaxLevels is the widest two-level bitmap: 64 summary bits × 64 lanes.
	MaxLevels = LaneWidth * LaneWidth

	// MaxThreads bounds thread identifiers; the all-ones value is the
	// nil link sentinel.
	MaxThreads = 1<<16 - 1
)

// ─────────────────────────── Cross-core handoff ────────────────────────────

const (
	// HandoffRingSize is the slot count of every per-core-pair SPSC ring.
	// Must be a power of two.
	HandoffRingSize = 64

	// SpinBudget is the number of empty polls before a pinned consumer
	// falls back to the cold path.
	SpinBudget = 256

	// HotTimeout keeps a consumer in hot-spin after the last delivered item.
	HotTimeout = 50 * time.Millisecond

	// CooldownNs clears the global hot flag after this much idle time.
	CooldownNs = int64(1 * time.Second)
)

// ───────────────────────────── Trace tooling ───────────────────────────────

const (
	// DefaultTraceDB is where the trace CLI records replayed runs.
	DefaultTraceDB = "runqueue_trace.db"
)
