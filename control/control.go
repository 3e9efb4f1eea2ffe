// control.go: hot/stop flags for one set of pinned handoff consumers
// ============================================================================
// SCHEDULER CONTROL ORCHESTRATION
// ============================================================================
//
// Flags carries the signalling shared by the per-core handoff consumers of
// one scheduler:
//
//   • hot:  a producer has handed work across cores recently; consumers stay
//           in tight spin instead of relaxing
//   • stop: consumers drain what is left and exit
//
// The words are plain uint32 accessed atomically so PinnedConsumer can poll
// them through the pointers returned by Words. Every scheduler owns its own
// Flags; shutting one down never touches another's consumers.

package control

import (
	"sync/atomic"
	"time"

	"runq/constants"
)

// Flags is one consumer group's control block.
type Flags struct {
	hot        uint32 // 1 = cross-core handoff traffic seen recently
	stop       uint32 // 1 = consumers must exit
	lastHot    int64  // unix nanos of last SignalActivity
	cooldownNs int64
}

// NewFlags returns cleared flags with the default cooldown window.
func NewFlags() *Flags {
	return &Flags{cooldownNs: constants.CooldownNs}
}

// SignalActivity marks handoff traffic. Called by the migrating core right
// after publishing into a ring.
//
//go:nosplit
//go:inline
func (f *Flags) SignalActivity() {
	atomic.StoreInt64(&f.lastHot, time.Now().UnixNano())
	atomic.StoreUint32(&f.hot, 1)
}

// PollCooldown clears hot once no activity was signalled for the cooldown
// window.
//
//go:nosplit
//go:inline
func (f *Flags) PollCooldown() {
	if atomic.LoadUint32(&f.hot) == 1 &&
		time.Now().UnixNano()-atomic.LoadInt64(&f.lastHot) > f.cooldownNs {
		atomic.StoreUint32(&f.hot, 0)
	}
}

// Shutdown asks every consumer of this group to exit.
//
//go:nosplit
//go:inline
func (f *Flags) Shutdown() {
	atomic.StoreUint32(&f.stop, 1)
}

// Reset clears both flags so a new set of consumers can be started.
func (f *Flags) Reset() {
	atomic.StoreUint32(&f.stop, 0)
	atomic.StoreUint32(&f.hot, 0)
	atomic.StoreInt64(&f.lastHot, 0)
}

// Stopping reports whether Shutdown was called since the last Reset.
func (f *Flags) Stopping() bool {
	return atomic.LoadUint32(&f.stop) != 0
}

// Hot reports whether the hot flag is raised.
func (f *Flags) Hot() bool {
	return atomic.LoadUint32(&f.hot) != 0
}

// Words returns the addresses of the stop and hot words for consumers.
//
//go:nosplit
//go:inline
func (f *Flags) Words() (stop, hot *uint32) {
	return &f.stop, &f.hot
}
