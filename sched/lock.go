package sched

import (
	"sync/atomic"

	"runq/ring"
)

// SpinLock serializes access to one core's ready-queue. Critical sections
// are a handful of O(1) queue operations, so waiters spin with a CPU relax
// hint instead of parking.
type SpinLock struct {
	state uint32
}

// Lock acquires the lock, spinning until it is free.
//
//go:nosplit
func (l *SpinLock) Lock() {
	for !atomic.CompareAndSwapUint32(&l.state, 0, 1) {
		ring.Relax()
	}
}

// TryLock acquires the lock if it is free.
//
//go:nosplit
func (l *SpinLock) TryLock() bool {
	return atomic.CompareAndSwapUint32(&l.state, 0, 1)
}

// Unlock releases the lock.
//
//go:nosplit
func (l *SpinLock) Unlock() {
	atomic.StoreUint32(&l.state, 0)
}
