// pinned_consumer.go
//
// Low-latency fan-in consumer for one destination core.
//
//   • Dedicated OS thread pinned to `core`.
//   • Drains every inbound ring on each pass and hands each word to fn.
//   • Stays in **hot-spin** (tight loop, no cpuRelax) while
//       – an item arrived within HotTimeout, OR
//       – producers keep the hot flag == 1.
//   • Otherwise drops to the **cold-spin** path: cpuRelax every iteration
//     and a scheduler yield after SpinBudget misses.
//   • Exits only when *stop == 1 and closes `done` exactly once. Items still
//     in the rings at exit are left for the owner to drain.
//
// hot flag contract:
//     Producer             Consumer
//     --------             ------------------------------
//     Store 1  ─────────▶  read (wake / stay hot-spin)
//     ...push items…
//     (optionally) Store 0  ◀─ consumer never writes

package ring

import (
	"runtime"
	"sync/atomic"
	"time"

	"runq/constants"
)

// PinnedConsumer drains rs until *stop is set.
func PinnedConsumer(
	core int,
	rs []*Ring,
	stop, hot *uint32,
	fn func(uint64),
	done chan<- struct{},
) {
	go func() {
		runtime.LockOSThread()
		setAffinity(core) // stub on non-Linux
		defer func() {
			runtime.UnlockOSThread()
			close(done)
		}()

		last := time.Now()
		miss := 0

		for {
			got := false
			for _, r := range rs {
				for {
					v, ok := r.Pop()
					if !ok {
						break
					}
					fn(v)
					got = true
				}
			}
			if got {
				last, miss = time.Now(), 0
				continue
			}

			if atomic.LoadUint32(stop) != 0 {
				return
			}

			if atomic.LoadUint32(hot) != 0 || time.Since(last) <= constants.HotTimeout {
				continue
			}

			if miss++; miss >= constants.SpinBudget {
				miss = 0
				runtime.Gosched()
			}
			cpuRelax()
		}
	}()
}
