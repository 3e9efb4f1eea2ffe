//go:build linux && !tinygo

// setaffinity_linux.go
//
// Pins the calling OS thread to one logical CPU via sched_setaffinity(2).
// Errors are swallowed: under cgroups or containers the call may be refused
// and the fallback is simply "no pin".

package ring

import "golang.org/x/sys/unix"

// setAffinity pins the current thread to cpu (0-based). Indices outside the
// kernel mask are ignored.
func setAffinity(cpu int) {
	if cpu < 0 {
		return
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if set.Count() == 0 {
		return
	}
	_ = unix.SchedSetaffinity(0, &set)
}
