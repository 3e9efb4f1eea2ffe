//go:build !linux || tinygo

// setaffinity_stub.go: no CPU pinning where sched_setaffinity is missing.

package ring

func setAffinity(cpu int) {}
