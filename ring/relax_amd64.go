// relax_amd64.go
//
// cpuRelax on x86-64 emits PAUSE so spin loops (pinned consumers, scheduler
// spin locks) back off politely on SMT siblings.

//go:build amd64 && cgo && !noasm

package ring

/*
static inline void cpu_pause() {
    __asm__ __volatile__("pause" ::: "memory");
}
*/
import "C"

//go:nosplit
func cpuRelax() {
	C.cpu_pause()
}
