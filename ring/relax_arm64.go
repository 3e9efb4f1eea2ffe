// relax_arm64.go
//
// cpuRelax on arm64 emits YIELD for spin-wait loops.

//go:build arm64 && cgo && !noasm

package ring

/*
static inline void cpu_yield() {
    __asm__ __volatile__("yield" ::: "memory");
}
*/
import "C"

//go:nosplit
func cpuRelax() {
	C.cpu_yield()
}
