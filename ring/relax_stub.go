// relax_stub.go: no-op cpuRelax for targets without a spin hint, builds
// without cgo, or the noasm tag.

//go:build (!amd64 && !arm64) || !cgo || noasm

package ring

//go:nosplit
func cpuRelax() {}
