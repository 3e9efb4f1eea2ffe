// ring.go
//
// Lock-free single-producer/single-consumer ring of 64-bit words. One ring
// connects exactly one source core to one destination core; the scheduler
// packs a (thread, level) handoff into each word. Producer and consumer
// cursors sit on separate cache lines and every slot carries a sequence
// stamp, so Push/Pop need one acquire load and one release store each.

package ring

import "sync/atomic"

// slot couples a payload word with its sequence stamp.
type slot struct {
	seq uint64 // position in the sequence space
	val uint64 // payload
}

// Ring is a fixed-capacity circular buffer dedicated to one producer and
// one consumer.
type Ring struct {
	_    [64]byte // consumer head isolated on its own cache-line
	head uint64
	//lint:ignore U1000 padding to keep head & tail on different cache-lines
	_pad1 [56]byte
	tail  uint64
	//lint:ignore U1000 padding to keep hot fields from colliding with metadata
	_pad2 [56]byte
	mask  uint64
	buf   []slot
}

// New allocates a ring whose size must be a power-of-two; otherwise it
// panics so that the bit-masking arithmetic stays valid.
func New(size int) *Ring {
	if size <= 0 || size&(size-1) != 0 {
		panic("ring: size must be >0 and a power of two")
	}
	r := &Ring{
		mask: uint64(size - 1),
		buf:  make([]slot, size),
	}
	for i := range r.buf {
		r.buf[i].seq = uint64(i)
	}
	return r
}

// Push enqueues v, returning false if the buffer is full.
//
//go:nosplit
func (r *Ring) Push(v uint64) bool {
	t := r.tail
	s := &r.buf[t&r.mask]
	if atomic.LoadUint64(&s.seq) != t {
		return false // consumer has not yet reclaimed the slot
	}
	s.val = v
	atomic.StoreUint64(&s.seq, t+1)
	r.tail = t + 1
	return true
}

// Pop dequeues one word. ok is false if the buffer is empty.
//
//go:nosplit
func (r *Ring) Pop() (v uint64, ok bool) {
	h := r.head
	s := &r.buf[h&r.mask]
	if atomic.LoadUint64(&s.seq) != h+1 {
		return 0, false // producer has not yet published to the slot
	}
	v = s.val
	atomic.StoreUint64(&s.seq, h+uint64(len(r.buf)))
	r.head = h + 1
	return v, true
}

// Cap returns the slot count.
func (r *Ring) Cap() int { return len(r.buf) }

// Relax is the spin-wait hint used by callers outside this package
// (PAUSE on amd64, YIELD on arm64, no-op elsewhere).
//
//go:nosplit
func Relax() { cpuRelax() }
