package trace

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/crypto/sha3"

	"runq/runqueue"
)

// LevelState is the run order of one non-empty level.
type LevelState struct {
	Level   int   `json:"level"`
	Threads []int `json:"threads"`
}

// State is the observable state of a RunQueue: its shape, bitmap words and
// the run order of every non-empty level.
type State struct {
	Order   string       `json:"order"`
	Levels  int          `json:"levels"`
	Threads int          `json:"threads"`
	Bitmap  []uint64     `json:"bitmap"`
	Ready   []LevelState `json:"ready"`
	Head    int          `json:"head"`
}

// Capture snapshots q. The caller must hold whatever serializes q.
func Capture(q *runqueue.RunQueue) State {
	bm := q.Bitmap()
	s := State{
		Order:   q.Order().String(),
		Levels:  q.Levels(),
		Threads: q.Threads(),
		Bitmap:  bm.Lanes(nil),
		Ready:   []LevelState{},
		Head:    -1,
	}
	if h, ok := q.PeekHead(); ok {
		s.Head = int(h)
	}
	var buf []runqueue.ThreadID
	for l := 0; l < q.Levels(); l++ {
		buf = q.AppendLevel(buf[:0], runqueue.Level(l))
		if len(buf) == 0 {
			continue
		}
		ls := LevelState{Level: l, Threads: make([]int, len(buf))}
		for i, t := range buf {
			ls.Threads[i] = int(t)
		}
		s.Ready = append(s.Ready, ls)
	}
	return s
}

// Digest is a SHA3-256 over a canonical encoding of s. Two states have the
// same digest iff their shape, bitmap and per-level run order agree.
func (s State) Digest() [32]byte {
	b := make([]byte, 0, 64+8*len(s.Bitmap)+8*s.Threads)
	b = binary.LittleEndian.AppendUint32(b, uint32(s.Levels))
	b = binary.LittleEndian.AppendUint32(b, uint32(s.Threads))
	b = append(b, s.Order...)
	b = append(b, 0)
	for _, w := range s.Bitmap {
		b = binary.LittleEndian.AppendUint64(b, w)
	}
	for _, ls := range s.Ready {
		b = binary.LittleEndian.AppendUint16(b, uint16(ls.Level))
		b = binary.LittleEndian.AppendUint16(b, uint16(len(ls.Threads)))
		for _, t := range ls.Threads {
			b = binary.LittleEndian.AppendUint16(b, uint16(t))
		}
	}
	return sha3.Sum256(b)
}

// DigestHex is Digest hex-encoded.
func (s State) DigestHex() string {
	d := s.Digest()
	return hex.EncodeToString(d[:])
}

// BitmapHex renders the bitmap words most-significant lane first.
func (s State) BitmapHex() string {
	b := make([]byte, 0, 8*len(s.Bitmap))
	for i := len(s.Bitmap) - 1; i >= 0; i-- {
		b = binary.BigEndian.AppendUint64(b, s.Bitmap[i])
	}
	return hex.EncodeToString(b)
}

// JSON encodes s.
func (s State) JSON() ([]byte, error) {
	return sonnet.Marshal(s)
}
