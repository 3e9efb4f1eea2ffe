package trace

import (
	"errors"
	"fmt"

	"runq/runqueue"
)

// Step records one replayed op and the queue state right after it.
type Step struct {
	Index  int
	Op     string
	Thread int    // -1 when the op takes no thread
	Level  int    // -1 when the op takes no level
	Result int    // thread returned by pop/popnext/peek, -1 for none
	Head   int    // PeekHead after the op, -1 for none
	Queued int    // threads queued after the op
	Bitmap string // BitmapHex after the op
	Digest string // DigestHex after the op
	Err    string // contract violation that stopped the replay
}

// Result is a whole replay.
type Result struct {
	Name   string
	Config runqueue.Config
	Steps  []Step
	Final  State
}

// Failed reports whether the replay stopped on a contract violation.
func (r *Result) Failed() bool {
	return len(r.Steps) > 0 && r.Steps[len(r.Steps)-1].Err != ""
}

// Replay runs s against a fresh RunQueue. A contract violation stops the
// replay: the failing step is recorded with Err set and returned as an
// error wrapping the *runqueue.ContractError. A broken queue invariant stops
// it the same way. The partial Result, with Final set to the state after the
// last recorded step, is always returned.
func Replay(s *Script) (*Result, error) {
	cfg, err := s.Config()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScript, err)
	}
	q := runqueue.New(cfg)
	res := &Result{Name: s.Name, Config: cfg, Steps: make([]Step, 0, len(s.Ops)), Final: Capture(q)}

	for i, op := range s.Ops {
		st := Step{Index: i, Op: op.Op, Thread: -1, Level: -1, Result: -1}
		err := apply(q, op, &st)

		state := Capture(q)
		st.Head = state.Head
		st.Queued = q.Len()
		st.Bitmap = state.BitmapHex()
		st.Digest = state.DigestHex()
		if err == nil {
			if verr := verify(q); verr != nil {
				err = fmt.Errorf("invariant: %w", verr)
			}
		}
		res.Steps = append(res.Steps, st)
		res.Final = state
		if err != nil {
			res.Steps[len(res.Steps)-1].Err = err.Error()
			return res, fmt.Errorf("step %d (%s): %w", i, op.Op, err)
		}
	}
	return res, nil
}

// verify is swapped out by tests to simulate a corrupted queue.
var verify = (*runqueue.RunQueue).Verify

// apply performs op, converting a contract panic into an error. A rejected
// call never mutates the queue, so the state captured afterwards is exact.
func apply(q *runqueue.RunQueue, op Op, st *Step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var ce *runqueue.ContractError
			if e, ok := r.(error); ok && errors.As(e, &ce) {
				err = ce
				return
			}
			panic(r)
		}
	}()

	t, l := runqueue.ThreadID(op.Thread), runqueue.Level(op.Level)
	switch op.Op {
	case OpAdd:
		st.Thread, st.Level = op.Thread, op.Level
		q.Add(t, l)
	case OpDel:
		st.Thread, st.Level = op.Thread, op.Level
		q.Del(t, l)
	case OpPop:
		st.Level = op.Level
		if id, ok := q.PopHead(l); ok {
			st.Result = int(id)
		}
	case OpPopNext:
		if id, lvl, ok := q.PopNext(); ok {
			st.Result, st.Level = int(id), int(lvl)
		}
	case OpAdvance:
		st.Level = op.Level
		q.Advance(l)
	case OpPeek:
		if id, ok := q.PeekHead(); ok {
			st.Result = int(id)
		}
	}
	return nil
}

// RoundTrips returns, for every step index i, the earliest step j >= i whose
// digest equals the state before step i (i.e. the queue returned to exactly
// where it was). Steps that never return are absent.
func RoundTrips(res *Result, initial string) map[int]int {
	out := map[int]int{}
	prev := initial
	for i, st := range res.Steps {
		for j := i; j < len(res.Steps); j++ {
			if res.Steps[j].Digest == prev {
				out[i] = j
				break
			}
		}
		prev = st.Digest
	}
	return out
}

// EmptyDigest is the digest of a fresh queue of shape cfg.
func EmptyDigest(cfg runqueue.Config) string {
	return Capture(runqueue.New(cfg)).DigestHex()
}
