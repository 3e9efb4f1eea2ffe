// ════════════════════════════════════════════════════════════════════════════════════════════════
// Ready-Queue Trace Scripts
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: JSON scheduling scripts for offline replay
//
// Description:
//   A script fixes a queue shape and lists the scheduler calls to replay:
//
//     {"name":"two-levels","levels":8,"threads":16,"order":"high",
//      "ops":[{"op":"add","thread":1,"level":2},{"op":"peek"}]}
//
//   Ops: add(thread,level) del(thread,level) pop(level) popnext advance(level) peek
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package trace

import (
	"errors"
	"fmt"

	"github.com/sugawarayuuta/sonnet"

	"runq/runqueue"
)

// Op kinds.
const (
	OpAdd     = "add"
	OpDel     = "del"
	OpPop     = "pop"
	OpPopNext = "popnext"
	OpAdvance = "advance"
	OpPeek    = "peek"
)

// ErrScript reports a malformed script.
var ErrScript = errors.New("trace: invalid script")

// Op is one scheduler call.
type Op struct {
	Op     string `json:"op"`
	Thread int    `json:"thread"`
	Level  int    `json:"level"`
}

// Script is a replayable sequence of calls against one queue shape.
type Script struct {
	Name    string `json:"name"`
	Levels  int    `json:"levels"`
	Threads int    `json:"threads"`
	Order   string `json:"order"`
	Ops     []Op   `json:"ops"`
}

// ParseScript decodes and validates a JSON script. Zero levels/threads fall
// back to the build-time defaults.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := sonnet.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScript, err)
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Config returns the queue shape the script runs against.
func (s *Script) Config() (runqueue.Config, error) {
	order, err := runqueue.ParseOrder(s.Order)
	if err != nil {
		return runqueue.Config{}, err
	}
	c := runqueue.Config{Levels: s.Levels, Threads: s.Threads, Order: order}
	return c, c.Validate()
}

func (s *Script) normalize() error {
	def := runqueue.DefaultConfig()
	if s.Levels == 0 {
		s.Levels = def.Levels
	}
	if s.Threads == 0 {
		s.Threads = def.Threads
	}
	if s.Name == "" {
		s.Name = "unnamed"
	}
	if _, err := s.Config(); err != nil {
		return fmt.Errorf("%w: %v", ErrScript, err)
	}
	for i, op := range s.Ops {
		switch op.Op {
		case OpAdd, OpDel, OpPop, OpPopNext, OpAdvance, OpPeek:
		default:
			return fmt.Errorf("%w: op %d: unknown kind %q", ErrScript, i, op.Op)
		}
		// ids must fit the wire types; range against the shape is a
		// replay-time contract check
		if op.Thread < 0 || op.Thread > int(runqueue.NoThread) ||
			op.Level < 0 || op.Level > int(runqueue.NoLevel) {
			return fmt.Errorf("%w: op %d: thread %d / level %d not representable",
				ErrScript, i, op.Thread, op.Level)
		}
	}
	return nil
}
