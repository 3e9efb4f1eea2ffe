package runqueue

import (
	"errors"
	"strconv"
)

// Contract violations. A RunQueue never returns these; it panics with a
// *ContractError wrapping one of them because continuing would corrupt
// scheduler state.
var (
	ErrOutOfRange    = errors.New("runqueue: thread or level out of range")
	ErrAlreadyQueued = errors.New("runqueue: thread already queued")
	ErrNotQueued     = errors.New("runqueue: thread not queued")
	ErrLevelMismatch = errors.New("runqueue: thread queued at a different level")
	ErrBadConfig     = errors.New("runqueue: invalid configuration")
)

// ContractError is the panic value raised on a precondition violation.
type ContractError struct {
	Op     string
	Thread ThreadID
	Level  Level
	Err    error
}

func (e *ContractError) Error() string {
	msg := e.Err.Error() + " (op=" + e.Op
	if e.Thread != NoThread {
		msg += " thread=" + strconv.Itoa(int(e.Thread))
	}
	if e.Level != NoLevel {
		msg += " level=" + strconv.Itoa(int(e.Level))
	}
	return msg + ")"
}

func (e *ContractError) Unwrap() error { return e.Err }

// violation is kept out of line so the callers stay inlinable.
//
//go:noinline
func violation(op string, t ThreadID, l Level, err error) {
	panic(&ContractError{Op: op, Thread: t, Level: l, Err: err})
}
