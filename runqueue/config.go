package runqueue

import (
	"fmt"

	"runq/constants"
)

// ThreadID names a schedulable thread. Valid values are [0, Config.Threads).
type ThreadID uint16

// Level is a priority level (run queue id). Valid values are [0, Config.Levels).
type Level uint16

const (
	// NoThread is the nil link and the "none" thread.
	NoThread ThreadID = ^ThreadID(0)
	// NoLevel marks an unqueued node and the "none" level.
	NoLevel Level = ^Level(0)
)

// Order selects which end of the level range is most urgent.
type Order uint8

const (
	// HighFirst schedules the highest numeric level first.
	HighFirst Order = iota
	// LowFirst schedules the lowest numeric level first.
	LowFirst
)

func (o Order) String() string {
	switch o {
	case HighFirst:
		return "high"
	case LowFirst:
		return "low"
	}
	return "order(" + fmt.Sprint(uint8(o)) + ")"
}

// ParseOrder maps "high"/"low" (or "" for the default) to an Order.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "high":
		return HighFirst, nil
	case "low":
		return LowFirst, nil
	}
	return HighFirst, fmt.Errorf("%w: unknown order %q", ErrBadConfig, s)
}

// Config fixes the shape of a RunQueue for its whole lifetime.
type Config struct {
	Levels  int   // distinct priority levels
	Threads int   // thread slots; bounds ThreadID
	Order   Order // bitmap scan direction
}

// DefaultConfig returns the build-time defaults.
func DefaultConfig() Config {
	return Config{
		Levels:  constants.SchedPrioLevels,
		Threads: constants.ThreadsNumof,
		Order:   HighFirst,
	}
}

// Validate checks the configuration against the structural limits.
func (c Config) Validate() error {
	if c.Levels <= 0 || c.Levels > constants.MaxLevels {
		return fmt.Errorf("%w: levels %d not in [1, %d]", ErrBadConfig, c.Levels, constants.MaxLevels)
	}
	if c.Threads <= 0 || c.Threads > constants.MaxThreads {
		return fmt.Errorf("%w: threads %d not in [1, %d]", ErrBadConfig, c.Threads, constants.MaxThreads)
	}
	if c.Order != HighFirst && c.Order != LowFirst {
		return fmt.Errorf("%w: %s", ErrBadConfig, c.Order)
	}
	return nil
}
