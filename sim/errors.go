package sim

import "errors"

// Configuration errors fail fast, before any event is scheduled.
var (
	// ErrZeroFragmentSize rejects a fragment size of zero or less. A zero
	// size would otherwise produce an unbounded fragment sequence.
	ErrZeroFragmentSize = errors.New("fragment size must be positive")

	// ErrZeroRate rejects a non-positive pacing or link rate.
	ErrZeroRate = errors.New("rate must be positive bits/s")

	// ErrUnknownClass rejects a class name outside the fixed set.
	ErrUnknownClass = errors.New("unknown destination class")

	// ErrNoLink is returned by the network when no link connects the
	// requested pair of nodes. Topology construction bugs surface here.
	ErrNoLink = errors.New("no link between endpoints")
)
