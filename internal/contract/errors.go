package contract

import "errors"

// Error taxonomy of the analysis engine. Callers test with errors.Is.
var (
	// ErrUnresolvableRevision means a revision spec does not name a reachable commit.
	ErrUnresolvableRevision = errors.New("unresolvable revision")

	// ErrCorruptHistory means a commit object could not be read mid-walk.
	ErrCorruptHistory = errors.New("corrupt history")

	// ErrInvalidConfiguration means analyzer options failed validation.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrEmptyRepository means HEAD is unborn. It is never surfaced as a failure.
	ErrEmptyRepository = errors.New("empty repository")

	// ErrStopWalk is returned by an aggregator or visitor to end the walk early.
	ErrStopWalk = errors.New("stop walk")
)
