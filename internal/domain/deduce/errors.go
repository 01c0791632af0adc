package deduce

import "errors"

// Sentinel kinds for completion search outcomes. Callers match with errors.Is.
var (
	// ErrUnknownSet means an observed id does not exist in the pool.
	ErrUnknownSet = errors.New("unknown set id")

	// ErrConflictingObservation means the observation itself is impossible:
	// two confirmed sets share a species, or more sets are confirmed than
	// the team has slots.
	ErrConflictingObservation = errors.New("conflicting observation")

	// ErrCancelled means the caller's context expired before the search
	// finished. No partial result is returned.
	ErrCancelled = errors.New("search cancelled")
)
