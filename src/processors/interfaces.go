package processors

import "errors"

// Engine error taxonomy. Validation problems on individual operations are
// collected into the recompute report instead; the errors below abort a
// whole pass, because a partial tax computation would misstate liability.
var (
	// ErrInsufficientPosition means a sell exceeds the quantity held at
	// that point of the replay. Never clamped silently.
	ErrInsufficientPosition = errors.New("sell quantity exceeds held position")

	// ErrOrderingViolation means a lane saw the same or an earlier month
	// after a later one. Loss carryforward is sequential, so this is an
	// integration bug, not user data.
	ErrOrderingViolation = errors.New("monthly buckets out of chronological order")
)
