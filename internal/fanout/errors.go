package fanout

import "errors"

// Fan-out errors
var (
	// ErrPartialPersistence means some or all notification records could not
	// be written. The accompanying Report says how many were.
	ErrPartialPersistence = errors.New("notifications only partially recorded")
	ErrNoAudience         = errors.New("at least one audience rule is required")
	ErrResolution         = errors.New("audience resolution failed")
)
