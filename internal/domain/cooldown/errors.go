package cooldown

import "errors"

// Sentinel errors.
var (
	ErrInvalidEntry = errors.New("cooldown: invalid entry")
	ErrSnapshot     = errors.New("cooldown: snapshot failed")
	ErrStoreFailed  = errors.New("cooldown: store operation failed")
)
