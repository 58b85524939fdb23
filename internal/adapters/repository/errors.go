package repository

import "errors"

// Sentinel errors.
var (
	ErrUnavailable  = errors.New("repository: redis unavailable")
	ErrCorruptEntry = errors.New("repository: corrupt cooldown entry")
)
