package cooldown

import (
	"context"
	"time"
)

// Entry is the persisted record of an emitted alert key.
type Entry struct {
	LastScore float64   `json:"last_score"`
	FirstSeen time.Time `json:"first_seen"`
	ExpiresAt time.Time `json:"expires_at"`
	// Version increases on every write. Zero is never stored.
	Version uint64 `json:"version"`
}

// Live reports whether the entry still suppresses at now.
func (e Entry) Live(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// Store persists entries by key hash.
type Store interface {
	// Get returns the entry for hash. Expired entries may be returned;
	// callers check Live.
	Get(ctx context.Context, hash string) (Entry, bool, error)
	// CompareAndSet writes next only if the stored version equals
	// expected, where zero means "absent". It reports false on conflict.
	CompareAndSet(ctx context.Context, hash string, expected uint64, next Entry) (bool, error)
	// Purge removes entries expired at now and returns how many went.
	Purge(ctx context.Context, now time.Time) (int, error)
}

// Lifecycle is implemented by stores that are loaded at the start of a
// pass and persisted at its end.
type Lifecycle interface {
	Load(ctx context.Context) error
	Flush(ctx context.Context) error
}
