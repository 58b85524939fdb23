package cooldown

import (
	"time"

	"github.com/okian/waiverintel/pkg/logger"
)

// Option applies a configuration option to the Gate.
type Option func(*Gate)

// WithWindow sets how long an emitted key suppresses repeats.
func WithWindow(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.window = d
		}
	}
}

// WithThreshold sets the relative score change that re-opens a key.
func WithThreshold(t float64) Option {
	return func(g *Gate) {
		if t > 0 && t <= 1 {
			g.threshold = t
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// WithLogger sets the gate logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Gate) {
		g.log = l
	}
}

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMaxEntries bounds the store. Zero or negative means unbounded.
func WithMaxEntries(n int) MemoryOption {
	return func(s *MemoryStore) {
		s.maxEntries = n
	}
}

// WithSnapshotPath enables JSON persistence through Load and Flush.
func WithSnapshotPath(path string) MemoryOption {
	return func(s *MemoryStore) {
		s.snapshotPath = path
	}
}

// WithMemoryClock replaces the time source used for eviction.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMemoryLogger sets the store logger.
func WithMemoryLogger(l logger.Logger) MemoryOption {
	return func(s *MemoryStore) {
		s.log = l
	}
}
