package cooldown

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/waiverintel/pkg/logger"
	"github.com/okian/waiverintel/pkg/metrics"
)

// Defaults.
const (
	DefaultWindow    = 7 * 24 * time.Hour
	DefaultThreshold = 0.15
	// changeEpsilon absorbs float error at the threshold boundary.
	changeEpsilon = 1e-9
)

// Verdict is the outcome of Admit.
type Verdict int

// Verdicts.
const (
	Allowed Verdict = iota
	SuppressedCooldown
	SuppressedConflict
)

// String implements fmt.Stringer.
func (v Verdict) String() string {
	switch v {
	case Allowed:
		return "allowed"
	case SuppressedCooldown:
		return "cooldown"
	case SuppressedConflict:
		return "conflict"
	}
	return "unknown"
}

// Gate applies the cooldown policy on top of a Store.
type Gate struct {
	store     Store
	window    time.Duration
	threshold float64
	now       func() time.Time
	log       logger.Logger
}

// NewGate creates a gate over store.
func NewGate(store Store, opts ...Option) *Gate {
	g := &Gate{
		store:     store,
		window:    DefaultWindow,
		threshold: DefaultThreshold,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = logger.OrNop(g.log)
	return g
}

// Window returns the suppression window.
func (g *Gate) Window() time.Duration { return g.window }

// Significant reports whether score moved at least the threshold
// relative to last.
func (g *Gate) Significant(last, score float64) bool {
	if last == 0 {
		return score != 0
	}
	return math.Abs(score-last)/math.Abs(last)+changeEpsilon >= g.threshold
}

// ShouldAlert reports whether an alert for key with score would pass.
// It does not record anything.
func (g *Gate) ShouldAlert(ctx context.Context, key Key, score float64) (bool, error) {
	e, ok, err := g.store.Get(ctx, key.Hash())
	if err != nil {
		return false, fmt.Errorf("%w: get: %w", ErrStoreFailed, err)
	}
	return g.passes(e, ok, score, g.now()), nil
}

// Record upserts the entry for key, keeping the first-seen time of a
// live entry and restarting the window. It retries once on conflict.
func (g *Gate) Record(ctx context.Context, key Key, score float64) error {
	hash := key.Hash()
	for attempt := 0; attempt < 2; attempt++ {
		e, ok, err := g.store.Get(ctx, hash)
		if err != nil {
			return fmt.Errorf("%w: get: %w", ErrStoreFailed, err)
		}
		swapped, err := g.store.CompareAndSet(ctx, hash, versionOf(e, ok), g.next(e, ok, score, g.now()))
		if err != nil {
			return fmt.Errorf("%w: cas: %w", ErrStoreFailed, err)
		}
		if swapped {
			return nil
		}
		metrics.RecordCooldownConflict()
	}
	return fmt.Errorf("%w: record %s: concurrent update", ErrStoreFailed, hash)
}

// Admit decides and records in one step. A lost compare-and-set is
// retried once with fresh data; a second loss suppresses.
func (g *Gate) Admit(ctx context.Context, key Key, score float64) (Verdict, error) {
	hash := key.Hash()
	for attempt := 0; attempt < 2; attempt++ {
		now := g.now()
		e, ok, err := g.store.Get(ctx, hash)
		if err != nil {
			return SuppressedConflict, fmt.Errorf("%w: get: %w", ErrStoreFailed, err)
		}
		if !g.passes(e, ok, score, now) {
			return SuppressedCooldown, nil
		}
		swapped, err := g.store.CompareAndSet(ctx, hash, versionOf(e, ok), g.next(e, ok, score, now))
		if err != nil {
			return SuppressedConflict, fmt.Errorf("%w: cas: %w", ErrStoreFailed, err)
		}
		if swapped {
			return Allowed, nil
		}
		metrics.RecordCooldownConflict()
		g.log.Debug(ctx, "cooldown conflict",
			logger.String("player_id", key.PlayerID),
			logger.String("rule", string(key.Rule)),
			logger.Int("week", key.Week),
			logger.Int("attempt", attempt+1))
	}
	g.log.Warn(ctx, "cooldown conflict persisted, suppressing",
		logger.String("player_id", key.PlayerID),
		logger.String("rule", string(key.Rule)),
		logger.Int("week", key.Week))
	return SuppressedConflict, nil
}

// Purge drops entries expired at the gate's current time.
func (g *Gate) Purge(ctx context.Context) (int, error) {
	n, err := g.store.Purge(ctx, g.now())
	if err != nil {
		return 0, fmt.Errorf("%w: purge: %w", ErrStoreFailed, err)
	}
	return n, nil
}

func (g *Gate) passes(e Entry, ok bool, score float64, now time.Time) bool {
	if !ok || !e.Live(now) {
		return true
	}
	return g.Significant(e.LastScore, score)
}

func (g *Gate) next(e Entry, ok bool, score float64, now time.Time) Entry {
	first := now
	if ok && e.Live(now) && !e.FirstSeen.IsZero() {
		first = e.FirstSeen
	}
	return Entry{
		LastScore: score,
		FirstSeen: first,
		ExpiresAt: now.Add(g.window),
		Version:   versionOf(e, ok) + 1,
	}
}

func versionOf(e Entry, ok bool) uint64 {
	if !ok {
		return 0
	}
	return e.Version
}
