package cooldown

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/waiverintel/pkg/logger"
	"github.com/okian/waiverintel/pkg/metrics"
)

const (
	defaultMaxEntries = 50000
	snapshotVersion   = 1
)

// MemoryStore is a mutex-guarded Store with optional JSON persistence.
// When bounded, inserting into a full store evicts expired entries first,
// then the entry closest to expiry.
type MemoryStore struct {
	mu           sync.Mutex
	entries      map[string]Entry
	maxEntries   int
	snapshotPath string
	now          func() time.Time
	log          logger.Logger
}

var (
	_ Store     = (*MemoryStore)(nil)
	_ Lifecycle = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries:    make(map[string]Entry),
		maxEntries: defaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrNop(s.log)
	return s
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, hash string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[hash]
	return e, ok, nil
}

// CompareAndSet implements Store.
func (s *MemoryStore) CompareAndSet(_ context.Context, hash string, expected uint64, next Entry) (bool, error) {
	if next.Version == 0 {
		return false, ErrInvalidEntry
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.entries[hash]
	switch {
	case !ok && expected != 0:
		return false, nil
	case ok && cur.Version != expected:
		return false, nil
	}
	if !ok && s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		s.evict()
	}
	s.entries[hash] = next
	metrics.UpdateCooldownEntries(len(s.entries))
	return true, nil
}

// Purge implements Store.
func (s *MemoryStore) Purge(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.purgeLocked(now)
	metrics.UpdateCooldownEntries(len(s.entries))
	return n, nil
}

// Len returns the number of held entries, live or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) purgeLocked(now time.Time) int {
	n := 0
	for k, e := range s.entries {
		if !e.Live(now) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// evict must be called with s.mu held.
func (s *MemoryStore) evict() {
	if s.purgeLocked(s.now()) > 0 {
		return
	}
	var (
		victim string
		soon   time.Time
	)
	for k, e := range s.entries {
		if victim == "" || e.ExpiresAt.Before(soon) {
			victim, soon = k, e.ExpiresAt
		}
	}
	delete(s.entries, victim)
}

type snapshot struct {
	Version int              `json:"version"`
	SavedAt time.Time        `json:"saved_at"`
	Entries map[string]Entry `json:"entries"`
}

// Load merges the snapshot on disk into the store. Per key the entry with
// the higher Version wins, so entries admitted since the last Flush are
// never overwritten by an older snapshot. A missing file is a no-op.
// Expired entries are dropped on load.
func (s *MemoryStore) Load(ctx context.Context) error {
	if s.snapshotPath == "" {
		return nil
	}
	raw, err := os.ReadFile(s.snapshotPath)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Debug(ctx, "no cooldown snapshot", logger.String("path", s.snapshotPath))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrSnapshot, s.snapshotPath, err)
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrSnapshot, s.snapshotPath, err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrSnapshot, snap.Version)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	merged := 0
	for k, e := range snap.Entries {
		if e.Version == 0 {
			continue
		}
		if cur, ok := s.entries[k]; ok && cur.Version >= e.Version {
			continue
		}
		s.entries[k] = e
		merged++
	}
	dropped := s.purgeLocked(s.now())
	metrics.UpdateCooldownEntries(len(s.entries))
	s.log.Info(ctx, "cooldown snapshot loaded",
		logger.String("path", s.snapshotPath),
		logger.Int("entries", len(s.entries)),
		logger.Int("merged", merged),
		logger.Int("expired", dropped))
	return nil
}

// Flush writes the live entries to the snapshot path atomically.
func (s *MemoryStore) Flush(ctx context.Context) error {
	if s.snapshotPath == "" {
		return nil
	}
	now := s.now()
	s.mu.Lock()
	snap := snapshot{Version: snapshotVersion, SavedAt: now, Entries: make(map[string]Entry, len(s.entries))}
	for k, e := range s.entries {
		if e.Live(now) {
			snap.Entries[k] = e
		}
	}
	s.mu.Unlock()

	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrSnapshot, err)
	}
	dir := filepath.Dir(s.snapshotPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %w", ErrSnapshot, dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".cooldown-*.json")
	if err != nil {
		return fmt.Errorf("%w: temp file: %w", ErrSnapshot, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // best effort after rename
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write: %w", ErrSnapshot, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close: %w", ErrSnapshot, err)
	}
	if err := os.Rename(tmp.Name(), s.snapshotPath); err != nil {
		return fmt.Errorf("%w: rename: %w", ErrSnapshot, err)
	}
	s.log.Debug(ctx, "cooldown snapshot flushed",
		logger.String("path", s.snapshotPath),
		logger.Int("entries", len(snap.Entries)))
	return nil
}
