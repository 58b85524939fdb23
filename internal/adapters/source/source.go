// Package source loads candidate batches written by the feature ETL.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/okian/waiverintel/internal/domain/model"
	"github.com/okian/waiverintel/internal/domain/types"
)

// Sentinel errors.
var (
	ErrBatchNotFound = errors.New("source: batch not found")
	ErrInvalidBatch  = errors.New("source: invalid batch")
)

var leaguePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Source loads the batch for one (league, week).
type Source interface {
	Load(ctx context.Context, leagueID string, week int) (types.Batch, error)
}

// FileSource reads <dir>/<league>_w<week>.json.
type FileSource struct {
	Dir string
}

// NewFileSource creates a FileSource rooted at dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{Dir: dir}
}

// Path returns the file a batch is read from.
func (s *FileSource) Path(leagueID string, week int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s_w%d.json", leagueID, week))
}

// Load implements Source. Candidates missing league or week inherit the
// batch values; positions are normalized.
func (s *FileSource) Load(ctx context.Context, leagueID string, week int) (types.Batch, error) {
	if err := ctx.Err(); err != nil {
		return types.Batch{}, err
	}
	if !leaguePattern.MatchString(leagueID) || week < 1 {
		return types.Batch{}, fmt.Errorf("%w: league %q week %d", ErrInvalidBatch, leagueID, week)
	}
	path := s.Path(leagueID, week)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return types.Batch{}, fmt.Errorf("%w: %s", ErrBatchNotFound, path)
	}
	if err != nil {
		return types.Batch{}, fmt.Errorf("read %s: %w", path, err)
	}

	var b types.Batch
	if err := json.Unmarshal(raw, &b); err != nil {
		return types.Batch{}, fmt.Errorf("%w: decode %s: %w", ErrInvalidBatch, path, err)
	}
	if b.LeagueID == "" {
		b.LeagueID = leagueID
	}
	if b.Week == 0 {
		b.Week = week
	}
	if b.LeagueID != leagueID || b.Week != week {
		return types.Batch{}, fmt.Errorf("%w: %s holds %s week %d", ErrInvalidBatch, path, b.LeagueID, b.Week)
	}
	for i := range b.Candidates {
		c := &b.Candidates[i]
		if c.LeagueID == "" {
			c.LeagueID = b.LeagueID
		}
		if c.Week == 0 {
			c.Week = b.Week
		}
		if pos, ok := model.ParsePosition(string(c.Position)); ok {
			c.Position = pos
		}
	}
	return b, nil
}
