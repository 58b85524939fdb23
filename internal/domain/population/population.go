// Package population computes per-position summary statistics over a
// candidate batch. A Context is built once per (league, week) and is
// read-only afterwards, so it can be shared by every scoring and rule call
// of a pass without locking.
package population

import (
	"math"
	"sort"

	"github.com/okian/waiverintel/internal/domain/model"
)

// minPopulation is the smallest population that yields a usable z-score.
const minPopulation = 2

// zeroVariance is the stdev under which a component is treated as constant.
const zeroVariance = 1e-12

// Stats summarizes one component over a positional population.
type Stats struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdev"`
}

// NewStats computes the mean and population standard deviation of values.
func NewStats(values []float64) Stats {
	n := len(values)
	if n == 0 {
		return Stats{}
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return Stats{N: n, Mean: mean, StdDev: math.Sqrt(sq / float64(n))}
}

// Degenerate reports whether the population cannot normalize a value.
func (s Stats) Degenerate() bool {
	return s.N < minPopulation || s.StdDev < zeroVariance || math.IsNaN(s.StdDev)
}

// Z returns the z-score of x, or 0 for a degenerate population.
func (s Stats) Z(x float64) float64 {
	if s.Degenerate() {
		return 0
	}
	return (x - s.Mean) / s.StdDev
}

// Cohort holds the statistics for one position.
type Cohort struct {
	position model.Position
	stats    map[model.Component]Stats

	medianSlope    float64
	hasSlope       bool
	replacement    float64
	hasReplacement bool
	projRank       map[string]int
}

// FromStats builds a cohort from precomputed component statistics.
func FromStats(pos model.Position, stats map[model.Component]Stats) *Cohort {
	c := &Cohort{position: pos, stats: make(map[model.Component]Stats, len(stats)), projRank: map[string]int{}}
	for k, v := range stats {
		c.stats[k] = v
	}
	return c
}

// WithReference returns a copy of c with the median slope and replacement
// level set. Used where those figures come from outside the batch.
func (c *Cohort) WithReference(medianSlope, replacement float64) *Cohort {
	cp := *c
	cp.medianSlope, cp.hasSlope = medianSlope, true
	cp.replacement, cp.hasReplacement = replacement, true
	return &cp
}

// Position returns the cohort position.
func (c *Cohort) Position() model.Position { return c.position }

// Stats returns the statistics for comp. A missing component yields the
// zero Stats, which is degenerate.
func (c *Cohort) Stats(comp model.Component) Stats { return c.stats[comp] }

// Z normalizes x against the component statistics.
func (c *Cohort) Z(comp model.Component, x float64) float64 { return c.stats[comp].Z(x) }

// MedianSlope returns the positional median trend slope.
func (c *Cohort) MedianSlope() (float64, bool) { return c.medianSlope, c.hasSlope }

// ReplacementLevel returns the median next-week projection of the cohort.
func (c *Cohort) ReplacementLevel() (float64, bool) { return c.replacement, c.hasReplacement }

// ProjectionRank returns the 1-based rank of playerID by projection mean.
func (c *Cohort) ProjectionRank(playerID string) (int, bool) {
	r, ok := c.projRank[playerID]
	return r, ok
}

// Context is the population context for a (league, week).
type Context struct {
	LeagueID string
	Week     int
	cohorts  map[model.Position]*Cohort
}

// Build groups candidates by position and derives every cohort.
func Build(leagueID string, week int, candidates []model.Candidate) *Context {
	byPos := make(map[model.Position][]*model.Candidate)
	for i := range candidates {
		c := &candidates[i]
		byPos[c.Position] = append(byPos[c.Position], c)
	}
	ctx := &Context{LeagueID: leagueID, Week: week, cohorts: make(map[model.Position]*Cohort, len(byPos))}
	for pos, members := range byPos {
		ctx.cohorts[pos] = buildCohort(pos, members)
	}
	return ctx
}

// Cohort returns the cohort for pos.
func (p *Context) Cohort(pos model.Position) (*Cohort, bool) {
	if p == nil {
		return nil, false
	}
	c, ok := p.cohorts[pos]
	return c, ok
}

// Size returns the number of members of pos that carry comp.
func (p *Context) Size(pos model.Position, comp model.Component) int {
	c, ok := p.Cohort(pos)
	if !ok {
		return 0
	}
	return c.Stats(comp).N
}

func buildCohort(pos model.Position, members []*model.Candidate) *Cohort {
	c := &Cohort{position: pos, stats: make(map[model.Component]Stats), projRank: make(map[string]int)}
	for _, comp := range model.Components() {
		var vals []float64
		for _, m := range members {
			if v, ok := m.Value(comp); ok && !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
		c.stats[comp] = NewStats(vals)
	}

	var slopes []float64
	type ranked struct {
		id   string
		mean float64
	}
	var projections []ranked
	for _, m := range members {
		if m.TrendSlope != nil {
			slopes = append(slopes, *m.TrendSlope)
		}
		if mean, ok := m.ProjectedMean(); ok {
			projections = append(projections, ranked{id: m.PlayerID, mean: mean})
		}
	}
	if len(slopes) > 0 {
		c.medianSlope, c.hasSlope = median(slopes), true
	}
	if len(projections) > 0 {
		means := make([]float64, len(projections))
		for i, p := range projections {
			means[i] = p.mean
		}
		c.replacement, c.hasReplacement = median(means), true

		sort.Slice(projections, func(i, j int) bool {
			if projections[i].mean != projections[j].mean {
				return projections[i].mean > projections[j].mean
			}
			return projections[i].id < projections[j].id
		})
		for i, p := range projections {
			c.projRank[p.id] = i + 1
		}
	}
	return c
}

// median is the upper middle value for even counts; the two middle values
// are not averaged.
func median(values []float64) float64 {
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	return s[len(s)/2]
}
