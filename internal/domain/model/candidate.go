// Package model contains domain models passed between layers.
package model

import "strings"

// Position is a fantasy roster position.
type Position string

// Supported positions.
const (
	QB  Position = "QB"
	RB  Position = "RB"
	WR  Position = "WR"
	TE  Position = "TE"
	DST Position = "DST"
)

// Positions lists every supported position in display order.
func Positions() []Position { return []Position{QB, RB, WR, TE, DST} }

// ParsePosition normalizes s into a Position. The second return is false
// for unknown positions.
func ParsePosition(s string) (Position, bool) {
	p := Position(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case QB, RB, WR, TE, DST:
		return p, true
	case "DEF", "D/ST":
		return DST, true
	}
	return "", false
}

// Is reports whether p is one of ps.
func (p Position) Is(ps ...Position) bool {
	for _, x := range ps {
		if p == x {
			return true
		}
	}
	return false
}

// Projection is the next-week fantasy point projection for the league's
// scoring system.
type Projection struct {
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"stdev"`
	Floor   float64 `json:"floor"`
	Ceiling float64 `json:"ceiling"`
}

// Candidate is one unrostered player in one league for one week, as
// produced by the feature view. Optional inputs are pointers: nil means the
// upstream value is absent and must never be read as zero.
//
// Shares, deltas and TPRR are fractions (0.20 == 20 percentage points).
type Candidate struct {
	PlayerID     string   `json:"player_id"`
	Name         string   `json:"name"`
	Team         string   `json:"team"`
	LeagueID     string   `json:"league_id"`
	Week         int      `json:"week"`
	Position     Position `json:"position"`
	NextOpponent string   `json:"next_opponent"`
	OnOwnRoster  bool     `json:"on_own_roster"`

	// RosteredPct is nil in leagues without a rostered-percentage signal.
	RosteredPct *float64 `json:"rostered_pct,omitempty"`

	SnapShareDelta   *float64 `json:"snap_share_delta,omitempty"`
	RouteShareDelta  *float64 `json:"route_share_delta,omitempty"`
	TargetShareDelta *float64 `json:"target_share_delta,omitempty"`
	CarryShareDelta  *float64 `json:"carry_share_delta,omitempty"`

	SnapShare  *float64 `json:"snap_share,omitempty"`  // most recent game
	CarryShare *float64 `json:"carry_share,omitempty"` // most recent game
	DepthRank  *int     `json:"depth_rank,omitempty"`

	TPRR             *float64 `json:"tprr,omitempty"`
	RedZoneTouchesL2 *int     `json:"rz_touches_l2,omitempty"`
	EndZoneTargetsL2 *int     `json:"ez_targets_l2,omitempty"`

	Projection *Projection `json:"projection,omitempty"`
	TrendSlope *float64    `json:"trend_slope,omitempty"`

	RosterFit  *float64 `json:"roster_fit,omitempty"`
	MarketHeat *float64 `json:"market_heat,omitempty"`
	Scarcity   *float64 `json:"scarcity,omitempty"`
	BustRisk   *float64 `json:"bust_risk,omitempty"`
}

// Component names a population-normalized scoring input.
type Component string

// Normalized scoring components.
const (
	RoleDelta    Component = "role_delta"
	OppShare     Component = "opp_share"
	RedZone      Component = "red_zone"
	NextWeekProj Component = "next_week_proj"
	TrendSlope   Component = "trend_slope"
)

// Components lists the normalized components in formula order.
func Components() []Component {
	return []Component{RoleDelta, OppShare, RedZone, NextWeekProj, TrendSlope}
}

// Value returns the raw value of comp for c. The second return is false
// when every input the component is derived from is absent.
func (c *Candidate) Value(comp Component) (float64, bool) {
	switch comp {
	case RoleDelta:
		return maxOf(c.SnapShareDelta, c.RouteShareDelta)
	case OppShare:
		return maxOf(c.TargetShareDelta, c.CarryShareDelta)
	case RedZone:
		if c.RedZoneTouchesL2 == nil && c.EndZoneTargetsL2 == nil {
			return 0, false
		}
		return float64(IntOr(c.RedZoneTouchesL2, 0) + IntOr(c.EndZoneTargetsL2, 0)), true
	case NextWeekProj:
		if c.Projection == nil {
			return 0, false
		}
		return c.Projection.Mean, true
	case TrendSlope:
		if c.TrendSlope == nil {
			return 0, false
		}
		return *c.TrendSlope, true
	}
	return 0, false
}

// HasRoleData reports whether any week-over-week role signal is present.
func (c *Candidate) HasRoleData() bool {
	return c.SnapShareDelta != nil || c.RouteShareDelta != nil
}

// ProjectedMean returns the projection mean if a projection is present.
func (c *Candidate) ProjectedMean() (float64, bool) {
	if c.Projection == nil {
		return 0, false
	}
	return c.Projection.Mean, true
}

func maxOf(vals ...*float64) (float64, bool) {
	var (
		best  float64
		found bool
	)
	for _, v := range vals {
		if v == nil {
			continue
		}
		if !found || *v > best {
			best = *v
			found = true
		}
	}
	return best, found
}

// FloatOr dereferences p or returns def when p is nil.
func FloatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// IntOr dereferences p or returns def when p is nil.
func IntOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// Float returns a pointer to v. Handy for building candidates in code.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
