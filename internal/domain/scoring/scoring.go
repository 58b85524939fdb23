// Package scoring turns a candidate and its positional cohort into a
// composite waiver score and tier.
package scoring

import (
	"math"

	"github.com/okian/waiverintel/internal/domain/model"
	"github.com/okian/waiverintel/internal/domain/population"
)

// Formula terms that are not population-normalized.
const (
	TermRosterFit = "roster_fit"
	TermBustRisk  = "bust_risk"
)

// MissingUsageBustRisk is the bust risk assumed when role data or the
// projection is absent. Missing usage lowers the score, never raises it.
const MissingUsageBustRisk = 1.0

// Weights are the formula coefficients. BustRisk is subtracted.
type Weights struct {
	RoleDelta    float64
	OppShare     float64
	RedZone      float64
	NextWeekProj float64
	TrendSlope   float64
	RosterFit    float64
	BustRisk     float64
}

// DefaultWeights returns the production coefficients.
func DefaultWeights() Weights {
	return Weights{
		RoleDelta:    0.35,
		OppShare:     0.20,
		RedZone:      0.15,
		NextWeekProj: 0.10,
		TrendSlope:   0.10,
		RosterFit:    0.10,
		BustRisk:     0.10,
	}
}

func (w Weights) of(comp model.Component) float64 {
	switch comp {
	case model.RoleDelta:
		return w.RoleDelta
	case model.OppShare:
		return w.OppShare
	case model.RedZone:
		return w.RedZone
	case model.NextWeekProj:
		return w.NextWeekProj
	case model.TrendSlope:
		return w.TrendSlope
	}
	return 0
}

// Thresholds are the inclusive lower bounds of tiers A, B and C.
type Thresholds struct {
	A float64
	B float64
	C float64
}

// DefaultThresholds returns the fixed tier boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{A: 0.70, B: 0.45, C: 0.25}
}

// Tier maps a score to a tier. Boundaries are inclusive.
func (t Thresholds) Tier(score float64) model.Tier {
	switch {
	case score >= t.A:
		return model.TierA
	case score >= t.B:
		return model.TierB
	case score >= t.C:
		return model.TierC
	}
	return model.TierNone
}

// Scorer computes composite scores.
type Scorer interface {
	// Score is pure: the same inputs always yield an equal result and
	// neither argument is modified.
	Score(c *model.Candidate, cohort *population.Cohort) model.ScoreResult
}

// WeightedScorer implements Scorer with the linear z-score formula.
type WeightedScorer struct {
	weights    Weights
	thresholds Thresholds
}

// NewWeightedScorer creates a scorer with default weights and thresholds.
func NewWeightedScorer(opts ...Option) *WeightedScorer {
	s := &WeightedScorer{
		weights:    DefaultWeights(),
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Thresholds returns the tier boundaries in use.
func (s *WeightedScorer) Thresholds() Thresholds { return s.thresholds }

// Score computes the composite score for c against cohort. A nil cohort
// neutralizes every normalized component.
func (s *WeightedScorer) Score(c *model.Candidate, cohort *population.Cohort) model.ScoreResult {
	components := make(map[string]float64, len(model.Components())+2)
	var score float64

	for _, comp := range model.Components() {
		var z float64
		if v, ok := c.Value(comp); ok && cohort != nil {
			z = cohort.Z(comp, v)
		}
		contrib := s.weights.of(comp) * z
		components[string(comp)] = contrib
		score += contrib
	}

	fit := s.weights.RosterFit * model.FloatOr(c.RosterFit, 0)
	components[TermRosterFit] = fit
	score += fit

	bust := -s.weights.BustRisk * BustRisk(c)
	components[TermBustRisk] = bust
	score += bust

	if math.IsNaN(score) || math.IsInf(score, 0) {
		score = 0
	}

	return model.ScoreResult{
		PlayerID:   c.PlayerID,
		Score:      score,
		Components: components,
		Tier:       s.thresholds.Tier(score),
	}
}

// BustRisk returns the pre-normalized bust risk for c in [0,1].
//
// Without role data or a projection the risk is MissingUsageBustRisk.
// Otherwise a supplied value wins, else the projection's coefficient of
// variation is used.
func BustRisk(c *model.Candidate) float64 {
	if !c.HasRoleData() || c.Projection == nil {
		return MissingUsageBustRisk
	}
	if c.BustRisk != nil {
		return clamp01(*c.BustRisk)
	}
	if c.Projection.Mean <= 0 {
		return MissingUsageBustRisk
	}
	return clamp01(c.Projection.StdDev / c.Projection.Mean)
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return MissingUsageBustRisk
	}
	return math.Max(0, math.Min(1, x))
}
