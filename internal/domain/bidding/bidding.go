// Package bidding prices a fired alert into a FAAB bid band.
package bidding

import (
	"fmt"
	"math"

	"github.com/okian/waiverintel/internal/domain/model"
)

// Formula constants.
const (
	CapFraction        = 0.45
	ScarcityBase       = 0.3
	ScarcitySlope      = 0.7
	BlockBase          = 1.15
	BlockScarcitySlope = 0.10
	MarketBase         = 1.10
	MarketStep         = 0.05
	MarketMax          = 1.30
	ConservativeRatio  = 0.8
	AggressiveRatio    = 1.2
	BandStep           = 5
	// DefaultNeed is used when positional need is unknown.
	DefaultNeed = 0.5
)

// Input carries everything the calculator reads.
type Input struct {
	ValueDelta     float64
	WeeksRemaining float64
	Scarcity       float64
	Need           float64
	FAABRemaining  int
	// OpponentWouldStart is set when the user's next fantasy opponent would
	// start the player; it enables the block factor like a block tag does.
	OpponentWouldStart bool
	Tag                model.Tag
	// NeedyManagers is the count of other managers with a need at the
	// position.
	NeedyManagers int
}

// Calculator computes bid bands.
type Calculator struct {
	valuePerPoint   float64
	seasonFinalWeek int
}

// New creates a calculator.
func New(opts ...Option) *Calculator {
	c := &Calculator{valuePerPoint: DefaultValuePerPoint, seasonFinalWeek: DefaultSeasonFinalWeek}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cap returns the maximum bid for a remaining budget.
func Cap(faab int) int {
	if faab <= 0 {
		return 0
	}
	c := int(math.Floor(CapFraction * float64(faab)))
	if c > faab-1 {
		c = faab - 1
	}
	if c < 0 {
		return 0
	}
	return c
}

// BlockFactor returns the multiplier applied when denying the player to
// the next opponent matters.
func BlockFactor(in Input) float64 {
	if in.OpponentWouldStart || in.Tag == model.TagBlock {
		return BlockBase + BlockScarcitySlope*clamp01(in.Scarcity)
	}
	return 1.0
}

// MarketMultiplier scales the bid with the number of competing managers.
func MarketMultiplier(needy int) float64 {
	if needy <= 0 {
		return 1.0
	}
	return math.Min(MarketMax, MarketBase+MarketStep*float64(needy-1))
}

// RawBid is the unadjusted bid.
func RawBid(in Input) float64 {
	return in.ValueDelta * in.WeeksRemaining * (ScarcityBase + ScarcitySlope*clamp01(in.Scarcity)) * in.Need
}

// Compute prices in. The result is total: non-finite or non-positive
// inputs yield a zero band.
func (c *Calculator) Compute(in Input) model.BidBand {
	limit := Cap(in.FAABRemaining)
	band := model.BidBand{Cap: limit, BlockFactor: 1.0, MarketMultiplier: 1.0, Band: bandID(0)}
	if !finite(in.ValueDelta, in.WeeksRemaining, in.Scarcity, in.Need) {
		return band
	}

	raw := RawBid(in)
	band.RawBid = raw
	band.BlockFactor = BlockFactor(in)
	band.MarketMultiplier = MarketMultiplier(in.NeedyManagers)
	if raw <= 0 || limit == 0 {
		return band
	}

	bid := math.Max(0, math.Min(raw*band.BlockFactor*band.MarketMultiplier, float64(limit)))
	band.Conservative = clampInt(round(ConservativeRatio*bid), limit)
	band.Median = clampInt(round(bid), limit)
	band.Aggressive = clampInt(round(AggressiveRatio*bid), limit)
	band.Band = bandID(band.Median)
	return band
}

// ForAlert builds the Input for a priced alert from the candidate and the
// pass context. A missing need falls back to DefaultNeed.
func (c *Calculator) ForAlert(cand *model.Candidate, alert model.Alert, score float64, faab int, need *float64, needy int, opponentStarts bool) Input {
	weeks := c.seasonFinalWeek - alert.Week + 1
	if weeks < 0 {
		weeks = 0
	}
	return Input{
		ValueDelta:         math.Max(score, 0) * c.valuePerPoint,
		WeeksRemaining:     float64(weeks),
		Scarcity:           model.FloatOr(cand.Scarcity, 0),
		Need:               model.FloatOr(need, DefaultNeed),
		FAABRemaining:      faab,
		OpponentWouldStart: opponentStarts,
		Tag:                alert.Tag,
		NeedyManagers:      needy,
	}
}

func bandID(median int) string {
	lo := (median / BandStep) * BandStep
	return fmt.Sprintf("%d-%d", lo, lo+BandStep-1)
}

func round(x float64) int { return int(math.Round(x)) }

func clampInt(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(x float64) float64 { return math.Max(0, math.Min(1, x)) }

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
