package model

import "maps"

// Tier is a coarse ranking bucket derived from a score.
type Tier string

// Tiers in descending order. TierNone is filtered from downstream output.
const (
	TierA    Tier = "A"
	TierB    Tier = "B"
	TierC    Tier = "C"
	TierNone Tier = ""
)

// Rank orders tiers: A=3, B=2, C=1, None=0.
func (t Tier) Rank() int {
	switch t {
	case TierA:
		return 3
	case TierB:
		return 2
	case TierC:
		return 1
	}
	return 0
}

// String renders TierNone as "none".
func (t Tier) String() string {
	if t == TierNone {
		return "none"
	}
	return string(t)
}

// ScoreResult is the composite score for one candidate. Components maps
// each formula term (normalized components plus roster_fit and bust_risk)
// to its signed weighted contribution.
type ScoreResult struct {
	PlayerID   string             `json:"player_id"`
	Score      float64            `json:"score"`
	Components map[string]float64 `json:"components"`
	Tier       Tier               `json:"tier"`
}

// Contribution returns the weighted contribution of a formula term.
func (r ScoreResult) Contribution(term string) float64 {
	return r.Components[term]
}

// Clone returns a copy that shares no map with r.
func (r ScoreResult) Clone() ScoreResult {
	r.Components = maps.Clone(r.Components)
	return r
}

// BidBand is a FAAB bid suggestion in integer currency units.
type BidBand struct {
	Conservative     int     `json:"conservative"`
	Median           int     `json:"median"`
	Aggressive       int     `json:"aggressive"`
	Cap              int     `json:"cap"`
	RawBid           float64 `json:"raw_bid"`
	BlockFactor      float64 `json:"block_factor"`
	MarketMultiplier float64 `json:"market_multiplier"`
	Band             string  `json:"band"`
}
