// Package types contains the pass-level types shared by the service,
// its transports and the CLI.
package types

import (
	"sort"
	"time"

	"github.com/okian/waiverintel/internal/domain/model"
)

// Trigger says what started a pass.
type Trigger string

// Pass triggers.
const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
	TriggerCLI       Trigger = "cli"
)

// PassRequest asks for one evaluation pass over a (league, week).
type PassRequest struct {
	LeagueID string  `json:"league_id"`
	Week     int     `json:"week"`
	Trigger  Trigger `json:"trigger,omitempty"`
}

// Stage names the step in which a per-item failure happened.
type Stage string

// Failure stages.
const (
	StageScore Stage = "score"
	StageRule  Stage = "rule"
	StageBid   Stage = "bid"
	StageGate  Stage = "cooldown"
	StageSweep Stage = "sweep"
)

// Decision is a surviving alert with its score and bid.
type Decision struct {
	Alert model.Alert       `json:"alert"`
	Score model.ScoreResult `json:"score"`
	Bid   model.BidBand     `json:"bid"`
}

// Failure is a per-item error with enough context to reproduce it.
type Failure struct {
	PlayerID string       `json:"player_id"`
	Rule     model.RuleID `json:"rule,omitempty"`
	Week     int          `json:"week"`
	Stage    Stage        `json:"stage"`
	Err      string       `json:"error"`
}

// Report is the outcome of one pass.
type Report struct {
	PassID     string     `json:"pass_id"`
	LeagueID   string     `json:"league_id"`
	Week       int        `json:"week"`
	Trigger    Trigger    `json:"trigger"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Candidates int        `json:"candidates"`
	Decisions  []Decision `json:"decisions"`
	// Filtered counts alerts dropped because their tier was None.
	Filtered int `json:"filtered"`
	// Suppressed counts alerts held back by the cooldown gate.
	Suppressed int       `json:"suppressed"`
	Failures   []Failure `json:"failures,omitempty"`
}

// SortDecisions orders decisions by tier, then score descending, then
// player and rule so output is deterministic.
func SortDecisions(ds []Decision) {
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		if ra, rb := a.Alert.Tier.Rank(), b.Alert.Tier.Rank(); ra != rb {
			return ra > rb
		}
		if a.Score.Score != b.Score.Score {
			return a.Score.Score > b.Score.Score
		}
		if a.Alert.PlayerID != b.Alert.PlayerID {
			return a.Alert.PlayerID < b.Alert.PlayerID
		}
		return a.Alert.Rule < b.Alert.Rule
	})
}

// ByTier groups decisions by tier, preserving order.
func (r *Report) ByTier() map[model.Tier][]Decision {
	out := make(map[model.Tier][]Decision)
	for _, d := range r.Decisions {
		out[d.Alert.Tier] = append(out[d.Alert.Tier], d)
	}
	return out
}
