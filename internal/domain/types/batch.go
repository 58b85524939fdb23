package types

import (
	"github.com/okian/waiverintel/internal/domain/model"
	"github.com/okian/waiverintel/internal/domain/rules"
)

// Batch is everything one pass reads for a (league, week). It is produced
// by the feature ETL and treated as read-only by the engine.
type Batch struct {
	LeagueID   string            `json:"league_id"`
	Week       int               `json:"week"`
	Candidates []model.Candidate `json:"candidates"`
	Aux        rules.Aux         `json:"aux"`

	// FAABRemaining is the user's remaining auction budget.
	FAABRemaining int `json:"faab_remaining"`
	// Need is the user's positional need in [0,1]; absent positions use
	// the calculator default.
	Need map[model.Position]float64 `json:"need,omitempty"`
	// NeedyManagers counts other managers with a need at each position.
	NeedyManagers map[model.Position]int `json:"needy_managers,omitempty"`
	// OpponentStarters lists player ids the next fantasy opponent would
	// start if they claimed them.
	OpponentStarters []string `json:"opponent_starters,omitempty"`
	// DisabledRules turns rules off for this league.
	DisabledRules []model.RuleID `json:"disabled_rules,omitempty"`
}

// NeedAt returns the positional need, nil when unknown.
func (b *Batch) NeedAt(pos model.Position) *float64 {
	v, ok := b.Need[pos]
	if !ok {
		return nil
	}
	return &v
}

// OpponentWouldStart reports whether the next opponent would start id.
func (b *Batch) OpponentWouldStart(id string) bool {
	for _, s := range b.OpponentStarters {
		if s == id {
			return true
		}
	}
	return false
}
