// Package rules holds the "why now" evaluators. Every evaluator is a pure
// predicate over a candidate and read-only auxiliary data; missing data
// makes a rule abstain rather than fire. Rules never see the cooldown
// store: suppression happens after evaluation.
package rules

import (
	"time"

	"github.com/okian/waiverintel/internal/domain/model"
	"github.com/okian/waiverintel/internal/domain/population"
)

// Evaluator is the shared capability of every rule.
type Evaluator interface {
	ID() model.RuleID
	// Evaluate returns an alert and true when the rule fires for c.
	Evaluate(c *model.Candidate, env Env) (model.Alert, bool)
}

// Env is the per-candidate evaluation environment. Aux is shared by all
// candidates of a pass and must not be modified.
type Env struct {
	LeagueID string
	Week     int
	Tier     model.Tier
	At       time.Time
	Cohort   *population.Cohort
	Aux      *Aux
}

func (e Env) alert(c *model.Candidate, rule model.RuleID, title string, tag model.Tag, bullets []string) model.Alert {
	a := model.NewAlert(c, model.AlertSpec{
		Rule:      rule,
		Title:     title,
		Tier:      e.Tier,
		Week:      e.Week,
		At:        e.At,
		Tag:       tag,
		Rationale: bullets,
	})
	if a.LeagueID == "" {
		a.LeagueID = e.LeagueID
	}
	return a
}

// InjuryStatus is a practice/game status from the injury feed.
type InjuryStatus string

// Injury statuses.
const (
	StatusOut          InjuryStatus = "Out"
	StatusIR           InjuryStatus = "IR"
	StatusDoubtful     InjuryStatus = "Doubtful"
	StatusQuestionable InjuryStatus = "Questionable"
	StatusLimited      InjuryStatus = "Limited"
	StatusActive       InjuryStatus = "Active"
)

// InjuryReport is one player's entry in the team injury feed.
type InjuryReport struct {
	PlayerID string       `json:"player_id"`
	Status   InjuryStatus `json:"status"`
	// PracticePct is the share of practice sessions attended, nil if unknown.
	PracticePct *float64 `json:"practice_pct,omitempty"`
}

// DepthEntry is one slot on a team depth chart.
type DepthEntry struct {
	PlayerID string `json:"player_id"`
	Rank     int    `json:"rank"`
}

// Matchup describes the defense or offense a candidate faces next week,
// keyed by the opposing NFL team.
type Matchup struct {
	// ImpliedPoints is the opponent's implied team total.
	ImpliedPoints *float64 `json:"implied_points,omitempty"`
	// SacksAllowed is the opponent offense's sacks allowed per game.
	SacksAllowed *float64 `json:"sacks_allowed,omitempty"`
	// RankAllowed ranks the opponent by fantasy points allowed to a
	// position, 1 being the most generous.
	RankAllowed map[model.Position]int `json:"rank_allowed,omitempty"`
}

// LeadBack is the availability signal for a team's lead running back.
type LeadBack struct {
	PlayerID  string       `json:"player_id"`
	Status    InjuryStatus `json:"status"`
	Committee bool         `json:"committee"`
}

// RosterPlayer is one player on the user's own roster.
type RosterPlayer struct {
	PlayerID string         `json:"player_id"`
	Team     string         `json:"team"`
	Position model.Position `json:"position"`
}

// Roster is the user's own roster.
type Roster struct {
	Players []RosterPlayer `json:"players"`
}

// Has reports whether the roster holds playerID.
func (r *Roster) Has(playerID string) bool {
	for _, p := range r.Players {
		if p.PlayerID == playerID {
			return true
		}
	}
	return false
}

// League carries league-level settings used by rules.
type League struct {
	ScoringSystem string                 `json:"scoring_system"`
	StarterSlots  map[model.Position]int `json:"starter_slots,omitempty"`
	// OpponentNeeds lists positions where the user's next fantasy
	// opponent is short a starter.
	OpponentNeeds []model.Position `json:"opponent_needs,omitempty"`
}

// OpponentNeedsAt reports whether the next fantasy opponent needs pos.
func (l *League) OpponentNeedsAt(pos model.Position) bool {
	if l == nil {
		return false
	}
	return pos.Is(l.OpponentNeeds...)
}

// Aux bundles the auxiliary feeds. A nil field means the feed is absent
// for this pass and every rule needing it abstains.
type Aux struct {
	Injuries   map[string][]InjuryReport                 `json:"injuries,omitempty"`
	DepthChart map[string]map[model.Position][]DepthEntry `json:"depth_chart,omitempty"`
	Matchups   map[string]Matchup                        `json:"matchups,omitempty"`
	LeadBacks  map[string]LeadBack                       `json:"lead_backs,omitempty"`
	Roster     *Roster                                   `json:"roster,omitempty"`
	Byes       map[string]int                            `json:"byes,omitempty"`
	League     *League                                   `json:"league,omitempty"`
}

// Set is the fixed, enumerable set of evaluators.
type Set struct {
	evaluators []Evaluator
}

// NewSet returns every rule with default thresholds.
func NewSet() *Set {
	return &Set{evaluators: []Evaluator{
		RoleSpike{},
		InjuryVacuum{},
		RedZone{},
		TrendBreakout{},
		StreamerSpotlight{},
		HandcuffHeat{},
		ByeGuard{},
	}}
}

// NewSetOf builds a set from the given evaluators, in order.
func NewSetOf(evaluators ...Evaluator) *Set {
	out := make([]Evaluator, len(evaluators))
	copy(out, evaluators)
	return &Set{evaluators: out}
}

// All returns every evaluator in evaluation order.
func (s *Set) All() []Evaluator {
	out := make([]Evaluator, len(s.evaluators))
	copy(out, s.evaluators)
	return out
}

// Enabled filters the set, dropping disabled rule ids. The set itself is
// unchanged.
func (s *Set) Enabled(disabled ...model.RuleID) []Evaluator {
	out := make([]Evaluator, 0, len(s.evaluators))
	for _, e := range s.evaluators {
		if !contains(disabled, e.ID()) {
			out = append(out, e)
		}
	}
	return out
}

func contains(ids []model.RuleID, id model.RuleID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
