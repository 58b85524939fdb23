package model

import (
	"time"

	"github.com/google/uuid"
)

// RuleID identifies a rule evaluator.
type RuleID string

// Rule identifiers. The set is fixed; leagues only toggle membership.
const (
	RuleRoleSpike         RuleID = "role_spike"
	RuleInjuryVacuum      RuleID = "injury_vacuum"
	RuleRedZone           RuleID = "red_zone"
	RuleTrendBreakout     RuleID = "trend_breakout"
	RuleStreamerSpotlight RuleID = "streamer_spotlight"
	RuleHandcuffHeat      RuleID = "handcuff_heat"
	RuleByeGuard          RuleID = "bye_guard"
)

// Rules lists every rule identifier in evaluation order.
func Rules() []RuleID {
	return []RuleID{
		RuleRoleSpike,
		RuleInjuryVacuum,
		RuleRedZone,
		RuleTrendBreakout,
		RuleStreamerSpotlight,
		RuleHandcuffHeat,
		RuleByeGuard,
	}
}

// KnownRule reports whether id names a rule.
func KnownRule(id string) bool {
	for _, r := range Rules() {
		if string(r) == id {
			return true
		}
	}
	return false
}

// Tag is an optional qualifier on an alert.
type Tag string

// Alert tags.
const (
	TagNone      Tag = ""
	TagBlock     Tag = "block"
	TagInsurance Tag = "insurance"
	TagPreBid    Tag = "pre-bid"
)

// Urgency says when a claim should be placed.
type Urgency string

// Urgency levels.
const (
	UrgencyImmediate Urgency = "immediate"
	UrgencyNextCycle Urgency = "next_cycle"
)

// UrgencyFor returns the claim urgency for a rule. Opportunity rules that
// usually resolve on the next waiver run are immediate.
func UrgencyFor(rule RuleID) Urgency {
	switch rule {
	case RuleRoleSpike, RuleInjuryVacuum:
		return UrgencyImmediate
	}
	return UrgencyNextCycle
}

// Alert is a single "why now" trigger for a candidate. Alerts are built
// once and never edited; a changed situation yields a new Alert.
type Alert struct {
	ID         string    `json:"id"`
	Rule       RuleID    `json:"rule"`
	Title      string    `json:"title"`
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	LeagueID   string    `json:"league_id"`
	Position   Position  `json:"position"`
	Tier       Tier      `json:"tier"`
	Rationale  []string  `json:"rationale"`
	Week       int       `json:"week"`
	ComputedAt time.Time `json:"computed_at"`
	Tag        Tag       `json:"tag,omitempty"`
	Urgency    Urgency   `json:"urgency"`
}

// AlertSpec carries the rule-specific parts of a new alert.
type AlertSpec struct {
	Rule      RuleID
	Title     string
	Tier      Tier
	Week      int
	At        time.Time
	Tag       Tag
	Rationale []string
}

// NewAlert builds an Alert for c. The rationale slice is copied.
func NewAlert(c *Candidate, spec AlertSpec) Alert {
	bullets := make([]string, len(spec.Rationale))
	copy(bullets, spec.Rationale)
	leagueID := c.LeagueID
	week := spec.Week
	if week == 0 {
		week = c.Week
	}
	return Alert{
		ID:         uuid.NewString(),
		Rule:       spec.Rule,
		Title:      spec.Title,
		PlayerID:   c.PlayerID,
		PlayerName: c.Name,
		LeagueID:   leagueID,
		Position:   c.Position,
		Tier:       spec.Tier,
		Rationale:  bullets,
		Week:       week,
		ComputedAt: spec.At,
		Tag:        spec.Tag,
		Urgency:    UrgencyFor(spec.Rule),
	}
}
