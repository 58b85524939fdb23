package rules

import (
	"fmt"

	"github.com/okian/waiverintel/internal/domain/model"
)

// Injury vacuum thresholds.
const (
	DoubtfulPracticeMax = 0.25
	VacuumSnapShareMin  = 0.40
	VacuumDepthRankMax  = 2
)

// InjuryVacuum fires when the starter ahead of the candidate is out and
// the candidate is positioned to absorb the work.
type InjuryVacuum struct{}

// ID implements Evaluator.
func (InjuryVacuum) ID() model.RuleID { return model.RuleInjuryVacuum }

// Evaluate implements Evaluator.
func (r InjuryVacuum) Evaluate(c *model.Candidate, env Env) (model.Alert, bool) {
	if env.Aux == nil || env.Aux.DepthChart == nil || env.Aux.Injuries == nil {
		return model.Alert{}, false
	}
	starter, ok := starterOf(env.Aux.DepthChart[c.Team][c.Position])
	if !ok || starter == c.PlayerID {
		return model.Alert{}, false
	}
	report, ok := findReport(env.Aux.Injuries[c.Team], starter)
	if !ok || !sidelined(report) {
		return model.Alert{}, false
	}

	snapOK := c.SnapShare != nil && *c.SnapShare >= VacuumSnapShareMin
	depthOK := c.DepthRank != nil && *c.DepthRank <= VacuumDepthRankMax
	if !snapOK && !depthOK {
		return model.Alert{}, false
	}

	bullets := []string{fmt.Sprintf("Starter %s listed %s", starter, report.Status)}
	if snapOK {
		bullets = append(bullets, fmt.Sprintf("Already playing %s of snaps", pct(*c.SnapShare)))
	}
	if depthOK {
		bullets = append(bullets, fmt.Sprintf("Next man up at depth rank %d", *c.DepthRank))
	}

	tag := model.TagNone
	if env.Aux.League.OpponentNeedsAt(c.Position) {
		tag = model.TagBlock
		bullets = append(bullets, fmt.Sprintf("Next opponent needs a %s", c.Position))
	}
	return env.alert(c, r.ID(), "Injury vacuum", tag, bullets), true
}

func starterOf(entries []DepthEntry) (string, bool) {
	for _, e := range entries {
		if e.Rank == 1 {
			return e.PlayerID, true
		}
	}
	return "", false
}

func findReport(reports []InjuryReport, playerID string) (InjuryReport, bool) {
	for _, r := range reports {
		if r.PlayerID == playerID {
			return r, true
		}
	}
	return InjuryReport{}, false
}

func sidelined(r InjuryReport) bool {
	switch r.Status {
	case StatusOut, StatusIR:
		return true
	case StatusDoubtful:
		return r.PracticePct != nil && *r.PracticePct < DoubtfulPracticeMax
	}
	return false
}
