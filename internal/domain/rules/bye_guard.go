package rules

import (
	"fmt"

	"github.com/okian/waiverintel/internal/domain/model"
)

// ByeLookahead is how many weeks ahead bye coverage is checked.
const ByeLookahead = 2

// ByeGuard fires when upcoming byes leave the user short of starters at
// the candidate's position and the candidate can fill the hole.
type ByeGuard struct{}

// ID implements Evaluator.
func (ByeGuard) ID() model.RuleID { return model.RuleByeGuard }

// Evaluate implements Evaluator.
func (r ByeGuard) Evaluate(c *model.Candidate, env Env) (model.Alert, bool) {
	aux := env.Aux
	if aux == nil || aux.Roster == nil || aux.Byes == nil || aux.League == nil || env.Cohort == nil {
		return model.Alert{}, false
	}
	slots, ok := aux.League.StarterSlots[c.Position]
	if !ok || slots <= 0 {
		return model.Alert{}, false
	}
	mean, ok := c.ProjectedMean()
	if !ok {
		return model.Alert{}, false
	}
	repl, ok := env.Cohort.ReplacementLevel()
	if !ok || mean < repl {
		return model.Alert{}, false
	}

	week := env.Week
	if week == 0 {
		week = c.Week
	}
	for ahead := 1; ahead <= ByeLookahead; ahead++ {
		target := week + ahead
		if bye, ok := aux.Byes[c.Team]; ok && bye == target {
			continue
		}
		available := availableAt(aux.Roster, aux.Byes, c.Position, target)
		if available >= slots {
			continue
		}
		bullets := []string{
			fmt.Sprintf("Only %d of %d %s starters available in week %d", available, slots, c.Position, target),
			fmt.Sprintf("Projects %.1f points, replacement level is %.1f", mean, repl),
		}
		return env.alert(c, r.ID(), "Bye guard", model.TagPreBid, bullets), true
	}
	return model.Alert{}, false
}

// availableAt counts own-roster players at pos whose team is not on bye
// in week. Players on teams missing from the schedule count as available.
func availableAt(roster *Roster, byes map[string]int, pos model.Position, week int) int {
	n := 0
	for _, p := range roster.Players {
		if p.Position != pos {
			continue
		}
		if bye, ok := byes[p.Team]; ok && bye == week {
			continue
		}
		n++
	}
	return n
}
