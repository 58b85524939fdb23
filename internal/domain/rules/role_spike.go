package rules

import (
	"fmt"

	"github.com/okian/waiverintel/internal/domain/model"
)

// Role spike thresholds.
const (
	RouteSpikeMin     = 0.20
	SnapSpikeMin      = 0.25
	PassCatcherTPRR   = 0.18
	RBCarryShareFloor = 0.30
	RosteredCeiling   = 0.50
)

// RoleSpike fires on a sharp week-over-week jump in usage for a player
// the market has not caught up on.
type RoleSpike struct{}

// ID implements Evaluator.
func (RoleSpike) ID() model.RuleID { return model.RuleRoleSpike }

// Evaluate implements Evaluator.
func (r RoleSpike) Evaluate(c *model.Candidate, env Env) (model.Alert, bool) {
	if c.OnOwnRoster {
		return model.Alert{}, false
	}
	if c.RosteredPct != nil && *c.RosteredPct > RosteredCeiling {
		return model.Alert{}, false
	}

	var bullets []string
	spiked := false
	if c.RouteShareDelta != nil && *c.RouteShareDelta >= RouteSpikeMin {
		spiked = true
		bullets = append(bullets, fmt.Sprintf("Route share up %s week over week", pp(*c.RouteShareDelta)))
	}
	if c.SnapShareDelta != nil && *c.SnapShareDelta >= SnapSpikeMin {
		spiked = true
		bullets = append(bullets, fmt.Sprintf("Snap share up %s week over week", pp(*c.SnapShareDelta)))
	}
	if !spiked {
		return model.Alert{}, false
	}

	switch c.Position {
	case model.WR, model.TE:
		if c.TPRR == nil || *c.TPRR < PassCatcherTPRR {
			return model.Alert{}, false
		}
		bullets = append(bullets, fmt.Sprintf("Earning %.2f targets per route run", *c.TPRR))
	case model.RB:
		if c.CarryShare != nil && *c.CarryShare < RBCarryShareFloor {
			return model.Alert{}, false
		}
	}

	if c.RosteredPct != nil {
		bullets = append(bullets, fmt.Sprintf("Rostered in only %s of leagues", pct(*c.RosteredPct)))
	}
	return env.alert(c, r.ID(), "Role spike", model.TagNone, bullets), true
}

func pp(frac float64) string { return fmt.Sprintf("%.0fpp", frac*100) }

func pct(frac float64) string { return fmt.Sprintf("%.0f%%", frac*100) }
