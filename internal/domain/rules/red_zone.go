package rules

import (
	"fmt"

	"github.com/okian/waiverintel/internal/domain/model"
)

// Red zone thresholds over the last two games.
const (
	RedZoneTouchesMin = 3
	EndZoneTargetsMin = 2
)

// RedZone fires on concentrated scoring-area usage.
type RedZone struct{}

// ID implements Evaluator.
func (RedZone) ID() model.RuleID { return model.RuleRedZone }

// Evaluate implements Evaluator.
func (r RedZone) Evaluate(c *model.Candidate, env Env) (model.Alert, bool) {
	var bullets []string
	if c.Position.Is(model.RB, model.TE) && c.RedZoneTouchesL2 != nil && *c.RedZoneTouchesL2 >= RedZoneTouchesMin {
		bullets = append(bullets, fmt.Sprintf("%d red-zone touches in the last two games", *c.RedZoneTouchesL2))
	}
	if c.Position.Is(model.WR, model.TE) && c.EndZoneTargetsL2 != nil && *c.EndZoneTargetsL2 >= EndZoneTargetsMin {
		bullets = append(bullets, fmt.Sprintf("%d end-zone targets in the last two games", *c.EndZoneTargetsL2))
	}
	if len(bullets) == 0 {
		return model.Alert{}, false
	}
	return env.alert(c, r.ID(), "Red zone role", model.TagNone, bullets), true
}
