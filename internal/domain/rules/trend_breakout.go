package rules

import (
	"fmt"

	"github.com/okian/waiverintel/internal/domain/model"
)

// TrendBreakout fires on a rising usage trend that outpaces the position
// and already projects as a startable player.
type TrendBreakout struct{}

// ID implements Evaluator.
func (TrendBreakout) ID() model.RuleID { return model.RuleTrendBreakout }

// Evaluate implements Evaluator.
func (r TrendBreakout) Evaluate(c *model.Candidate, env Env) (model.Alert, bool) {
	if !c.Position.Is(model.RB, model.WR, model.TE) || c.TrendSlope == nil || env.Cohort == nil {
		return model.Alert{}, false
	}
	slope := *c.TrendSlope
	median, ok := env.Cohort.MedianSlope()
	if !ok || slope <= 0 || slope <= median {
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

	bullets := []string{
		fmt.Sprintf("Usage trend %+.3f against a %s median of %+.3f", slope, c.Position, median),
		fmt.Sprintf("Projects %.1f points, replacement level is %.1f", mean, repl),
	}
	return env.alert(c, r.ID(), "Trend breakout", model.TagNone, bullets), true
}
