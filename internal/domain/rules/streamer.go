package rules

import (
	"fmt"

	"github.com/okian/waiverintel/internal/domain/model"
)

// Streamer thresholds.
const (
	StreamerRankMax        = 8
	StreamerMatchupRankMax = 10
	DSTImpliedPointsMax    = 20.0
	DSTSacksAllowedMin     = 2.5
)

// StreamerSpotlight fires for one-week plays at streamable positions with
// a soft matchup.
type StreamerSpotlight struct{}

// ID implements Evaluator.
func (StreamerSpotlight) ID() model.RuleID { return model.RuleStreamerSpotlight }

// Evaluate implements Evaluator.
func (r StreamerSpotlight) Evaluate(c *model.Candidate, env Env) (model.Alert, bool) {
	if !c.Position.Is(model.QB, model.TE, model.DST) || c.OnOwnRoster {
		return model.Alert{}, false
	}
	if env.Cohort == nil || env.Aux == nil || env.Aux.Matchups == nil {
		return model.Alert{}, false
	}
	rank, ok := env.Cohort.ProjectionRank(c.PlayerID)
	if !ok || rank > StreamerRankMax {
		return model.Alert{}, false
	}
	m, ok := env.Aux.Matchups[c.NextOpponent]
	if !ok {
		return model.Alert{}, false
	}

	bullets := []string{fmt.Sprintf("Projects as the %s%d this week", c.Position, rank)}
	switch c.Position {
	case model.QB, model.TE:
		allowed, ok := m.RankAllowed[c.Position]
		if !ok || allowed > StreamerMatchupRankMax {
			return model.Alert{}, false
		}
		bullets = append(bullets, fmt.Sprintf("%s allows the %s most points to %ss", c.NextOpponent, ordinal(allowed), c.Position))
	case model.DST:
		soft := false
		if m.ImpliedPoints != nil && *m.ImpliedPoints <= DSTImpliedPointsMax {
			soft = true
			bullets = append(bullets, fmt.Sprintf("%s implied for %.1f points", c.NextOpponent, *m.ImpliedPoints))
		}
		if m.SacksAllowed != nil && *m.SacksAllowed >= DSTSacksAllowedMin {
			soft = true
			bullets = append(bullets, fmt.Sprintf("%s allows %.1f sacks per game", c.NextOpponent, *m.SacksAllowed))
		}
		if !soft {
			return model.Alert{}, false
		}
	}
	return env.alert(c, r.ID(), "Streamer spotlight", model.TagNone, bullets), true
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
