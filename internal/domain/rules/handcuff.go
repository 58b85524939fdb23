package rules

import (
	"fmt"

	"github.com/okian/waiverintel/internal/domain/model"
)

// HandcuffSnapShareMin is the backup snap share needed when the lead back
// is banged up.
const HandcuffSnapShareMin = 0.30

// HandcuffHeat fires for a backfield's next man up when the lead back is
// at risk or the backfield is splitting.
type HandcuffHeat struct{}

// ID implements Evaluator.
func (HandcuffHeat) ID() model.RuleID { return model.RuleHandcuffHeat }

// Evaluate implements Evaluator.
func (r HandcuffHeat) Evaluate(c *model.Candidate, env Env) (model.Alert, bool) {
	if c.Position != model.RB || env.Aux == nil || env.Aux.LeadBacks == nil {
		return model.Alert{}, false
	}
	lead, ok := env.Aux.LeadBacks[c.Team]
	if !ok || lead.PlayerID == "" || lead.PlayerID == c.PlayerID {
		return model.Alert{}, false
	}

	var bullets []string
	hurt := lead.Status == StatusQuestionable || lead.Status == StatusLimited
	if hurt && c.SnapShare != nil && *c.SnapShare >= HandcuffSnapShareMin {
		bullets = append(bullets,
			fmt.Sprintf("Lead back %s is %s", lead.PlayerID, lead.Status),
			fmt.Sprintf("Already handling %s of snaps", pct(*c.SnapShare)))
	}
	if lead.Committee {
		bullets = append(bullets, "Backfield is trending toward a committee")
	}
	if len(bullets) == 0 {
		return model.Alert{}, false
	}

	tag := model.TagNone
	if env.Aux.Roster != nil && env.Aux.Roster.Has(lead.PlayerID) {
		tag = model.TagInsurance
		bullets = append(bullets, "You roster the lead back")
	}
	return env.alert(c, r.ID(), "Handcuff heat", tag, bullets), true
}
