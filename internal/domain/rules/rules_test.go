package rules_test

import (
	"testing"
	"time"

	"github.com/okian/waiverintel/internal/domain/model"
	"github.com/okian/waiverintel/internal/domain/population"
	"github.com/okian/waiverintel/internal/domain/rules"
	. "github.com/smartystreets/goconvey/convey"
)

var at = time.Date(2026, 10, 13, 9, 0, 0, 0, time.UTC)

func env(aux *rules.Aux, cohort *population.Cohort) rules.Env {
	return rules.Env{LeagueID: "L1", Week: 6, Tier: model.TierB, At: at, Cohort: cohort, Aux: aux}
}

func TestRoleSpike(t *testing.T) {
	Convey("Given the role spike rule", t, func() {
		r := rules.RoleSpike{}
		base := func() model.Candidate {
			return model.Candidate{
				PlayerID:        "wr-9",
				Name:            "Slot Guy",
				Position:        model.WR,
				RouteShareDelta: model.Float(0.25),
				TPRR:            model.Float(0.20),
				RosteredPct:     model.Float(0.10),
			}
		}

		Convey("When a lightly rostered WR jumps in routes with strong TPRR", func() {
			c := base()
			a, ok := r.Evaluate(&c, env(nil, nil))

			Convey("Then it should fire with the pass tier and rationale", func() {
				So(ok, ShouldBeTrue)
				So(a.Rule, ShouldEqual, model.RuleRoleSpike)
				So(a.Tier, ShouldEqual, model.TierB)
				So(a.LeagueID, ShouldEqual, "L1")
				So(a.Urgency, ShouldEqual, model.UrgencyImmediate)
				So(a.Rationale, ShouldNotBeEmpty)
				So(a.ID, ShouldNotBeBlank)
			})
		})

		Convey("When TPRR is below the pass-catcher bar", func() {
			c := base()
			c.TPRR = model.Float(0.15)
			_, ok := r.Evaluate(&c, env(nil, nil))
			So(ok, ShouldBeFalse)
		})

		Convey("When TPRR is absent", func() {
			c := base()
			c.TPRR = nil
			_, ok := r.Evaluate(&c, env(nil, nil))
			So(ok, ShouldBeFalse)
		})

		Convey("When the rostered signal is absent", func() {
			c := base()
			c.RosteredPct = nil
			_, ok := r.Evaluate(&c, env(nil, nil))
			So(ok, ShouldBeTrue)
		})

		Convey("When the player is widely rostered or already owned", func() {
			c := base()
			c.RosteredPct = model.Float(0.75)
			_, ok := r.Evaluate(&c, env(nil, nil))
			So(ok, ShouldBeFalse)

			c = base()
			c.OnOwnRoster = true
			_, ok = r.Evaluate(&c, env(nil, nil))
			So(ok, ShouldBeFalse)
		})

		Convey("When an RB spikes in snaps with a thin carry share", func() {
			c := model.Candidate{PlayerID: "rb-1", Position: model.RB, SnapShareDelta: model.Float(0.30), CarryShare: model.Float(0.20)}
			_, ok := r.Evaluate(&c, env(nil, nil))
			So(ok, ShouldBeFalse)

			c.CarryShare = nil
			_, ok = r.Evaluate(&c, env(nil, nil))
			So(ok, ShouldBeTrue)
		})
	})
}

func TestInjuryVacuum(t *testing.T) {
	Convey("Given a depth chart with an injured starter", t, func() {
		aux := &rules.Aux{
			DepthChart: map[string]map[model.Position][]rules.DepthEntry{
				"KC": {model.RB: {{PlayerID: "rb-starter", Rank: 1}, {PlayerID: "rb-2", Rank: 2}}},
			},
			Injuries: map[string][]rules.InjuryReport{
				"KC": {{PlayerID: "rb-starter", Status: rules.StatusOut}},
			},
			League: &rules.League{OpponentNeeds: []model.Position{model.RB}},
		}
		c := model.Candidate{PlayerID: "rb-2", Team: "KC", Position: model.RB, DepthRank: model.Int(2)}

		Convey("Then the backup should fire with a block tag", func() {
			a, ok := rules.InjuryVacuum{}.Evaluate(&c, env(aux, nil))
			So(ok, ShouldBeTrue)
			So(a.Tag, ShouldEqual, model.TagBlock)
		})

		Convey("When the starter is only doubtful but practiced fully", func() {
			aux.Injuries["KC"][0] = rules.InjuryReport{PlayerID: "rb-starter", Status: rules.StatusDoubtful, PracticePct: model.Float(0.5)}
			_, ok := rules.InjuryVacuum{}.Evaluate(&c, env(aux, nil))
			So(ok, ShouldBeFalse)
		})

		Convey("When the candidate is the starter", func() {
			s := model.Candidate{PlayerID: "rb-starter", Team: "KC", Position: model.RB, DepthRank: model.Int(1)}
			_, ok := rules.InjuryVacuum{}.Evaluate(&s, env(aux, nil))
			So(ok, ShouldBeFalse)
		})

		Convey("When the candidate is buried and barely plays", func() {
			d := model.Candidate{PlayerID: "rb-4", Team: "KC", Position: model.RB, DepthRank: model.Int(4), SnapShare: model.Float(0.1)}
			_, ok := rules.InjuryVacuum{}.Evaluate(&d, env(aux, nil))
			So(ok, ShouldBeFalse)
		})

		Convey("When the auxiliary feeds are absent", func() {
			_, ok := rules.InjuryVacuum{}.Evaluate(&c, env(nil, nil))
			So(ok, ShouldBeFalse)
		})
	})
}

func TestRedZone(t *testing.T) {
	Convey("Given the red zone rule", t, func() {
		r := rules.RedZone{}
		te := model.Candidate{PlayerID: "te-1", Position: model.TE, EndZoneTargetsL2: model.Int(2)}
		_, ok := r.Evaluate(&te, env(nil, nil))
		So(ok, ShouldBeTrue)

		wr := model.Candidate{PlayerID: "wr-1", Position: model.WR, RedZoneTouchesL2: model.Int(5)}
		_, ok = r.Evaluate(&wr, env(nil, nil))
		So(ok, ShouldBeFalse)

		rb := model.Candidate{PlayerID: "rb-1", Position: model.RB, RedZoneTouchesL2: model.Int(3)}
		_, ok = r.Evaluate(&rb, env(nil, nil))
		So(ok, ShouldBeTrue)

		missing := model.Candidate{PlayerID: "rb-2", Position: model.RB}
		_, ok = r.Evaluate(&missing, env(nil, nil))
		So(ok, ShouldBeFalse)
	})
}

func TestTrendBreakout(t *testing.T) {
	Convey("Given a cohort with median slope 0.05 and replacement 9", t, func() {
		cohort := population.FromStats(model.WR, nil).WithReference(0.05, 9)
		c := model.Candidate{PlayerID: "wr-t", Position: model.WR, TrendSlope: model.Float(0.12), Projection: &model.Projection{Mean: 11}}

		_, ok := rules.TrendBreakout{}.Evaluate(&c, env(nil, cohort))
		So(ok, ShouldBeTrue)

		c.Projection.Mean = 8
		_, ok = rules.TrendBreakout{}.Evaluate(&c, env(nil, cohort))
		So(ok, ShouldBeFalse)

		c.Projection.Mean = 11
		c.TrendSlope = model.Float(0.04)
		_, ok = rules.TrendBreakout{}.Evaluate(&c, env(nil, cohort))
		So(ok, ShouldBeFalse)

		c.TrendSlope = model.Float(0.12)
		_, ok = rules.TrendBreakout{}.Evaluate(&c, env(nil, nil))
		So(ok, ShouldBeFalse)
	})
}

func TestTrendBreakoutEvenCohort(t *testing.T) {
	Convey("Given a WR cohort with slopes 1 to 4", t, func() {
		batch := []model.Candidate{
			{PlayerID: "a", Position: model.WR, TrendSlope: model.Float(1), Projection: &model.Projection{Mean: 8}},
			{PlayerID: "b", Position: model.WR, TrendSlope: model.Float(2), Projection: &model.Projection{Mean: 9}},
			{PlayerID: "c", Position: model.WR, TrendSlope: model.Float(3), Projection: &model.Projection{Mean: 10}},
			{PlayerID: "d", Position: model.WR, TrendSlope: model.Float(4), Projection: &model.Projection{Mean: 11}},
		}
		cohort, _ := population.Build("L1", 6, batch).Cohort(model.WR)

		Convey("Then a slope equal to the upper middle value should abstain", func() {
			_, ok := rules.TrendBreakout{}.Evaluate(&batch[2], env(nil, cohort))
			So(ok, ShouldBeFalse)
		})

		Convey("Then the top slope above replacement should fire", func() {
			_, ok := rules.TrendBreakout{}.Evaluate(&batch[3], env(nil, cohort))
			So(ok, ShouldBeTrue)
		})
	})
}

func TestStreamerSpotlight(t *testing.T) {
	Convey("Given a QB cohort and matchups", t, func() {
		batch := []model.Candidate{
			{PlayerID: "qb-1", Position: model.QB, NextOpponent: "NYJ", Projection: &model.Projection{Mean: 20}},
			{PlayerID: "qb-2", Position: model.QB, NextOpponent: "BUF", Projection: &model.Projection{Mean: 18}},
		}
		ctx := population.Build("L1", 6, batch)
		cohort, _ := ctx.Cohort(model.QB)
		aux := &rules.Aux{Matchups: map[string]rules.Matchup{
			"NYJ": {RankAllowed: map[model.Position]int{model.QB: 3}},
			"BUF": {RankAllowed: map[model.Position]int{model.QB: 25}},
		}}

		a, ok := rules.StreamerSpotlight{}.Evaluate(&batch[0], env(aux, cohort))
		So(ok, ShouldBeTrue)
		So(a.Urgency, ShouldEqual, model.UrgencyNextCycle)

		_, ok = rules.StreamerSpotlight{}.Evaluate(&batch[1], env(aux, cohort))
		So(ok, ShouldBeFalse)

		Convey("When a defense faces a sack-prone offense", func() {
			dst := model.Candidate{PlayerID: "dst-1", Position: model.DST, NextOpponent: "CHI", Projection: &model.Projection{Mean: 8}}
			dctx := population.Build("L1", 6, []model.Candidate{dst})
			dc, _ := dctx.Cohort(model.DST)
			daux := &rules.Aux{Matchups: map[string]rules.Matchup{"CHI": {SacksAllowed: model.Float(3.1)}}}

			_, ok := rules.StreamerSpotlight{}.Evaluate(&dst, env(daux, dc))
			So(ok, ShouldBeTrue)
		})
	})
}

func TestHandcuffHeat(t *testing.T) {
	Convey("Given a questionable lead back", t, func() {
		aux := &rules.Aux{
			LeadBacks: map[string]rules.LeadBack{"DET": {PlayerID: "rb-lead", Status: rules.StatusQuestionable}},
			Roster:    &rules.Roster{Players: []rules.RosterPlayer{{PlayerID: "rb-lead", Team: "DET", Position: model.RB}}},
		}
		c := model.Candidate{PlayerID: "rb-cuff", Team: "DET", Position: model.RB, SnapShare: model.Float(0.35)}

		a, ok := rules.HandcuffHeat{}.Evaluate(&c, env(aux, nil))
		So(ok, ShouldBeTrue)
		So(a.Tag, ShouldEqual, model.TagInsurance)

		c.SnapShare = model.Float(0.10)
		_, ok = rules.HandcuffHeat{}.Evaluate(&c, env(aux, nil))
		So(ok, ShouldBeFalse)

		Convey("When the backfield is a committee", func() {
			aux.LeadBacks["DET"] = rules.LeadBack{PlayerID: "rb-lead", Status: rules.StatusActive, Committee: true}
			aux.Roster = nil
			a, ok := rules.HandcuffHeat{}.Evaluate(&c, env(aux, nil))
			So(ok, ShouldBeTrue)
			So(a.Tag, ShouldEqual, model.TagNone)
		})
	})
}

func TestByeGuard(t *testing.T) {
	Convey("Given a lone own TE on a week 7 bye", t, func() {
		aux := &rules.Aux{
			Roster: &rules.Roster{Players: []rules.RosterPlayer{
				{PlayerID: "te-a", Team: "SF", Position: model.TE},
			}},
			Byes:   map[string]int{"SF": 7, "LV": 10},
			League: &rules.League{StarterSlots: map[model.Position]int{model.TE: 1}},
		}
		cohort := population.FromStats(model.TE, nil).WithReference(0, 6)
		c := model.Candidate{PlayerID: "te-x", Team: "LV", Position: model.TE, Projection: &model.Projection{Mean: 7}}

		a, ok := rules.ByeGuard{}.Evaluate(&c, env(aux, cohort))
		So(ok, ShouldBeTrue)
		So(a.Tag, ShouldEqual, model.TagPreBid)

		Convey("When the candidate shares the bye", func() {
			s := c
			s.Team = "SF"
			_, ok := rules.ByeGuard{}.Evaluate(&s, env(aux, cohort))
			So(ok, ShouldBeFalse)
		})

		Convey("When the candidate projects below replacement", func() {
			low := c
			low.Projection = &model.Projection{Mean: 3}
			_, ok := rules.ByeGuard{}.Evaluate(&low, env(aux, cohort))
			So(ok, ShouldBeFalse)
		})
	})
}

func TestSet(t *testing.T) {
	Convey("Given the full rule set", t, func() {
		s := rules.NewSet()
		So(len(s.All()), ShouldEqual, len(model.Rules()))

		enabled := s.Enabled(model.RuleByeGuard, model.RuleRedZone)
		So(len(enabled), ShouldEqual, len(model.Rules())-2)
		for _, e := range enabled {
			So(e.ID(), ShouldNotEqual, model.RuleByeGuard)
		}
		So(len(s.All()), ShouldEqual, len(model.Rules()))
	})

	Convey("Given a custom set", t, func() {
		s := rules.NewSetOf(rules.RedZone{}, rules.RoleSpike{})
		all := s.All()
		So(len(all), ShouldEqual, 2)
		So(all[0].ID(), ShouldEqual, model.RuleRedZone)
		So(len(s.Enabled(model.RuleRedZone)), ShouldEqual, 1)
	})
}
