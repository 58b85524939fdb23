package model_test

import (
	"testing"
	"time"

	model "github.com/okian/waiverintel/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestCandidateValue(t *testing.T) {
	convey.Convey("Given a candidate with partial usage data", t, func() {
		c := model.Candidate{
			PlayerID:         "p1",
			Position:         model.WR,
			SnapShareDelta:   model.Float(0.10),
			RouteShareDelta:  model.Float(0.25),
			RedZoneTouchesL2: model.Int(1),
		}

		convey.Convey("When reading role delta", func() {
			v, ok := c.Value(model.RoleDelta)

			convey.Convey("Then it should take the larger present delta", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(v, convey.ShouldEqual, 0.25)
			})
		})

		convey.Convey("When reading red zone with only touches present", func() {
			v, ok := c.Value(model.RedZone)

			convey.Convey("Then it should count the present input only", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(v, convey.ShouldEqual, 1.0)
			})
		})

		convey.Convey("When reading components with no inputs", func() {
			_, oppOK := c.Value(model.OppShare)
			_, projOK := c.Value(model.NextWeekProj)
			_, slopeOK := c.Value(model.TrendSlope)

			convey.Convey("Then they should report absence rather than zero", func() {
				convey.So(oppOK, convey.ShouldBeFalse)
				convey.So(projOK, convey.ShouldBeFalse)
				convey.So(slopeOK, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When checking role data", func() {
			empty := model.Candidate{}
			convey.So(c.HasRoleData(), convey.ShouldBeTrue)
			convey.So(empty.HasRoleData(), convey.ShouldBeFalse)
		})
	})
}

func TestParsePosition(t *testing.T) {
	convey.Convey("Given raw position strings", t, func() {
		p, ok := model.ParsePosition(" wr ")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(p, convey.ShouldEqual, model.WR)

		p, ok = model.ParsePosition("DEF")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(p, convey.ShouldEqual, model.DST)

		_, ok = model.ParsePosition("K")
		convey.So(ok, convey.ShouldBeFalse)
	})
}

func TestNewAlert(t *testing.T) {
	convey.Convey("Given a candidate and an alert spec", t, func() {
		c := model.Candidate{PlayerID: "p9", Name: "Backup Back", LeagueID: "L1", Week: 6, Position: model.RB}
		bullets := []string{"Starter on IR/Out/Doubtful"}
		at := time.Date(2025, 10, 14, 12, 0, 0, 0, time.UTC)

		a := model.NewAlert(&c, model.AlertSpec{
			Rule:      model.RuleInjuryVacuum,
			Title:     "Injury Vacuum",
			Tier:      model.TierB,
			At:        at,
			Tag:       model.TagBlock,
			Rationale: bullets,
		})

		convey.Convey("Then it should carry candidate identity and rule urgency", func() {
			convey.So(a.ID, convey.ShouldNotBeEmpty)
			convey.So(a.PlayerID, convey.ShouldEqual, "p9")
			convey.So(a.LeagueID, convey.ShouldEqual, "L1")
			convey.So(a.Week, convey.ShouldEqual, 6)
			convey.So(a.Urgency, convey.ShouldEqual, model.UrgencyImmediate)
			convey.So(a.Tag, convey.ShouldEqual, model.TagBlock)
		})

		convey.Convey("Then later edits to the caller's bullets should not leak in", func() {
			bullets[0] = "changed"
			convey.So(a.Rationale[0], convey.ShouldEqual, "Starter on IR/Out/Doubtful")
		})

		convey.Convey("Then two alerts should get distinct ids", func() {
			b := model.NewAlert(&c, model.AlertSpec{Rule: model.RuleRedZone})
			convey.So(b.ID, convey.ShouldNotEqual, a.ID)
			convey.So(b.Urgency, convey.ShouldEqual, model.UrgencyNextCycle)
		})
	})
}

func TestTier(t *testing.T) {
	convey.Convey("Given the tier ladder", t, func() {
		convey.So(model.TierA.Rank(), convey.ShouldBeGreaterThan, model.TierB.Rank())
		convey.So(model.TierB.Rank(), convey.ShouldBeGreaterThan, model.TierC.Rank())
		convey.So(model.TierC.Rank(), convey.ShouldBeGreaterThan, model.TierNone.Rank())
		convey.So(model.TierNone.String(), convey.ShouldEqual, "none")
		convey.So(model.KnownRule("bye_guard"), convey.ShouldBeTrue)
		convey.So(model.KnownRule("vibes"), convey.ShouldBeFalse)
	})
}

func TestScoreResultClone(t *testing.T) {
	convey.Convey("Given a score result with components", t, func() {
		orig := model.ScoreResult{PlayerID: "p1", Score: 0.6, Components: map[string]float64{"role_delta": 0.2}}
		cp := orig.Clone()
		cp.Components["role_delta"] = 9

		convey.Convey("Then the clone should not share its map", func() {
			convey.So(orig.Components["role_delta"], convey.ShouldEqual, 0.2)
			convey.So(cp.PlayerID, convey.ShouldEqual, "p1")
		})
	})
}
