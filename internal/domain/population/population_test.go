package population_test

import (
	"testing"

	"github.com/okian/waiverintel/internal/domain/model"
	"github.com/okian/waiverintel/internal/domain/population"
	. "github.com/smartystreets/goconvey/convey"
)

func wr(id string, route, slope, proj float64) model.Candidate {
	return model.Candidate{
		PlayerID:        id,
		Position:        model.WR,
		RouteShareDelta: model.Float(route),
		TrendSlope:      model.Float(slope),
		Projection:      &model.Projection{Mean: proj},
	}
}

func TestStats(t *testing.T) {
	Convey("Given raw component values", t, func() {
		Convey("When the population has spread", func() {
			s := population.NewStats([]float64{5, 15})

			Convey("Then mean and population stdev should be exact", func() {
				So(s.N, ShouldEqual, 2)
				So(s.Mean, ShouldEqual, 10.0)
				So(s.StdDev, ShouldEqual, 5.0)
				So(s.Z(20), ShouldEqual, 2.0)
			})
		})

		Convey("When the population has one member", func() {
			s := population.NewStats([]float64{42})

			Convey("Then every z-score should be neutral", func() {
				So(s.Degenerate(), ShouldBeTrue)
				So(s.Z(100), ShouldEqual, 0.0)
			})
		})

		Convey("When the population has zero variance", func() {
			s := population.NewStats([]float64{3, 3, 3})

			Convey("Then every z-score should be neutral", func() {
				So(s.Degenerate(), ShouldBeTrue)
				So(s.Z(7), ShouldEqual, 0.0)
			})
		})

		Convey("When the population is empty", func() {
			s := population.NewStats(nil)
			So(s.Z(1), ShouldEqual, 0.0)
		})
	})
}

func TestBuild(t *testing.T) {
	Convey("Given a mixed batch", t, func() {
		batch := []model.Candidate{
			wr("a", 0.10, 0.5, 8),
			wr("b", 0.30, 1.5, 12),
			wr("c", 0.20, 1.0, 10),
			{PlayerID: "q", Position: model.QB},
		}
		ctx := population.Build("L1", 5, batch)

		Convey("Then each position should have its own cohort", func() {
			c, ok := ctx.Cohort(model.WR)
			So(ok, ShouldBeTrue)
			So(c.Stats(model.RoleDelta).N, ShouldEqual, 3)
			So(c.Stats(model.RoleDelta).Mean, ShouldAlmostEqual, 0.20, 1e-9)

			_, ok = ctx.Cohort(model.TE)
			So(ok, ShouldBeFalse)
		})

		Convey("Then absent inputs should be excluded from the stats", func() {
			So(ctx.Size(model.QB, model.RoleDelta), ShouldEqual, 0)
			q, _ := ctx.Cohort(model.QB)
			So(q.Z(model.RoleDelta, 1), ShouldEqual, 0.0)
			_, ok := q.ReplacementLevel()
			So(ok, ShouldBeFalse)
		})

		Convey("Then median slope, replacement and ranks should come from the cohort", func() {
			c, _ := ctx.Cohort(model.WR)
			slope, ok := c.MedianSlope()
			So(ok, ShouldBeTrue)
			So(slope, ShouldEqual, 1.0)

			repl, ok := c.ReplacementLevel()
			So(ok, ShouldBeTrue)
			So(repl, ShouldEqual, 10.0)

			rank, ok := c.ProjectionRank("b")
			So(ok, ShouldBeTrue)
			So(rank, ShouldEqual, 1)
			rank, _ = c.ProjectionRank("a")
			So(rank, ShouldEqual, 3)
		})

		Convey("Then building should not alter the input batch", func() {
			So(*batch[0].RouteShareDelta, ShouldEqual, 0.10)
		})
	})

	Convey("Given an even-sized cohort", t, func() {
		ctx := population.Build("L1", 5, []model.Candidate{
			wr("a", 0, 1, 8), wr("b", 0, 2, 9), wr("c", 0, 3, 10), wr("d", 0, 4, 11),
		})
		c, _ := ctx.Cohort(model.WR)

		Convey("Then the median should be the upper middle value", func() {
			slope, _ := c.MedianSlope()
			So(slope, ShouldEqual, 3.0)
			repl, _ := c.ReplacementLevel()
			So(repl, ShouldEqual, 10.0)
		})
	})

	Convey("Given precomputed stats", t, func() {
		c := population.FromStats(model.WR, map[model.Component]population.Stats{
			model.RoleDelta: {N: 10, Mean: 10, StdDev: 5},
		})

		Convey("Then z should use them directly", func() {
			So(c.Z(model.RoleDelta, 20), ShouldEqual, 2.0)
			So(c.Z(model.OppShare, 20), ShouldEqual, 0.0)
		})

		Convey("Then reference figures can be attached without touching the original", func() {
			ref := c.WithReference(0.4, 11)
			m, ok := ref.MedianSlope()
			So(ok, ShouldBeTrue)
			So(m, ShouldEqual, 0.4)
			_, ok = c.MedianSlope()
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a nil context", t, func() {
		var ctx *population.Context
		_, ok := ctx.Cohort(model.WR)
		So(ok, ShouldBeFalse)
	})
}
