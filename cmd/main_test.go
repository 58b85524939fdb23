package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/waiverintel/internal/adapters/repository"
	"github.com/okian/waiverintel/internal/config"
	"github.com/okian/waiverintel/internal/domain/cooldown"
	"github.com/okian/waiverintel/internal/domain/model"
	"github.com/okian/waiverintel/internal/domain/types"
	"github.com/okian/waiverintel/pkg/logger"
)

func wr(id string, routeDelta float64) model.Candidate {
	return model.Candidate{
		PlayerID:        id,
		Position:        model.WR,
		RouteShareDelta: model.Float(routeDelta),
		TPRR:            model.Float(0.22),
		RosteredPct:     model.Float(0.12),
		Projection:      &model.Projection{Mean: 10},
	}
}

func writeBatch(t *testing.T, dir string) {
	b := types.Batch{
		LeagueID:      "L1",
		Week:          6,
		FAABRemaining: 100,
		Candidates:    []model.Candidate{wr("w1", 0), wr("w2", 0), wr("w3", 0), wr("w4", 0), wr("w5", 0), wr("w6", 0), wr("star", 0.25)},
	}
	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal batch: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "L1_w6.json"), raw, 0o600); err != nil {
		t.Fatalf("write batch: %v", err)
	}
}

func TestRunCommand(t *testing.T) {
	convey.Convey("Given a batch on disk", t, func() {
		t.Setenv("WAIVER_CONFIG", "")
		dir := t.TempDir()
		writeBatch(t, dir)

		convey.Convey("When the run command evaluates it", func() {
			var out bytes.Buffer
			root := newRootCmd()
			root.SetOut(&out)
			root.SetArgs([]string{"run", "--league", "L1", "--week", "6", "--data-dir", dir})
			err := root.ExecuteContext(context.Background())

			convey.Convey("Then the JSON report should be printed", func() {
				convey.So(err, convey.ShouldBeNil)
				var report types.Report
				convey.So(json.Unmarshal(out.Bytes(), &report), convey.ShouldBeNil)
				convey.So(report.LeagueID, convey.ShouldEqual, "L1")
				convey.So(report.Trigger, convey.ShouldEqual, types.TriggerCLI)
				convey.So(len(report.Decisions), convey.ShouldEqual, 1)
				convey.So(report.Decisions[0].Alert.PlayerID, convey.ShouldEqual, "star")
			})
		})

		convey.Convey("When the week has no batch", func() {
			root := newRootCmd()
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})
			root.SetArgs([]string{"run", "--league", "L1", "--week", "7", "--data-dir", dir})
			err := root.ExecuteContext(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestBuildStore(t *testing.T) {
	convey.Convey("Given configuration for each backend", t, func() {
		ctx := context.Background()
		log := logger.Nop()

		convey.Convey("When the backend is memory", func() {
			cfg := config.New()
			store, closeStore, err := buildStore(ctx, cfg, log)
			defer closeStore()

			convey.Convey("Then a memory store should be built", func() {
				convey.So(err, convey.ShouldBeNil)
				_, ok := store.(*cooldown.MemoryStore)
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the backend is redis", func() {
			mr := miniredis.RunT(t)
			cfg := config.New()
			cfg.Cooldown.Backend = config.BackendRedis
			cfg.Redis.Addr = mr.Addr()
			store, closeStore, err := buildStore(ctx, cfg, log)

			convey.Convey("Then a redis store should be built", func() {
				convey.So(err, convey.ShouldBeNil)
				defer closeStore()
				_, ok := store.(*repository.RedisStore)
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When redis is unreachable", func() {
			cfg := config.New()
			cfg.Cooldown.Backend = config.BackendRedis
			cfg.Redis.Addr = "127.0.0.1:1"
			_, _, err := buildStore(ctx, cfg, log)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestBuildService(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		svc, closeStore, err := buildService(context.Background(), config.New(), logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		defer closeStore()

		convey.Convey("Then the service should evaluate batches", func() {
			report, err := svc.RunPass(context.Background(), types.Batch{LeagueID: "L1", Week: 6})
			convey.So(err, convey.ShouldBeNil)
			convey.So(report.Decisions, convey.ShouldBeEmpty)
		})
	})
}
