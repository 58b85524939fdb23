package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/waiverintel/internal/config"
	"github.com/okian/waiverintel/internal/domain/model"
	"github.com/okian/waiverintel/internal/domain/scoring"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"WAIVER_CONFIG",
	"WAIVER_ADDR",
	"WAIVER_WORKER_COUNT",
	"WAIVER_QUEUE_SIZE",
	"WAIVER_COOLDOWN__WINDOW",
	"WAIVER_COOLDOWN__THRESHOLD",
	"WAIVER_COOLDOWN__BACKEND",
	"WAIVER_SCORING__TIERS__A",
	"WAIVER_SCHEDULE__LEAGUES",
}

func clearConfigEnvVars(t *testing.T) {
	for _, k := range configEnvVars {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "waiver.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Cooldown.Window, convey.ShouldEqual, 7*24*time.Hour)
			convey.So(cfg.Cooldown.Threshold, convey.ShouldEqual, 0.15)
			convey.So(cfg.Cooldown.Backend, convey.ShouldEqual, config.BackendMemory)
			convey.So(cfg.Weights(), convey.ShouldResemble, scoring.DefaultWeights())
			convey.So(cfg.Thresholds(), convey.ShouldResemble, scoring.DefaultThresholds())
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars(t)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 256)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeConfig(t, `
addr: ":9090"
worker_count: 4
scoring:
  weights:
    role_delta: 0.5
  tiers:
    a: 0.8
    b: 0.5
    c: 0.2
cooldown:
  window: 72h
rules:
  disabled: [bye_guard]
  leagues:
    L1: [red_zone, handcuff_heat]
schedule:
  week: 6
  leagues: [L1, L2]
metrics:
  enabled: false
  labels:
    deployment: canary
`)
			cfg, err := config.Load(ctx, path)

			convey.Convey("Then nested values should be read", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.Weights().RoleDelta, convey.ShouldEqual, 0.5)
				convey.So(cfg.Weights().OppShare, convey.ShouldEqual, 0.20)
				convey.So(cfg.Thresholds().A, convey.ShouldEqual, 0.8)
				convey.So(cfg.Cooldown.Window, convey.ShouldEqual, 72*time.Hour)
				convey.So(cfg.DisabledRules(), convey.ShouldResemble, []model.RuleID{model.RuleByeGuard})
				convey.So(cfg.LeagueRules()["L1"], convey.ShouldResemble, []model.RuleID{model.RuleRedZone, model.RuleHandcuffHeat})
				convey.So(cfg.Schedule.Leagues, convey.ShouldResemble, []string{"L1", "L2"})
				convey.So(cfg.Metrics.Enabled, convey.ShouldBeFalse)
				convey.So(cfg.Metrics.Namespace, convey.ShouldEqual, "waiver")
				convey.So(cfg.Metrics.Labels, convey.ShouldResemble, map[string]string{"deployment": "canary"})
			})
		})

		convey.Convey("When the file is named by WAIVER_CONFIG and env overrides it", func() {
			path := writeConfig(t, `
addr: ":9090"
cooldown:
  threshold: 0.3
`)
			t.Setenv("WAIVER_CONFIG", path)
			t.Setenv("WAIVER_ADDR", ":8080")
			t.Setenv("WAIVER_COOLDOWN__WINDOW", "48h")

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then environment variables should win over file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Cooldown.Threshold, convey.ShouldEqual, 0.3)
				convey.So(cfg.Cooldown.Window, convey.ShouldEqual, 48*time.Hour)
			})
		})

		convey.Convey("When the file names an unknown weight", func() {
			path := writeConfig(t, `
scoring:
  weights:
    hype: 0.3
`)
			cfg, err := config.Load(ctx, path)

			convey.Convey("Then it should be rejected with the key", func() {
				var verr *config.ValidationError
				convey.So(errors.As(err, &verr), convey.ShouldBeTrue)
				convey.So(verr.Field, convey.ShouldEqual, "scoring.weights.hype")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the file is invalid YAML", func() {
			path := writeConfig(t, `invalid: yaml: content: [`)
			cfg, err := config.Load(ctx, path)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the file does not exist", func() {
			cfg, err := config.Load(ctx, "/non/existent/file.yaml")
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When a numeric env var does not parse", func() {
			t.Setenv("WAIVER_WORKER_COUNT", "not_a_number")
			cfg, err := config.Load(ctx, "")
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given configuration defects", t, func() {
		cases := []struct {
			name   string
			field  string
			mutate func(c *config.Config)
		}{
			{"negative weight", "scoring.weights.red_zone", func(c *config.Config) { c.Scoring.Weights.RedZone = -0.1 }},
			{"unordered tiers", "scoring.tiers", func(c *config.Config) { c.Scoring.Tiers.B = c.Scoring.Tiers.A }},
			{"zero window", "cooldown.window", func(c *config.Config) { c.Cooldown.Window = 0 }},
			{"zero threshold", "cooldown.threshold", func(c *config.Config) { c.Cooldown.Threshold = 0 }},
			{"threshold above one", "cooldown.threshold", func(c *config.Config) { c.Cooldown.Threshold = 1.5 }},
			{"unknown rule", "rules.disabled", func(c *config.Config) { c.Rules.Disabled = []string{"vibes"} }},
			{"unknown league rule", "rules.leagues.L1", func(c *config.Config) {
				c.Rules.Leagues = map[string][]string{"L1": {"vibes"}}
			}},
			{"unknown backend", "cooldown.backend", func(c *config.Config) { c.Cooldown.Backend = "etcd" }},
			{"redis without addr", "redis.addr", func(c *config.Config) {
				c.Cooldown.Backend = config.BackendRedis
				c.Redis.Addr = ""
			}},
			{"bad cron", "schedule.cron", func(c *config.Config) { c.Schedule.Cron = "every tuesday" }},
			{"scheduled leagues without a week", "schedule.week", func(c *config.Config) { c.Schedule.Leagues = []string{"L1"} }},
			{"negative week", "schedule.week", func(c *config.Config) { c.Schedule.Week = -1 }},
			{"bad metrics namespace", "metrics.namespace", func(c *config.Config) { c.Metrics.Namespace = "waiver-engine" }},
			{"bad metrics label", "metrics.labels", func(c *config.Config) {
				c.Metrics.Labels = map[string]string{"__reserved": "x"}
			}},
			{"empty addr", "addr", func(c *config.Config) { c.Addr = "" }},
			{"bad log format", "log_format", func(c *config.Config) { c.LogFormat = "xml" }},
		}

		for _, tc := range cases {
			convey.Convey("When the config has "+tc.name, func() {
				cfg := config.New()
				tc.mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then a validation error should name "+tc.field, func() {
					var verr *config.ValidationError
					convey.So(errors.As(err, &verr), convey.ShouldBeTrue)
					convey.So(verr.Field, convey.ShouldEqual, tc.field)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When the threshold is exactly one", func() {
			cfg := config.New()
			cfg.Cooldown.Threshold = 1
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
