// Package config defines the engine configuration and how it is loaded.
//
// Values are layered: defaults from New, then an optional YAML file named by
// WAIVER_CONFIG, then WAIVER_* environment variables. A double underscore
// in an env name descends one level, so WAIVER_COOLDOWN__WINDOW sets
// cooldown.window.
package config

import (
	"runtime"
	"time"

	"github.com/okian/waiverintel/internal/domain/model"
	"github.com/okian/waiverintel/internal/domain/scoring"
)

// Cooldown backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Keys accepted under scoring.weights.
const (
	WeightRoleDelta    = string(model.RoleDelta)
	WeightOppShare     = string(model.OppShare)
	WeightRedZone      = string(model.RedZone)
	WeightNextWeekProj = string(model.NextWeekProj)
	WeightTrendSlope   = string(model.TrendSlope)
	WeightRosterFit    = scoring.TermRosterFit
	WeightBustRisk     = scoring.TermBustRisk
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of sweep workers per pass.
	WorkerCount int `koanf:"worker_count"`
	// RunnerCount bounds how many queued passes run at once.
	RunnerCount int `koanf:"runner_count"`
	// QueueSize bounds pending pass requests.
	QueueSize int `koanf:"queue_size"`

	// DataDir holds candidate batch files.
	DataDir string `koanf:"data_dir"`

	Schedule ScheduleConfig `koanf:"schedule"`
	Scoring  ScoringConfig  `koanf:"scoring"`
	Bidding  BiddingConfig  `koanf:"bidding"`
	Cooldown CooldownConfig `koanf:"cooldown"`
	Redis    RedisConfig    `koanf:"redis"`
	Rules    RulesConfig    `koanf:"rules"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// ScheduleConfig drives the periodic passes of the serve command.
type ScheduleConfig struct {
	// Cron is a standard five-field cron expression. Empty disables it.
	Cron string `koanf:"cron"`
	// Week is the fantasy week scheduled passes evaluate.
	Week int `koanf:"week"`
	// Leagues lists the league ids evaluated on each tick.
	Leagues []string `koanf:"leagues"`
}

// ScoringConfig holds the composite formula settings.
type ScoringConfig struct {
	Weights WeightsConfig `koanf:"weights"`
	Tiers   TierConfig    `koanf:"tiers"`
}

// WeightsConfig names every formula coefficient. BustRisk is subtracted.
type WeightsConfig struct {
	RoleDelta    float64 `koanf:"role_delta"`
	OppShare     float64 `koanf:"opp_share"`
	RedZone      float64 `koanf:"red_zone"`
	NextWeekProj float64 `koanf:"next_week_proj"`
	TrendSlope   float64 `koanf:"trend_slope"`
	RosterFit    float64 `koanf:"roster_fit"`
	BustRisk     float64 `koanf:"bust_risk"`
}

func (w WeightsConfig) named() map[string]float64 {
	return map[string]float64{
		WeightRoleDelta:    w.RoleDelta,
		WeightOppShare:     w.OppShare,
		WeightRedZone:      w.RedZone,
		WeightNextWeekProj: w.NextWeekProj,
		WeightTrendSlope:   w.TrendSlope,
		WeightRosterFit:    w.RosterFit,
		WeightBustRisk:     w.BustRisk,
	}
}

// TierConfig holds the inclusive tier lower bounds.
type TierConfig struct {
	A float64 `koanf:"a"`
	B float64 `koanf:"b"`
	C float64 `koanf:"c"`
}

// BiddingConfig holds the FAAB calculator settings.
type BiddingConfig struct {
	ValuePerPoint   float64 `koanf:"value_per_point"`
	SeasonFinalWeek int     `koanf:"season_final_week"`
}

// CooldownConfig holds the suppression gate settings.
type CooldownConfig struct {
	Window    time.Duration `koanf:"window"`
	Threshold float64       `koanf:"threshold"`
	// Backend is memory or redis.
	Backend string `koanf:"backend"`
	// SnapshotPath persists the memory backend between passes.
	SnapshotPath string `koanf:"snapshot_path"`
	MaxEntries   int    `koanf:"max_entries"`
}

// RedisConfig is used when the cooldown backend is redis.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

// RulesConfig toggles rules off globally or per league.
type RulesConfig struct {
	Disabled []string            `koanf:"disabled"`
	Leagues  map[string][]string `koanf:"leagues"`
}

// MetricsConfig shapes the Prometheus series served on /metrics.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
	// Namespace prefixes every metric name.
	Namespace string `koanf:"namespace"`
	// Labels are constant labels added to every series.
	Labels map[string]string `koanf:"labels"`
}

// New creates a Config populated with defaults.
func New() *Config {
	w := scoring.DefaultWeights()
	t := scoring.DefaultThresholds()
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		Addr:        ":9080",
		WorkerCount: runtime.NumCPU(),
		RunnerCount: 2,
		QueueSize:   256,
		DataDir:     "data",
		Schedule: ScheduleConfig{
			Cron: "0 9 * * 2",
		},
		Scoring: ScoringConfig{
			Weights: WeightsConfig{
				RoleDelta:    w.RoleDelta,
				OppShare:     w.OppShare,
				RedZone:      w.RedZone,
				NextWeekProj: w.NextWeekProj,
				TrendSlope:   w.TrendSlope,
				RosterFit:    w.RosterFit,
				BustRisk:     w.BustRisk,
			},
			Tiers: TierConfig{A: t.A, B: t.B, C: t.C},
		},
		Bidding: BiddingConfig{
			ValuePerPoint:   10,
			SeasonFinalWeek: 17,
		},
		Cooldown: CooldownConfig{
			Window:     7 * 24 * time.Hour,
			Threshold:  0.15,
			Backend:    BackendMemory,
			MaxEntries: 50_000,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "waiver:cooldown",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "waiver",
		},
	}
}

// Weights converts the configured coefficients.
func (c *Config) Weights() scoring.Weights {
	w := c.Scoring.Weights
	return scoring.Weights{
		RoleDelta:    w.RoleDelta,
		OppShare:     w.OppShare,
		RedZone:      w.RedZone,
		NextWeekProj: w.NextWeekProj,
		TrendSlope:   w.TrendSlope,
		RosterFit:    w.RosterFit,
		BustRisk:     w.BustRisk,
	}
}

// Thresholds converts the configured tier bounds.
func (c *Config) Thresholds() scoring.Thresholds {
	return scoring.Thresholds{A: c.Scoring.Tiers.A, B: c.Scoring.Tiers.B, C: c.Scoring.Tiers.C}
}

// DisabledRules returns the globally disabled rule ids.
func (c *Config) DisabledRules() []model.RuleID {
	return ruleIDs(c.Rules.Disabled)
}

// LeagueRules returns the per-league disabled rule ids.
func (c *Config) LeagueRules() map[string][]model.RuleID {
	out := make(map[string][]model.RuleID, len(c.Rules.Leagues))
	for league, ids := range c.Rules.Leagues {
		out[league] = ruleIDs(ids)
	}
	return out
}

func ruleIDs(names []string) []model.RuleID {
	out := make([]model.RuleID, 0, len(names))
	for _, n := range names {
		out = append(out, model.RuleID(n))
	}
	return out
}
