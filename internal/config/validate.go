package config

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/okian/waiverintel/internal/domain/model"
)

var knownWeights = map[string]bool{
	WeightRoleDelta:    true,
	WeightOppShare:     true,
	WeightRedZone:      true,
	WeightNextWeekProj: true,
	WeightTrendSlope:   true,
	WeightRosterFit:    true,
	WeightBustRisk:     true,
}

var metricName = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)

// Validate rejects configuration defects. The first defect found is
// returned as a *ValidationError.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("log_level", "unknown level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return invalid("log_format", "must be text or json, got %q", c.LogFormat)
	}
	if c.Addr == "" {
		return invalid("addr", "must not be empty")
	}
	if c.WorkerCount < 1 {
		return invalid("worker_count", "must be positive, got %d", c.WorkerCount)
	}
	if c.RunnerCount < 1 {
		return invalid("runner_count", "must be positive, got %d", c.RunnerCount)
	}
	if c.QueueSize < 1 {
		return invalid("queue_size", "must be positive, got %d", c.QueueSize)
	}

	if err := c.validateScoring(); err != nil {
		return err
	}
	if err := c.validateCooldown(); err != nil {
		return err
	}
	if err := c.validateRules(); err != nil {
		return err
	}

	if c.Bidding.ValuePerPoint <= 0 {
		return invalid("bidding.value_per_point", "must be positive")
	}
	if c.Bidding.SeasonFinalWeek < 1 {
		return invalid("bidding.season_final_week", "must be positive")
	}

	if c.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			return invalid("schedule.cron", "%v", err)
		}
	}
	if c.Schedule.Week < 0 {
		return invalid("schedule.week", "must not be negative")
	}
	if !metricName.MatchString(c.Metrics.Namespace) {
		return invalid("metrics.namespace", "not a valid metric prefix: %q", c.Metrics.Namespace)
	}
	for k := range c.Metrics.Labels {
		if !metricName.MatchString(k) || strings.HasPrefix(k, "__") {
			return invalid("metrics.labels", "invalid label name %q", k)
		}
	}
	if len(c.Schedule.Leagues) > 0 && c.Schedule.Week < 1 {
		return invalid("schedule.week", "must be at least 1 when schedule.leagues is set")
	}
	return nil
}

func (c *Config) validateScoring() error {
	weights := c.Scoring.Weights.named()
	for _, k := range sortedKeys(weights) {
		v := weights[k]
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("scoring.weights."+k, "must be a non-negative number, got %v", v)
		}
	}
	t := c.Scoring.Tiers
	if !(t.A > t.B && t.B > t.C) {
		return invalid("scoring.tiers", "must be strictly ordered a > b > c, got %v/%v/%v", t.A, t.B, t.C)
	}
	return nil
}

// checkWeightKeys rejects keys under scoring.weights that name no
// coefficient. Struct decoding alone would drop them silently.
func checkWeightKeys(keys []string) error {
	for _, k := range keys {
		if !knownWeights[k] {
			return invalid("scoring.weights."+k, "unknown weight")
		}
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Config) validateCooldown() error {
	cd := c.Cooldown
	if cd.Window <= 0 {
		return invalid("cooldown.window", "must be positive, got %s", cd.Window)
	}
	if !(cd.Threshold > 0 && cd.Threshold <= 1) {
		return invalid("cooldown.threshold", "must be in (0, 1], got %v", cd.Threshold)
	}
	if cd.MaxEntries < 1 {
		return invalid("cooldown.max_entries", "must be positive")
	}
	switch cd.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return invalid("redis.addr", "required for the redis backend")
		}
	default:
		return invalid("cooldown.backend", "must be memory or redis, got %q", cd.Backend)
	}
	return nil
}

func (c *Config) validateRules() error {
	for _, id := range c.Rules.Disabled {
		if !model.KnownRule(id) {
			return invalid("rules.disabled", "unknown rule %q", id)
		}
	}
	for league, ids := range c.Rules.Leagues {
		for _, id := range ids {
			if !model.KnownRule(id) {
				return invalid("rules.leagues."+league, "unknown rule %q", id)
			}
		}
	}
	return nil
}
