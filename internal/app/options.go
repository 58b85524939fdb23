package service

import (
	"time"

	"github.com/okian/waiverintel/internal/adapters/source"
	"github.com/okian/waiverintel/internal/domain/bidding"
	"github.com/okian/waiverintel/internal/domain/cooldown"
	"github.com/okian/waiverintel/internal/domain/model"
	"github.com/okian/waiverintel/internal/domain/rules"
	"github.com/okian/waiverintel/internal/domain/scoring"
	"github.com/okian/waiverintel/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of sweep workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithRunnerCount sets how many queued passes may run at once.
func WithRunnerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.runnerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending pass requests.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource sets where batches are loaded from.
func WithSource(src source.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithStore sets the cooldown store. Stores implementing
// cooldown.Lifecycle are loaded and flushed around every pass.
func WithStore(store cooldown.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithGateOptions configures the cooldown gate.
func WithGateOptions(opts ...cooldown.Option) Option {
	return func(s *Service) {
		s.gateOpts = append(s.gateOpts, opts...)
	}
}

// WithScorer replaces the composite scorer.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithRuleSet replaces the rule set.
func WithRuleSet(set *rules.Set) Option {
	return func(s *Service) {
		if set != nil {
			s.rules = set
		}
	}
}

// WithBidder replaces the bid calculator.
func WithBidder(b *bidding.Calculator) Option {
	return func(s *Service) {
		if b != nil {
			s.bidder = b
		}
	}
}

// WithDisabledRules turns rules off for every league.
func WithDisabledRules(ids ...model.RuleID) Option {
	return func(s *Service) {
		s.disabled = append(s.disabled, ids...)
	}
}

// WithLeagueRules turns rules off per league id.
func WithLeagueRules(disabled map[string][]model.RuleID) Option {
	return func(s *Service) {
		for league, ids := range disabled {
			s.leagueDisabled[league] = append(s.leagueDisabled[league], ids...)
		}
	}
}

// WithClock replaces the time source of passes and the cooldown gate.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
