// Package service runs evaluation passes: it wires population, scoring,
// rules, bidding and the cooldown gate, and serves queued pass requests.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/waiverintel/internal/adapters/mq/queue"
	"github.com/okian/waiverintel/internal/adapters/mq/worker"
	"github.com/okian/waiverintel/internal/adapters/source"
	"github.com/okian/waiverintel/internal/domain/bidding"
	"github.com/okian/waiverintel/internal/domain/cooldown"
	"github.com/okian/waiverintel/internal/domain/model"
	"github.com/okian/waiverintel/internal/domain/population"
	"github.com/okian/waiverintel/internal/domain/rules"
	"github.com/okian/waiverintel/internal/domain/scoring"
	"github.com/okian/waiverintel/internal/domain/types"
	"github.com/okian/waiverintel/pkg/logger"
	"github.com/okian/waiverintel/pkg/metrics"
)

const (
	defaultRunnerCount = 2
	defaultQueueSize   = 256
)

// Service evaluates candidate batches.
type Service struct {
	mu sync.RWMutex

	// Core components
	source source.Source
	store  cooldown.Store
	gate   *cooldown.Gate
	scorer scoring.Scorer
	rules  *rules.Set
	bidder *bidding.Calculator
	pool   *worker.Pool
	queue  *queue.InMemoryQueue

	// Configuration
	workerCount    int
	runnerCount    int
	queueSize      int
	gateOpts       []cooldown.Option
	disabled       []model.RuleID
	leagueDisabled map[string][]model.RuleID
	now            func() time.Time

	// State
	started bool
	runners sync.WaitGroup
	cancel  context.CancelFunc
	reports map[string]types.Report

	logger logger.Logger
}

// New constructs a Service. Unset collaborators get defaults: an
// in-memory cooldown store, the default scorer, rule set and bidder.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU(),
		runnerCount:    defaultRunnerCount,
		queueSize:      defaultQueueSize,
		leagueDisabled: make(map[string][]model.RuleID),
		now:            time.Now,
		reports:        make(map[string]types.Report),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger = logger.OrNop(s.logger)
	if s.store == nil {
		s.store = cooldown.NewMemoryStore(cooldown.WithMemoryClock(s.now))
	}
	if s.scorer == nil {
		s.scorer = scoring.NewWeightedScorer()
	}
	if s.rules == nil {
		s.rules = rules.NewSet()
	}
	if s.bidder == nil {
		s.bidder = bidding.New()
	}
	gateOpts := append([]cooldown.Option{
		cooldown.WithClock(s.now),
		cooldown.WithLogger(s.logger.Named("cooldown")),
	}, s.gateOpts...)
	s.gate = cooldown.NewGate(s.store, gateOpts...)
	s.pool = worker.NewPool(s.workerCount, worker.WithName("sweep"), worker.WithLogger(s.logger.Named("worker")))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	return s
}

// Start launches the pass runners that serve Submit.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if s.source == nil {
		return ErrNoSource
	}

	rctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	for i := 0; i < s.runnerCount; i++ {
		s.runners.Add(1)
		go s.runLoop(rctx, s.queue.Dequeue(rctx))
	}
	s.started = true
	s.logger.Info(ctx, "waiver service started",
		logger.Int("workers", s.workerCount),
		logger.Int("runners", s.runnerCount),
		logger.Int("queueSize", s.queueSize))
	return nil
}

// Stop closes the queue and waits for running passes to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	_ = s.queue.Close()
	s.mu.Unlock()

	s.runners.Wait()
	s.cancel()
	s.logger.Info(context.Background(), "waiver service stopped")
}

// Submit queues a pass. It returns false when the service is stopped, the
// queue is full, or the same (league, week) is already pending.
func (s *Service) Submit(ctx context.Context, req types.PassRequest) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return false
	}
	return s.queue.Enqueue(ctx, req)
}

func (s *Service) runLoop(ctx context.Context, reqs <-chan types.PassRequest) {
	defer s.runners.Done()
	for req := range reqs {
		if _, err := s.Run(ctx, req); err != nil {
			s.logger.Error(ctx, "queued pass failed",
				logger.String("league", req.LeagueID),
				logger.Int("week", req.Week),
				logger.Error(err))
		}
	}
}

// Run loads the batch for req from the source and evaluates it.
func (s *Service) Run(ctx context.Context, req types.PassRequest) (types.Report, error) {
	if s.source == nil {
		return types.Report{}, ErrNoSource
	}
	if req.LeagueID == "" || req.Week < 1 {
		return types.Report{}, fmt.Errorf("%w: league %q week %d", ErrInvalidRun, req.LeagueID, req.Week)
	}
	batch, err := s.source.Load(ctx, req.LeagueID, req.Week)
	if err != nil {
		metrics.RecordErrorByComponent("source", "load")
		return types.Report{}, fmt.Errorf("load batch: %w", err)
	}
	trigger := req.Trigger
	if trigger == "" {
		trigger = types.TriggerManual
	}
	return s.runPass(ctx, batch, trigger)
}

// RunPass evaluates a batch end to end. Per-item problems are reported in
// the result; the error is only set when the whole pass failed.
func (s *Service) RunPass(ctx context.Context, batch types.Batch) (types.Report, error) {
	return s.runPass(ctx, batch, types.TriggerManual)
}

// LastReport returns the most recent report for a (league, week).
func (s *Service) LastReport(leagueID string, week int) (types.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[reportKey(leagueID, week)]
	return r, ok
}

// Ready checks that the cooldown store can be reached.
func (s *Service) Ready(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

type sweepResult struct {
	score    model.ScoreResult
	alerts   []model.Alert
	failures []types.Failure
}

func (s *Service) runPass(ctx context.Context, batch types.Batch, trigger types.Trigger) (types.Report, error) {
	start := s.now()
	report := types.Report{
		PassID:     uuid.NewString(),
		LeagueID:   batch.LeagueID,
		Week:       batch.Week,
		Trigger:    trigger,
		StartedAt:  start,
		Candidates: len(batch.Candidates),
		Decisions:  []types.Decision{},
	}
	log := s.logger.With(
		logger.String("pass_id", report.PassID),
		logger.String("league", batch.LeagueID),
		logger.Int("week", batch.Week))

	lifecycle, hasLifecycle := s.store.(cooldown.Lifecycle)
	if hasLifecycle {
		if err := lifecycle.Load(ctx); err != nil {
			metrics.RecordPass(string(trigger), "failed", msSince(s.now, start))
			return report, fmt.Errorf("%w: load: %w", ErrLifecycle, err)
		}
	}

	pop := population.Build(batch.LeagueID, batch.Week, batch.Candidates)
	evaluators := s.rules.Enabled(s.disabledFor(batch)...)

	results := make([]sweepResult, len(batch.Candidates))
	jobErrs := s.pool.Run(ctx, len(batch.Candidates), func(_ context.Context, i int) error {
		results[i] = s.evaluate(&batch.Candidates[i], pop, evaluators, &batch, start)
		return nil
	})
	failedIdx := make(map[int]bool, len(jobErrs))
	for _, je := range jobErrs {
		failedIdx[je.Index] = true
		c := &batch.Candidates[je.Index]
		report.Failures = append(report.Failures, failure(c.PlayerID, "", batch.Week, types.StageSweep, je.Err))
	}

	for i := range results {
		if failedIdx[i] {
			continue
		}
		res := results[i]
		c := &batch.Candidates[i]
		report.Failures = append(report.Failures, res.failures...)
		metrics.RecordCandidateScored(res.score.Tier.String())

		for _, a := range res.alerts {
			metrics.RecordAlertFired(string(a.Rule))
			if a.Tier == model.TierNone {
				report.Filtered++
				metrics.RecordAlertSuppressed(metrics.ReasonTierNone)
				continue
			}
			bid := s.bidder.Compute(s.bidder.ForAlert(c, a, res.score.Score, batch.FAABRemaining,
				batch.NeedAt(c.Position), batch.NeedyManagers[c.Position], batch.OpponentWouldStart(c.PlayerID)))

			verdict, err := s.gate.Admit(ctx, cooldown.KeyFor(a, bid), res.score.Score)
			if err != nil {
				report.Failures = append(report.Failures, failure(c.PlayerID, a.Rule, a.Week, types.StageGate, err))
				report.Suppressed++
				metrics.RecordAlertSuppressed(metrics.ReasonConflict)
				continue
			}
			switch verdict {
			case cooldown.Allowed:
				report.Decisions = append(report.Decisions, types.Decision{Alert: a, Score: res.score.Clone(), Bid: bid})
				metrics.RecordAlertAdmitted(string(a.Rule), a.Tier.String(), bid.Median)
			case cooldown.SuppressedConflict:
				report.Suppressed++
				metrics.RecordAlertSuppressed(metrics.ReasonConflict)
			default:
				report.Suppressed++
				metrics.RecordAlertSuppressed(metrics.ReasonCooldown)
			}
		}
	}
	types.SortDecisions(report.Decisions)
	for _, f := range report.Failures {
		metrics.RecordPassFailure(string(f.Stage))
	}

	if _, err := s.gate.Purge(ctx); err != nil {
		log.Warn(ctx, "cooldown purge failed", logger.Error(err))
	}
	report.FinishedAt = s.now()
	if hasLifecycle {
		if err := lifecycle.Flush(ctx); err != nil {
			metrics.RecordPass(string(trigger), "failed", msSince(s.now, start))
			return report, fmt.Errorf("%w: flush: %w", ErrLifecycle, err)
		}
	}

	s.mu.Lock()
	s.reports[reportKey(batch.LeagueID, batch.Week)] = report
	s.mu.Unlock()

	metrics.RecordPass(string(trigger), "ok", msSince(s.now, start))
	log.Info(ctx, "pass complete",
		logger.String("trigger", string(trigger)),
		logger.Int("candidates", report.Candidates),
		logger.Int("decisions", len(report.Decisions)),
		logger.Int("suppressed", report.Suppressed),
		logger.Int("filtered", report.Filtered),
		logger.Int("failures", len(report.Failures)),
		logger.Duration("elapsed", report.FinishedAt.Sub(start)))
	return report, nil
}

// evaluate scores one candidate and runs every enabled rule. A panicking
// rule is reported without stopping the others.
func (s *Service) evaluate(c *model.Candidate, pop *population.Context, evaluators []rules.Evaluator, batch *types.Batch, at time.Time) sweepResult {
	cohort, _ := pop.Cohort(c.Position)
	res := sweepResult{score: s.scorer.Score(c, cohort)}
	env := rules.Env{
		LeagueID: batch.LeagueID,
		Week:     batch.Week,
		Tier:     res.score.Tier,
		At:       at,
		Cohort:   cohort,
		Aux:      &batch.Aux,
	}
	for _, ev := range evaluators {
		a, ok, err := safeEvaluate(ev, c, env)
		if err != nil {
			res.failures = append(res.failures, failure(c.PlayerID, ev.ID(), batch.Week, types.StageRule, err))
			continue
		}
		if ok {
			res.alerts = append(res.alerts, a)
		}
	}
	return res
}

var errRulePanic = errors.New("rule panicked")

func safeEvaluate(ev rules.Evaluator, c *model.Candidate, env rules.Env) (a model.Alert, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			a, ok, err = model.Alert{}, false, fmt.Errorf("%w: %v", errRulePanic, r)
		}
	}()
	a, ok = ev.Evaluate(c, env)
	return a, ok, nil
}

func (s *Service) disabledFor(batch types.Batch) []model.RuleID {
	out := make([]model.RuleID, 0, len(s.disabled)+len(batch.DisabledRules))
	out = append(out, s.disabled...)
	out = append(out, s.leagueDisabled[batch.LeagueID]...)
	out = append(out, batch.DisabledRules...)
	return out
}

func failure(playerID string, rule model.RuleID, week int, stage types.Stage, err error) types.Failure {
	return types.Failure{PlayerID: playerID, Rule: rule, Week: week, Stage: stage, Err: err.Error()}
}

func reportKey(leagueID string, week int) string {
	return fmt.Sprintf("%s/%d", leagueID, week)
}

func msSince(now func() time.Time, start time.Time) float64 {
	return float64(now().Sub(start).Microseconds()) / 1000
}
