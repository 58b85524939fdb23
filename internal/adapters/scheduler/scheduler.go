// Package scheduler enqueues evaluation passes on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/okian/waiverintel/internal/domain/types"
	"github.com/okian/waiverintel/pkg/logger"
)

// ErrSchedule is returned for an unparsable cron expression.
var ErrSchedule = errors.New("scheduler: invalid schedule")

// Submitter accepts pass requests. It returns false when a request is
// rejected.
type Submitter interface {
	Submit(ctx context.Context, req types.PassRequest) bool
}

// Scheduler submits one scheduled pass per configured league on every
// tick of a standard five-field cron expression.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	week    int
	leagues []string
	submit  Submitter
	logger  logger.Logger

	mu  sync.Mutex
	ctx context.Context
}

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New validates spec and builds a stopped scheduler.
func New(spec string, week int, leagues []string, submit Submitter, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		spec:    spec,
		week:    week,
		leagues: append([]string(nil), leagues...),
		submit:  submit,
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.OrNop(s.logger)

	if _, err := s.cron.AddFunc(spec, func() { s.Tick(s.context()) }); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrSchedule, spec, err)
	}
	return s, nil
}

// Start runs the cron loop in the background. Ticks use ctx for submits.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.logger.Info(ctx, "scheduler started",
		logger.String("schedule", s.spec),
		logger.Int("week", s.week),
		logger.Int("leagues", len(s.leagues)))
	s.cron.Start()
}

// Stop halts the cron loop and waits for a running tick.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info(context.Background(), "scheduler stopped")
}

// Tick submits a scheduled pass for every league and returns how many were
// accepted. Rejected leagues already have a pass pending or hit a full
// queue; the next tick retries them.
func (s *Scheduler) Tick(ctx context.Context) int {
	accepted := 0
	for _, league := range s.leagues {
		req := types.PassRequest{LeagueID: league, Week: s.week, Trigger: types.TriggerScheduled}
		if s.submit.Submit(ctx, req) {
			accepted++
			continue
		}
		s.logger.Warn(ctx, "scheduled pass rejected",
			logger.String("league", league),
			logger.Int("week", s.week))
	}
	return accepted
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}
