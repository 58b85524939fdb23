// Command waiverintel runs waiver evaluation passes once from the CLI or
// continuously behind a scheduler and HTTP API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/waiverintel/internal/adapters/repository"
	"github.com/okian/waiverintel/internal/adapters/source"
	service "github.com/okian/waiverintel/internal/app"
	"github.com/okian/waiverintel/internal/config"
	"github.com/okian/waiverintel/internal/domain/bidding"
	"github.com/okian/waiverintel/internal/domain/cooldown"
	"github.com/okian/waiverintel/internal/domain/scoring"
	"github.com/okian/waiverintel/pkg/logger"
	"github.com/okian/waiverintel/pkg/metrics"
)

var configFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "waiverintel",
		Short:         "Waiver wire decision engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (default $WAIVER_CONFIG)")
	root.AddCommand(newRunCmd(), newServeCmd())
	return root
}

// setup loads configuration and initializes the global logger. Logs go to
// stderr so stdout stays machine readable.
func setup(ctx context.Context) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(ctx, configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(
		logger.WithFormat(cfg.LogFormat),
		logger.WithLevel(cfg.LogLevel),
		logger.WithOutput(os.Stderr),
	); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	metrics.Configure(
		metrics.WithMetricsEnabled(cfg.Metrics.Enabled),
		metrics.WithNamespace(cfg.Metrics.Namespace),
		metrics.WithCustomLabels(cfg.Metrics.Labels),
	)
	return cfg, logger.Get(), nil
}

// buildService wires the engine from cfg. The returned close func releases
// the cooldown backend.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger, extra ...service.Option) (*service.Service, func(), error) {
	store, closeStore, err := buildStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithRunnerCount(cfg.RunnerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithSource(source.NewFileSource(cfg.DataDir)),
		service.WithStore(store),
		service.WithGateOptions(
			cooldown.WithWindow(cfg.Cooldown.Window),
			cooldown.WithThreshold(cfg.Cooldown.Threshold),
		),
		service.WithScorer(scoring.NewWeightedScorer(
			scoring.WithWeights(cfg.Weights()),
			scoring.WithThresholds(cfg.Thresholds()),
		)),
		service.WithBidder(bidding.New(
			bidding.WithValuePerPoint(cfg.Bidding.ValuePerPoint),
			bidding.WithSeasonFinalWeek(cfg.Bidding.SeasonFinalWeek),
		)),
		service.WithDisabledRules(cfg.DisabledRules()...),
		service.WithLeagueRules(cfg.LeagueRules()),
	}
	return service.New(append(opts, extra...)...), closeStore, nil
}

func buildStore(ctx context.Context, cfg *config.Config, log logger.Logger) (cooldown.Store, func(), error) {
	if cfg.Cooldown.Backend == config.BackendRedis {
		rdb, err := repository.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewRedisStore(rdb,
			repository.WithPrefix(cfg.Redis.Prefix),
			repository.WithLogger(log.Named("redis")),
		)
		return store, func() { _ = rdb.Close() }, nil
	}

	store := cooldown.NewMemoryStore(
		cooldown.WithMaxEntries(cfg.Cooldown.MaxEntries),
		cooldown.WithSnapshotPath(cfg.Cooldown.SnapshotPath),
		cooldown.WithMemoryLogger(log.Named("cooldown")),
	)
	return store, func() {}, nil
}
