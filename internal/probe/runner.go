package probe

import (
	"context"
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/imarro/subwaydex/internal/adapters/catalog"
	"github.com/imarro/subwaydex/internal/domain/conflict"
	"github.com/imarro/subwaydex/internal/domain/deduce"
	"github.com/imarro/subwaydex/internal/domain/model"
	"github.com/imarro/subwaydex/pkg/logger"
)

// Run executes the probe: engine against reference enumeration, and when a
// base URL is configured, the running server against the local engine too.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}
	runID := uuid.New().String()

	log := logger.Get()
	log.Info(ctx, "starting deduction probe",
		logger.String("runID", runID),
		logger.String("dataDir", config.DataDir),
		logger.String("baseURL", config.BaseURL),
		logger.Int("trials", config.Trials),
		logger.Int("seed", int(config.Seed)),
	)

	store, err := catalog.NewFromDir(ctx,
		catalog.WithDataDir(config.DataDir),
		catalog.WithTeamSize(config.TeamSize),
		catalog.WithLogger(log.Named("catalog")),
	)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}

	var remote *client
	if config.BaseURL != "" {
		remote = newClient(config.BaseURL, config.Timeout)
		if err := remote.checkHealth(ctx); err != nil {
			return fmt.Errorf("server health check failed: %w", err)
		}
	}

	poolIDs := config.Pools
	if len(poolIDs) == 0 {
		poolIDs = store.PoolIDs(ctx)
	}

	rng := rand.New(rand.NewSource(config.Seed))
	for _, poolID := range poolIDs {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("probe interrupted: %w", err)
		}
		if err := probePool(ctx, config, store, remote, rng, poolID, stats); err != nil {
			return fmt.Errorf("pool %s: %w", poolID, err)
		}
		stats.PoolsProbed++
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if n := stats.CountMismatches + stats.FrontierMismatch + stats.ShrinkViolations +
		stats.TerminalFailures + stats.RemoteMismatches; n > 0 {
		return fmt.Errorf("probe found %d violations", n)
	}
	log.Info(ctx, "probe completed successfully", logger.String("runID", runID))
	return nil
}

func probePool(ctx context.Context, config *Config, store catalog.Store, remote *client, rng *rand.Rand, poolID string, stats *Stats) error {
	log := logger.Get()

	pool, err := store.GetPool(ctx, poolID)
	if err != nil {
		return err
	}
	cm, err := store.ConflictModel(ctx, poolID)
	if err != nil {
		return err
	}

	for trial := 0; trial < config.Trials; trial++ {
		obs := randomObservation(rng, pool)
		stats.TrialsRun++

		res, err := deduce.Solve(ctx, pool, cm, obs)
		if err != nil {
			return fmt.Errorf("solve failed on valid observation %v: %w", obs, err)
		}
		ref := enumerate(pool, obs)

		if res.CompletionCount != ref.Count {
			stats.CountMismatches++
			log.Error(ctx, "completion count disagrees with enumeration",
				logger.String("pool", poolID),
				logger.Any("seen", obs),
				logger.Int("engine", res.CompletionCount),
				logger.Int("reference", ref.Count),
			)
		}
		if !slices.Equal(res.PossibleRemaining, ref.Frontier) {
			stats.FrontierMismatch++
			log.Error(ctx, "frontier disagrees with enumeration",
				logger.String("pool", poolID),
				logger.Any("seen", obs),
				logger.Any("engine", res.PossibleRemaining),
				logger.Any("reference", ref.Frontier),
			)
		}

		checkShrink(ctx, pool, cm, obs, poolID, stats)
		checkTerminal(ctx, pool, obs, res, poolID, stats)

		if remote != nil {
			if err := checkRemote(ctx, remote, poolID, obs, res, stats); err != nil {
				return err
			}
		}

		if config.Verbose {
			log.Debug(ctx, "trial done",
				logger.String("pool", poolID),
				logger.Int("trial", trial),
				logger.Int("seen", len(obs)),
				logger.Int("completions", res.CompletionCount),
			)
		}
	}
	return nil
}

// checkShrink verifies that confirming another member never grows the answer:
// both the completion count and the frontier shrink (or hold) along every
// prefix of the observation.
func checkShrink(ctx context.Context, pool *model.Pool, cm *conflict.Model, obs model.Observation, poolID string, stats *Stats) {
	log := logger.Get()

	var prev *deduce.Result
	for _, prefix := range shrinkChain(obs) {
		res, err := deduce.Solve(ctx, pool, cm, prefix)
		if err != nil {
			return
		}
		if prev != nil {
			// prev has one more confirmed member than res.
			if prev.CompletionCount > res.CompletionCount {
				stats.ShrinkViolations++
				log.Error(ctx, "completion count grew after confirming a member",
					logger.String("pool", poolID),
					logger.Any("seen", prefix),
				)
			}
			for _, id := range prev.PossibleRemaining {
				if !slices.Contains(res.PossibleRemaining, id) {
					stats.ShrinkViolations++
					log.Error(ctx, "frontier grew after confirming a member",
						logger.String("pool", poolID),
						logger.Any("seen", prefix),
						logger.Int("id", int(id)),
					)
					break
				}
			}
		}
		prev = &res
	}
}

// checkTerminal verifies the closed observation shape: once the whole team is
// confirmed, either exactly one completion remains and the frontier is empty,
// or an item collision among the confirmed members leaves zero.
func checkTerminal(ctx context.Context, pool *model.Pool, obs model.Observation, res deduce.Result, poolID string, stats *Stats) {
	if len(obs) != pool.TeamSize {
		return
	}
	ok := (res.CompletionCount == 1 || res.CompletionCount == 0) && len(res.PossibleRemaining) == 0
	if !ok {
		stats.TerminalFailures++
		logger.Get().Error(ctx, "full-team observation did not close",
			logger.String("pool", poolID),
			logger.Any("seen", obs),
			logger.Int("completions", res.CompletionCount),
			logger.Int("remaining", len(res.PossibleRemaining)),
		)
	}
}

// checkRemote replays the observation against the running server and compares
// its answer with the local engine's.
func checkRemote(ctx context.Context, remote *client, poolID string, obs model.Observation, res deduce.Result, stats *Stats) error {
	got, err := remote.filterPool(ctx, poolID, obs)
	if err != nil {
		return fmt.Errorf("remote filter failed: %w", err)
	}

	want := make([]int, 0, len(res.PossibleRemaining))
	for _, id := range res.PossibleRemaining {
		want = append(want, int(id))
	}
	if got.NumPossibleTeams != res.CompletionCount || !slices.Equal(got.PossibleRemainingGlobalIDs, want) {
		stats.RemoteMismatches++
		logger.Get().Error(ctx, "server disagrees with local engine",
			logger.String("pool", poolID),
			logger.Any("seen", obs),
			logger.Int("serverCompletions", got.NumPossibleTeams),
			logger.Int("localCompletions", res.CompletionCount),
		)
	}
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "final statistics",
		logger.Int("poolsProbed", stats.PoolsProbed),
		logger.Int("trialsRun", stats.TrialsRun),
		logger.Int("countMismatches", stats.CountMismatches),
		logger.Int("frontierMismatches", stats.FrontierMismatch),
		logger.Int("shrinkViolations", stats.ShrinkViolations),
		logger.Int("terminalFailures", stats.TerminalFailures),
		logger.Int("remoteMismatches", stats.RemoteMismatches),
		logger.String("duration", stats.Duration.String()),
	)
}
