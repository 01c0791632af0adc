// Package app provides the core business service that implements the
// dependencies required by the HTTP API and the offline probe.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/imarro/subwaydex/internal/adapters/catalog"
	"github.com/imarro/subwaydex/internal/domain/deduce"
	"github.com/imarro/subwaydex/internal/domain/model"
	"github.com/imarro/subwaydex/pkg/logger"
	"github.com/imarro/subwaydex/pkg/metrics"
)

// TrainerDetail joins a trainer record with its pool and the full set
// payloads for display.
type TrainerDetail struct {
	Trainer  *model.Trainer
	PoolID   string
	PoolSize int
	Sets     []json.RawMessage
}

// FilterResult is the query-surface view of one completion search.
type FilterResult struct {
	PoolID            string
	Seen              []model.GlobalID
	NumPossibleTeams  int
	PossibleRemaining []model.GlobalID
	RemainingSets     []json.RawMessage
}

// Service answers trainer and deduction queries over the loaded catalog.
// Every query is stateless: the full observation arrives with each call.
type Service struct {
	mu sync.RWMutex

	store catalog.Store

	// Configuration
	dataDir            string
	trainersFile       string
	poolsFile          string
	poolsIndexFile     string
	setsDir            string
	teamSize           int
	searchLimitDefault int
	searchLimitMax     int
	warmupWorkers      int

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDataDir sets the catalog data directory loaded on Start.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

// WithCatalogFiles overrides the catalog file layout inside the data dir:
// the trainers, pools, and pools-index files and the per-set JSON directory.
// Empty values keep the pipeline's default names.
func WithCatalogFiles(trainersFile, poolsFile, poolsIndexFile, setsDir string) Option {
	return func(s *Service) {
		s.trainersFile = trainersFile
		s.poolsFile = poolsFile
		s.poolsIndexFile = poolsIndexFile
		s.setsDir = setsDir
	}
}

// WithStore injects a pre-built catalog store, skipping the Start-time load.
func WithStore(store catalog.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithTeamSize sets the team size applied to every pool.
func WithTeamSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.teamSize = n
		}
	}
}

// WithSearchLimits sets the default and maximum trainer search result counts.
func WithSearchLimits(def, max int) Option {
	return func(s *Service) {
		if def > 0 {
			s.searchLimitDefault = def
		}
		if max >= def && max > 0 {
			s.searchLimitMax = max
		}
	}
}

// WithWarmupWorkers bounds the conflict-model warmup fan-out.
func WithWarmupWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.warmupWorkers = n
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dataDir:            "data",
		teamSize:           4,
		searchLimitDefault: 20,
		searchLimitMax:     50,
		warmupWorkers:      runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the catalog (unless one was injected) and warms the per-pool
// conflict models.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting deduction service...")

	if s.store == nil {
		store, err := catalog.NewFromDir(ctx,
			catalog.WithDataDir(s.dataDir),
			catalog.WithTrainersFile(s.trainersFile),
			catalog.WithPoolsFile(s.poolsFile),
			catalog.WithPoolsIndexFile(s.poolsIndexFile),
			catalog.WithSetsDir(s.setsDir),
			catalog.WithTeamSize(s.teamSize),
			catalog.WithLogger(s.logger.Named("catalog")),
		)
		if err != nil {
			return fmt.Errorf("loading catalog: %w", err)
		}
		s.store = store
	}

	if warmer, ok := s.store.(interface {
		WarmConflictModels(ctx context.Context, workers int)
	}); ok {
		warmer.WarmConflictModels(ctx, s.warmupWorkers)
	}

	s.started = true
	st := s.store.Stats(ctx)
	s.logger.Info(ctx, "deduction service started",
		logger.Int("pools", st.Pools),
		logger.Int("sets", st.Sets),
		logger.Int("trainers", st.Trainers),
		logger.Int("teamSize", s.teamSize),
	)
	return nil
}

// Stop marks the service stopped. The catalog has no external resources to
// release; the method exists for symmetry with the entrypoint's shutdown.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "deduction service stopped")
}

// SearchTrainers answers the autocomplete query, clamping limit into the
// configured range. A limit of zero means the default.
func (s *Service) SearchTrainers(ctx context.Context, query string, limit int) []catalog.TrainerMatch {
	if limit < 1 {
		limit = s.searchLimitDefault
	}
	if limit > s.searchLimitMax {
		limit = s.searchLimitMax
	}
	return s.store.SearchTrainers(ctx, query, limit)
}

// TrainerDetail joins a trainer with its pool and the resolved set payloads.
func (s *Service) TrainerDetail(ctx context.Context, trainerID string) (TrainerDetail, error) {
	t, err := s.store.GetTrainer(ctx, trainerID)
	if err != nil {
		return TrainerDetail{}, err
	}
	poolID, err := s.store.PoolForTrainer(ctx, trainerID)
	if err != nil {
		return TrainerDetail{}, err
	}
	pool, err := s.store.GetPool(ctx, poolID)
	if err != nil {
		return TrainerDetail{}, err
	}

	sets := make([]json.RawMessage, 0, len(pool.Sets))
	for _, set := range pool.Sets {
		sets = append(sets, set.Payload)
	}
	return TrainerDetail{
		Trainer:  t,
		PoolID:   poolID,
		PoolSize: len(pool.Sets),
		Sets:     sets,
	}, nil
}

// FilterPool runs the completion search for a pool and joins the remaining
// frontier back to full set payloads for display.
func (s *Service) FilterPool(ctx context.Context, poolID string, seen []model.GlobalID) (FilterResult, error) {
	pool, err := s.store.GetPool(ctx, poolID)
	if err != nil {
		return FilterResult{}, err
	}
	cm, err := s.store.ConflictModel(ctx, poolID)
	if err != nil {
		return FilterResult{}, err
	}

	start := time.Now()
	res, err := deduce.Solve(ctx, pool, cm, model.Observation(seen))
	metrics.RecordSolveLatency(float64(time.Since(start).Microseconds()) / 1e3)
	if err != nil {
		outcome := solveOutcome(err)
		metrics.RecordSolve(outcome)
		// Cancellation and unexpected failures are not observation-contract
		// violations; only the two contract outcomes count.
		if outcome == "unknown_set" || outcome == "conflicting_observation" {
			metrics.RecordConstraintViolation(outcome)
		}
		return FilterResult{}, err
	}
	metrics.RecordSolve("ok")
	metrics.RecordCompletionCount(res.CompletionCount)
	metrics.RecordBranchesExplored(res.BranchesExplored)

	sortedSeen := slices.Clone(seen)
	slices.Sort(sortedSeen)

	remainingSets := make([]json.RawMessage, 0, len(res.PossibleRemaining))
	for _, id := range res.PossibleRemaining {
		set, err := s.store.GetSet(ctx, id)
		if err != nil {
			return FilterResult{}, err
		}
		remainingSets = append(remainingSets, set.Payload)
	}

	return FilterResult{
		PoolID:            poolID,
		Seen:              sortedSeen,
		NumPossibleTeams:  res.CompletionCount,
		PossibleRemaining: res.PossibleRemaining,
		RemainingSets:     remainingSets,
	}, nil
}

func solveOutcome(err error) string {
	switch {
	case errors.Is(err, deduce.ErrUnknownSet):
		return "unknown_set"
	case errors.Is(err, deduce.ErrConflictingObservation):
		return "conflicting_observation"
	case errors.Is(err, deduce.ErrCancelled):
		return "cancelled"
	default:
		return "error"
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":  s.started,
		"teamSize": s.teamSize,
	}
	if s.started {
		st := s.store.Stats(context.Background())
		stats["pools"] = st.Pools
		stats["sets"] = st.Sets
		stats["trainers"] = st.Trainers
	}
	return stats
}
