// Package catalog loads the subway dataset produced by the data pipeline and
// serves it as an immutable in-memory store: pools, trainers, sets, and the
// memoized per-pool conflict models.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/imarro/subwaydex/internal/domain/conflict"
	"github.com/imarro/subwaydex/internal/domain/model"
	"github.com/imarro/subwaydex/pkg/logger"
	"github.com/imarro/subwaydex/pkg/metrics"
)

// Stats summarizes the loaded dataset.
type Stats struct {
	Pools    int
	Sets     int
	Trainers int
}

// Store provides read access to the catalog. All data is immutable for the
// process lifetime once loading finishes.
type Store interface {
	// GetPool returns the pool with the given id, or ErrPoolNotFound.
	GetPool(ctx context.Context, poolID string) (*model.Pool, error)

	// ConflictModel returns the memoized conflict model for a pool,
	// deriving it on first use. Safe for unbounded concurrent reads.
	ConflictModel(ctx context.Context, poolID string) (*conflict.Model, error)

	// GetTrainer returns the trainer record, or ErrTrainerNotFound.
	GetTrainer(ctx context.Context, trainerID string) (*model.Trainer, error)

	// PoolForTrainer maps a trainer id to its pool id.
	PoolForTrainer(ctx context.Context, trainerID string) (string, error)

	// GetSet resolves a global set id to its full record.
	GetSet(ctx context.Context, id model.GlobalID) (model.Set, error)

	// SearchTrainers matches a free-form query against trainer name aliases,
	// prefix matches ranked before substring matches.
	SearchTrainers(ctx context.Context, query string, limit int) []TrainerMatch

	// PoolIDs lists every pool id, sorted.
	PoolIDs(ctx context.Context) []string

	// Stats reports dataset sizes.
	Stats(ctx context.Context) Stats
}

// MemStore is the in-memory Store built by NewFromDir.
type MemStore struct {
	pools         map[string]*model.Pool
	poolIDs       []string
	trainers      map[string]*model.Trainer
	trainerToPool map[string]string
	sets          map[model.GlobalID]model.Set
	rows          []searchRow

	// conflict models are derived lazily, at most once per pool.
	cmu    sync.RWMutex
	models map[string]*conflict.Model

	log logger.Logger
}

var _ Store = (*MemStore)(nil)

// GetPool returns the pool with the given id.
func (s *MemStore) GetPool(ctx context.Context, poolID string) (*model.Pool, error) {
	p, ok := s.pools[poolID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
	}
	return p, nil
}

// ConflictModel returns the pool's conflict model, deriving and caching it on
// first use. Pools are immutable, so the cached model never goes stale.
func (s *MemStore) ConflictModel(ctx context.Context, poolID string) (*conflict.Model, error) {
	s.cmu.RLock()
	m, ok := s.models[poolID]
	s.cmu.RUnlock()
	if ok {
		metrics.RecordConflictCacheHit()
		return m, nil
	}

	p, err := s.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}

	s.cmu.Lock()
	defer s.cmu.Unlock()
	// Another deriver may have won the race while we were unlocked.
	if m, ok := s.models[poolID]; ok {
		metrics.RecordConflictCacheHit()
		return m, nil
	}
	m = conflict.Build(p)
	s.models[poolID] = m
	metrics.RecordConflictCacheMiss()
	return m, nil
}

// GetTrainer returns the trainer record.
func (s *MemStore) GetTrainer(ctx context.Context, trainerID string) (*model.Trainer, error) {
	t, ok := s.trainers[trainerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTrainerNotFound, trainerID)
	}
	return t, nil
}

// PoolForTrainer maps a trainer id to its pool id.
func (s *MemStore) PoolForTrainer(ctx context.Context, trainerID string) (string, error) {
	pid, ok := s.trainerToPool[trainerID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTrainerNotFound, trainerID)
	}
	return pid, nil
}

// GetSet resolves a global set id to its full record.
func (s *MemStore) GetSet(ctx context.Context, id model.GlobalID) (model.Set, error) {
	set, ok := s.sets[id]
	if !ok {
		return model.Set{}, fmt.Errorf("%w: %d", ErrSetNotFound, id)
	}
	return set, nil
}

// PoolIDs lists every pool id, sorted.
func (s *MemStore) PoolIDs(ctx context.Context) []string {
	out := make([]string, len(s.poolIDs))
	copy(out, s.poolIDs)
	return out
}

// Stats reports dataset sizes.
func (s *MemStore) Stats(ctx context.Context) Stats {
	return Stats{
		Pools:    len(s.pools),
		Sets:     len(s.sets),
		Trainers: len(s.trainers),
	}
}

// WarmConflictModels derives the conflict model for every pool with a bounded
// fan-out, so interactive queries never pay the first-derivation cost.
func (s *MemStore) WarmConflictModels(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, pid := range s.poolIDs {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(pid string) {
			defer wg.Done()
			defer func() { <-sem }()
			if _, err := s.ConflictModel(ctx, pid); err != nil {
				s.log.Warn(ctx, "conflict model warmup failed",
					logger.String("poolID", pid), logger.Error(err))
			}
		}(pid)
	}
	wg.Wait()
}
