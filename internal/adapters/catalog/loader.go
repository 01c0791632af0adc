package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/imarro/subwaydex/internal/domain/conflict"
	"github.com/imarro/subwaydex/internal/domain/model"
	"github.com/imarro/subwaydex/pkg/logger"
	"github.com/imarro/subwaydex/pkg/metrics"
)

// Default file layout, as emitted by the data pipeline.
const (
	defaultTrainersFile   = "subway_trainers_set45.json"
	defaultPoolsFile      = "subway_pools_set45.json"
	defaultPoolsIndexFile = "subway_pools_index_set45.json"
	defaultSetsDir        = "subway_pokemon"
	defaultTeamSize       = 4
)

// On-disk schemas. Only the fields the engine needs are named; everything
// else in a set file rides along as the opaque payload.
type trainersFile struct {
	Trainers []trainerRecord `json:"trainers"`
}

type trainerRecord struct {
	TrainerID     string            `json:"trainer_id"`
	NameEN        string            `json:"name_en"`
	NameES        string            `json:"name_es"`
	Names         map[string]string `json:"names"`
	Classes       map[string]string `json:"classes"`
	Section       string            `json:"section"`
	PoolGlobalIDs []int             `json:"pool_global_ids"`
}

type poolsFile struct {
	Pools []poolRecord `json:"pools"`
}

type poolRecord struct {
	PoolID        string `json:"pool_id"`
	PoolGlobalIDs []int  `json:"pool_global_ids"`
}

type poolsIndex struct {
	TrainerToPool     map[string]string `json:"trainer_to_pool"`
	GlobalIDToSetFile map[string]string `json:"global_id_to_setfile"`
}

type setHeader struct {
	GlobalID int    `json:"global_id"`
	Species  string `json:"species"`
	Item     string `json:"item"`
}

// NewFromDir loads the dataset from disk and returns an immutable store.
// The whole dataset is read eagerly: it is small (hundreds of sets), and
// eager loading is what guarantees pool immutability for the process
// lifetime.
func NewFromDir(ctx context.Context, opts ...Option) (*MemStore, error) {
	cfg := &loadConfig{
		dataDir:        "data",
		trainersFile:   defaultTrainersFile,
		poolsFile:      defaultPoolsFile,
		poolsIndexFile: defaultPoolsIndexFile,
		setsDir:        defaultSetsDir,
		teamSize:       defaultTeamSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.log == nil {
		cfg.log = logger.Get().Named("catalog")
	}

	var idx poolsIndex
	if err := readJSON(filepath.Join(cfg.dataDir, cfg.poolsIndexFile), &idx); err != nil {
		return nil, err
	}
	if idx.GlobalIDToSetFile == nil {
		return nil, fmt.Errorf("%w: pools index missing global_id_to_setfile", ErrInvalidData)
	}

	sets, err := loadSets(filepath.Join(cfg.dataDir, cfg.setsDir), idx.GlobalIDToSetFile)
	if err != nil {
		return nil, err
	}

	var pf poolsFile
	if err := readJSON(filepath.Join(cfg.dataDir, cfg.poolsFile), &pf); err != nil {
		return nil, err
	}

	var tf trainersFile
	if err := readJSON(filepath.Join(cfg.dataDir, cfg.trainersFile), &tf); err != nil {
		return nil, err
	}

	s := &MemStore{
		pools:         make(map[string]*model.Pool, len(pf.Pools)),
		trainers:      make(map[string]*model.Trainer, len(tf.Trainers)),
		trainerToPool: idx.TrainerToPool,
		sets:          sets,
		models:        make(map[string]*conflict.Model),
		log:           cfg.log,
	}
	if s.trainerToPool == nil {
		s.trainerToPool = make(map[string]string)
	}

	for _, pr := range pf.Pools {
		if pr.PoolID == "" {
			continue
		}
		pool := &model.Pool{PoolID: pr.PoolID, TeamSize: cfg.teamSize}
		for _, gid := range pr.PoolGlobalIDs {
			set, ok := sets[model.GlobalID(gid)]
			if !ok {
				// The pipeline occasionally drops a set file; a hole in one
				// pool must not take the whole catalog down.
				cfg.log.Warn(ctx, "pool references missing set",
					logger.String("poolID", pr.PoolID), logger.Int("globalID", gid))
				continue
			}
			pool.Sets = append(pool.Sets, set)
		}
		s.pools[pool.PoolID] = pool
		s.poolIDs = append(s.poolIDs, pool.PoolID)
	}
	sort.Strings(s.poolIDs)

	for _, tr := range tf.Trainers {
		if tr.TrainerID == "" {
			continue
		}
		t := &model.Trainer{
			TrainerID: tr.TrainerID,
			NameEN:    tr.NameEN,
			NameES:    tr.NameES,
			Names:     tr.Names,
			Classes:   tr.Classes,
			Section:   tr.Section,
		}
		for _, gid := range tr.PoolGlobalIDs {
			t.PoolGlobalIDs = append(t.PoolGlobalIDs, model.GlobalID(gid))
		}
		s.trainers[t.TrainerID] = t
		s.rows = append(s.rows, buildSearchRow(t))
	}

	st := s.Stats(ctx)
	metrics.UpdateCatalogPools(st.Pools)
	metrics.UpdateCatalogSets(st.Sets)
	metrics.UpdateCatalogTrainers(st.Trainers)

	cfg.log.Info(ctx, "catalog loaded",
		logger.String("dataDir", cfg.dataDir),
		logger.Int("pools", st.Pools),
		logger.Int("sets", st.Sets),
		logger.Int("trainers", st.Trainers),
	)
	return s, nil
}

// loadSets reads every set file named by the index. The file's raw bytes
// become the opaque payload; only the header fields are parsed out.
func loadSets(dir string, index map[string]string) (map[model.GlobalID]model.Set, error) {
	out := make(map[model.GlobalID]model.Set, len(index))
	for gid, name := range index {
		id, err := strconv.Atoi(gid)
		if err != nil {
			return nil, fmt.Errorf("%w: non-numeric global_id %q in index", ErrInvalidData, gid)
		}

		path := filepath.Join(dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading set file %s: %w", path, err)
		}

		var hdr setHeader
		if err := json.Unmarshal(raw, &hdr); err != nil {
			return nil, fmt.Errorf("%w: set file %s: %v", ErrInvalidData, path, err)
		}
		if hdr.Species == "" {
			return nil, fmt.Errorf("%w: set file %s has no species", ErrInvalidData, path)
		}
		if hdr.GlobalID != id {
			return nil, fmt.Errorf("%w: set file %s claims global_id %d, index says %d",
				ErrInvalidData, path, hdr.GlobalID, id)
		}

		out[model.GlobalID(id)] = model.Set{
			ID:      model.GlobalID(id),
			Species: hdr.Species,
			Item:    hdr.Item,
			Payload: json.RawMessage(raw),
		}
	}
	return out, nil
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidData, path, err)
	}
	return nil
}
