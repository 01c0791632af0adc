package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/imarro/subwaydex/internal/adapters/catalog"
	"github.com/imarro/subwaydex/internal/app"
	"github.com/imarro/subwaydex/internal/domain/conflict"
	"github.com/imarro/subwaydex/internal/domain/deduce"
	"github.com/imarro/subwaydex/internal/domain/model"
	"github.com/imarro/subwaydex/pkg/logger"
	"github.com/imarro/subwaydex/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	logger.Init()
	m.Run()
}

// fakeStore is a hand-built catalog.Store over a single fixture pool.
type fakeStore struct {
	pool    *model.Pool
	trainer *model.Trainer
	warmed  int
}

func newFakeStore(teamSize int) *fakeStore {
	sets := []model.Set{
		{ID: 1, Species: "pikachu", Item: "item-x", Payload: payload(1, "pikachu")},
		{ID: 2, Species: "pikachu", Item: "item-y", Payload: payload(2, "pikachu")},
		{ID: 3, Species: "eevee", Item: "item-x", Payload: payload(3, "eevee")},
		{ID: 4, Species: "snorlax", Item: "item-z", Payload: payload(4, "snorlax")},
		{ID: 5, Species: "togepi", Item: "item-w", Payload: payload(5, "togepi")},
	}
	return &fakeStore{
		pool: &model.Pool{PoolID: "pool-a", TeamSize: teamSize, Sets: sets},
		trainer: &model.Trainer{
			TrainerID:     "t-001",
			NameEN:        "Ace Trainer Jean",
			Section:       "singles",
			PoolGlobalIDs: []model.GlobalID{1, 2, 3, 4, 5},
		},
	}
}

func payload(id int, species string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"global_id":%d,"species":%q}`, id, species))
}

func (s *fakeStore) GetPool(ctx context.Context, poolID string) (*model.Pool, error) {
	if poolID != s.pool.PoolID {
		return nil, catalog.ErrPoolNotFound
	}
	return s.pool, nil
}

func (s *fakeStore) ConflictModel(ctx context.Context, poolID string) (*conflict.Model, error) {
	if poolID != s.pool.PoolID {
		return nil, catalog.ErrPoolNotFound
	}
	return conflict.Build(s.pool), nil
}

func (s *fakeStore) GetTrainer(ctx context.Context, trainerID string) (*model.Trainer, error) {
	if trainerID != s.trainer.TrainerID {
		return nil, catalog.ErrTrainerNotFound
	}
	return s.trainer, nil
}

func (s *fakeStore) PoolForTrainer(ctx context.Context, trainerID string) (string, error) {
	if trainerID != s.trainer.TrainerID {
		return "", catalog.ErrTrainerNotFound
	}
	return s.pool.PoolID, nil
}

func (s *fakeStore) GetSet(ctx context.Context, id model.GlobalID) (model.Set, error) {
	set, ok := s.pool.SetByID(id)
	if !ok {
		return model.Set{}, catalog.ErrSetNotFound
	}
	return set, nil
}

func (s *fakeStore) SearchTrainers(ctx context.Context, query string, limit int) []catalog.TrainerMatch {
	m := catalog.TrainerMatch{
		TrainerID:   s.trainer.TrainerID,
		NameEN:      s.trainer.NameEN,
		DisplayName: s.trainer.DisplayName(),
		Section:     s.trainer.Section,
	}
	out := []catalog.TrainerMatch{m}
	if limit < len(out) {
		out = out[:limit]
	}
	// The limit reaching the store is what these tests observe.
	if limit > 0 {
		out[0].Section = fmt.Sprintf("%s/limit=%d", s.trainer.Section, limit)
	}
	return out
}

func (s *fakeStore) PoolIDs(ctx context.Context) []string {
	return []string{s.pool.PoolID}
}

func (s *fakeStore) Stats(ctx context.Context) catalog.Stats {
	return catalog.Stats{Pools: 1, Sets: len(s.pool.Sets), Trainers: 1}
}

func (s *fakeStore) WarmConflictModels(ctx context.Context, workers int) {
	s.warmed++
}

// writeRenamedCatalog lays out a two-set dataset whose file names all differ
// from the pipeline defaults.
func writeRenamedCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	setsDir := filepath.Join(dir, "mons")
	if err := os.MkdirAll(setsDir, 0o750); err != nil {
		t.Fatalf("creating sets dir: %v", err)
	}

	writeJSON := func(path string, v any) {
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshaling fixture: %v", err)
		}
		if err := os.WriteFile(path, raw, 0o600); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}
	}

	writeJSON(filepath.Join(setsDir, "a.json"), map[string]any{"global_id": 1, "species": "pikachu", "item": "light-ball"})
	writeJSON(filepath.Join(setsDir, "b.json"), map[string]any{"global_id": 2, "species": "eevee", "item": ""})
	writeJSON(filepath.Join(dir, "pools.json"), map[string]any{
		"pools": []map[string]any{{"pool_id": "pool_xy", "pool_global_ids": []int{1, 2}}},
	})
	writeJSON(filepath.Join(dir, "trainers.json"), map[string]any{
		"trainers": []map[string]any{{
			"trainer_id": "t1", "name_en": "Ace Trainer Jean",
			"section": "singles", "pool_global_ids": []int{1, 2},
		}},
	})
	writeJSON(filepath.Join(dir, "index.json"), map[string]any{
		"trainer_to_pool":      map[string]string{"t1": "pool_xy"},
		"global_id_to_setfile": map[string]string{"1": "a.json", "2": "b.json"},
	})
	return dir
}

func TestService_CatalogFileLayout(t *testing.T) {
	Convey("Given a data dir whose file names differ from the defaults", t, func() {
		dir := writeRenamedCatalog(t)

		Convey("When starting with the layout configured", func() {
			svc := app.New(
				app.WithDataDir(dir),
				app.WithCatalogFiles("trainers.json", "pools.json", "index.json", "mons"),
				app.WithTeamSize(2),
			)
			So(svc.Start(context.Background()), ShouldBeNil)

			Convey("Then the renamed files should be the ones loaded", func() {
				stats := svc.GetStats()
				So(stats["pools"], ShouldEqual, 1)
				So(stats["sets"], ShouldEqual, 2)
				So(stats["trainers"], ShouldEqual, 1)
			})

			Convey("And queries should run over that dataset", func() {
				res, err := svc.FilterPool(context.Background(), "pool_xy", nil)
				So(err, ShouldBeNil)
				So(res.NumPossibleTeams, ShouldEqual, 1)
				So(res.PossibleRemaining, ShouldResemble, []model.GlobalID{1, 2})
			})
		})

		Convey("When starting without the layout configured", func() {
			svc := app.New(app.WithDataDir(dir))

			Convey("Then the default file names should not resolve", func() {
				So(svc.Start(context.Background()), ShouldNotBeNil)
			})
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a service with an injected store", t, func() {
		store := newFakeStore(4)
		svc := app.New(app.WithStore(store))

		Convey("When starting", func() {
			err := svc.Start(context.Background())

			Convey("Then it should warm the conflict models", func() {
				So(err, ShouldBeNil)
				So(store.warmed, ShouldEqual, 1)
			})

			Convey("And a second start should be a no-op", func() {
				So(svc.Start(context.Background()), ShouldBeNil)
				So(store.warmed, ShouldEqual, 1)
			})

			Convey("And stats should reflect the dataset", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["pools"], ShouldEqual, 1)
				So(stats["sets"], ShouldEqual, 5)
			})

			Convey("And stopping should mark the service stopped", func() {
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_SearchLimits(t *testing.T) {
	Convey("Given a service with configured search limits", t, func() {
		store := newFakeStore(4)
		svc := app.New(app.WithStore(store), app.WithSearchLimits(10, 25))
		So(svc.Start(context.Background()), ShouldBeNil)

		Convey("A zero limit should fall back to the default", func() {
			out := svc.SearchTrainers(context.Background(), "jean", 0)
			So(out[0].Section, ShouldEndWith, "limit=10")
		})

		Convey("An oversized limit should be clamped to the maximum", func() {
			out := svc.SearchTrainers(context.Background(), "jean", 999)
			So(out[0].Section, ShouldEndWith, "limit=25")
		})

		Convey("An in-range limit should pass through", func() {
			out := svc.SearchTrainers(context.Background(), "jean", 15)
			So(out[0].Section, ShouldEndWith, "limit=15")
		})
	})
}

func TestService_TrainerDetail(t *testing.T) {
	Convey("Given a started service", t, func() {
		store := newFakeStore(4)
		svc := app.New(app.WithStore(store))
		So(svc.Start(context.Background()), ShouldBeNil)

		Convey("When resolving an existing trainer", func() {
			detail, err := svc.TrainerDetail(context.Background(), "t-001")

			Convey("Then the trainer should be joined with its pool", func() {
				So(err, ShouldBeNil)
				So(detail.PoolID, ShouldEqual, "pool-a")
				So(detail.PoolSize, ShouldEqual, 5)
				So(detail.Sets, ShouldHaveLength, 5)
			})
		})

		Convey("When the trainer does not exist", func() {
			_, err := svc.TrainerDetail(context.Background(), "t-404")
			So(err, ShouldWrap, catalog.ErrTrainerNotFound)
		})
	})
}

func TestService_FilterPool(t *testing.T) {
	Convey("Given a started service over the fixture pool", t, func() {
		store := newFakeStore(4)
		svc := app.New(app.WithStore(store))
		So(svc.Start(context.Background()), ShouldBeNil)

		Convey("An empty observation should find the single legal team", func() {
			res, err := svc.FilterPool(context.Background(), "pool-a", nil)
			So(err, ShouldBeNil)
			So(res.NumPossibleTeams, ShouldEqual, 1)
			So(res.PossibleRemaining, ShouldResemble, []model.GlobalID{2, 3, 4, 5})
			So(res.RemainingSets, ShouldHaveLength, 4)
		})

		Convey("The seen ids in the result should be sorted", func() {
			res, err := svc.FilterPool(context.Background(), "pool-a", []model.GlobalID{4, 2})
			So(err, ShouldBeNil)
			So(res.Seen, ShouldResemble, []model.GlobalID{2, 4})
		})

		Convey("An observation that blocks every completion should report zero", func() {
			res, err := svc.FilterPool(context.Background(), "pool-a", []model.GlobalID{1})
			So(err, ShouldBeNil)
			So(res.NumPossibleTeams, ShouldEqual, 0)
			So(res.PossibleRemaining, ShouldBeEmpty)
		})

		Convey("An unknown pool should fail with the catalog sentinel", func() {
			_, err := svc.FilterPool(context.Background(), "pool-x", nil)
			So(err, ShouldWrap, catalog.ErrPoolNotFound)
		})

		Convey("An unknown set id should fail with the engine sentinel", func() {
			_, err := svc.FilterPool(context.Background(), "pool-a", []model.GlobalID{999})
			So(err, ShouldWrap, deduce.ErrUnknownSet)
		})

		Convey("A duplicated id should be a conflicting observation", func() {
			_, err := svc.FilterPool(context.Background(), "pool-a", []model.GlobalID{4, 4})
			So(err, ShouldWrap, deduce.ErrConflictingObservation)
		})
	})
}

// constraintViolations reads the violation counter for one kind from the
// global registry.
func constraintViolations(t *testing.T, kind string) float64 {
	t.Helper()

	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		t.Fatalf("gathering metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "subwaydex_deduction_constraint_violations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "kind" && l.GetValue() == kind {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestService_ViolationMetricKinds(t *testing.T) {
	Convey("Given a started service", t, func() {
		store := newFakeStore(4)
		svc := app.New(app.WithStore(store))
		So(svc.Start(context.Background()), ShouldBeNil)

		Convey("When a solve is cancelled", func() {
			before := constraintViolations(t, "cancelled")
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := svc.FilterPool(ctx, "pool-a", nil)
			So(err, ShouldWrap, deduce.ErrCancelled)

			Convey("Then no constraint violation should be counted", func() {
				So(constraintViolations(t, "cancelled"), ShouldEqual, before)
			})
		})

		Convey("When the observation violates its contract", func() {
			before := constraintViolations(t, "conflicting_observation")

			_, err := svc.FilterPool(context.Background(), "pool-a", []model.GlobalID{4, 4})
			So(err, ShouldWrap, deduce.ErrConflictingObservation)

			Convey("Then the violation should be counted under its kind", func() {
				So(constraintViolations(t, "conflicting_observation"), ShouldEqual, before+1)
			})
		})
	})
}
