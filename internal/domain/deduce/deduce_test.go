package deduce_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/imarro/subwaydex/internal/domain/conflict"
	"github.com/imarro/subwaydex/internal/domain/deduce"
	"github.com/imarro/subwaydex/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// The five-set fixture: two Pikachu variants, one of which shares its item
// with the Eevee set.
//
//	A1=1 pikachu/item-x   A2=2 pikachu/item-y   B1=3 eevee/item-x
//	C1=4 snorlax/item-z   D1=5 togepi/item-w
func fixturePool(teamSize int) *model.Pool {
	return &model.Pool{
		PoolID:   "pool_fixture",
		TeamSize: teamSize,
		Sets: []model.Set{
			{ID: 1, Species: "pikachu", Item: "item-x"},
			{ID: 2, Species: "pikachu", Item: "item-y"},
			{ID: 3, Species: "eevee", Item: "item-x"},
			{ID: 4, Species: "snorlax", Item: "item-z"},
			{ID: 5, Species: "togepi", Item: "item-w"},
		},
	}
}

func solve(pool *model.Pool, seen ...model.GlobalID) (deduce.Result, error) {
	cm := conflict.Build(pool)
	return deduce.Solve(context.Background(), pool, cm, model.Observation(seen))
}

func TestSolveFixtureScenarios(t *testing.T) {
	Convey("Given the five-set fixture pool with team size 4", t, func() {
		pool := fixturePool(4)

		Convey("When A1 is confirmed", func() {
			res, err := solve(pool, 1)

			Convey("Then the item clause starves the species groups and nothing completes", func() {
				// B1 loses item-x to A1, so only snorlax and togepi groups
				// stay eligible for three open slots.
				So(err, ShouldBeNil)
				So(res.CompletionCount, ShouldEqual, 0)
				So(res.PossibleRemaining, ShouldBeEmpty)
			})
		})

		Convey("When nothing is confirmed", func() {
			res, err := solve(pool)

			Convey("Then only the team avoiding both clashes remains", func() {
				// Of the five 4-subsets, only {A2,B1,C1,D1} satisfies both rules.
				So(err, ShouldBeNil)
				So(res.CompletionCount, ShouldEqual, 1)
				So(res.PossibleRemaining, ShouldResemble, []model.GlobalID{2, 3, 4, 5})
			})
		})
	})

	Convey("Given the five-set fixture pool with team size 3", t, func() {
		pool := fixturePool(3)

		Convey("When nothing is confirmed", func() {
			res, err := solve(pool)

			Convey("Then the count matches manual enumeration", func() {
				// 10 raw 3-subsets minus 3 with both Pikachu and 2 with the
				// item-x pair leaves 5 legal teams covering every set.
				So(err, ShouldBeNil)
				So(res.CompletionCount, ShouldEqual, 5)
				So(res.PossibleRemaining, ShouldResemble, []model.GlobalID{1, 2, 3, 4, 5})
			})
		})

		Convey("When a full legal team is confirmed", func() {
			res, err := solve(pool, 2, 4, 5)

			Convey("Then exactly one completion remains and the frontier is empty", func() {
				So(err, ShouldBeNil)
				So(res.CompletionCount, ShouldEqual, 1)
				So(res.PossibleRemaining, ShouldBeEmpty)
			})
		})

		Convey("When a full team with colliding items is confirmed", func() {
			res, err := solve(pool, 1, 3, 4)

			Convey("Then the answer is zero completions, not an error", func() {
				So(err, ShouldBeNil)
				So(res.CompletionCount, ShouldEqual, 0)
				So(res.PossibleRemaining, ShouldBeEmpty)
			})
		})
	})
}

func TestSolveContractViolations(t *testing.T) {
	Convey("Given the fixture pool", t, func() {
		pool := fixturePool(4)

		Convey("When two confirmed sets share a species", func() {
			_, err := solve(pool, 1, 2)

			Convey("Then the search fails with a conflicting observation", func() {
				So(err, ShouldWrap, deduce.ErrConflictingObservation)
			})
		})

		Convey("When a confirmed id does not exist in the pool", func() {
			_, err := solve(pool, 1, 42)

			Convey("Then the search fails with an unknown set", func() {
				So(err, ShouldWrap, deduce.ErrUnknownSet)
			})
		})

		Convey("When more sets are confirmed than the team has slots", func() {
			_, err := solve(fixturePool(2), 2, 3, 4)

			Convey("Then the search fails with a conflicting observation", func() {
				So(err, ShouldWrap, deduce.ErrConflictingObservation)
			})
		})

		Convey("When the same id is confirmed twice", func() {
			_, err := solve(pool, 4, 4)

			Convey("Then the duplicate is a conflicting observation", func() {
				So(err, ShouldWrap, deduce.ErrConflictingObservation)
			})
		})
	})
}

func TestSolveEdgePools(t *testing.T) {
	Convey("Given an empty pool", t, func() {
		pool := &model.Pool{PoolID: "pool_empty", TeamSize: 4}
		res, err := solve(pool)

		Convey("Then the answer is zero completions", func() {
			So(err, ShouldBeNil)
			So(res.CompletionCount, ShouldEqual, 0)
			So(res.PossibleRemaining, ShouldBeEmpty)
		})
	})

	Convey("Given a pool with fewer species than team slots", t, func() {
		pool := &model.Pool{
			PoolID:   "pool_small",
			TeamSize: 4,
			Sets: []model.Set{
				{ID: 1, Species: "pikachu", Item: "a"},
				{ID: 2, Species: "eevee", Item: "b"},
			},
		}
		res, err := solve(pool)

		Convey("Then the answer is zero completions, not a crash", func() {
			So(err, ShouldBeNil)
			So(res.CompletionCount, ShouldEqual, 0)
			So(res.PossibleRemaining, ShouldBeEmpty)
		})
	})
}

func TestSolveCancellation(t *testing.T) {
	Convey("Given a cancelled context", t, func() {
		pool := fixturePool(4)
		cm := conflict.Build(pool)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("When solving with open slots", func() {
			_, err := deduce.Solve(ctx, pool, cm, nil)

			Convey("Then the search aborts with the cancelled kind", func() {
				So(err, ShouldWrap, deduce.ErrCancelled)
			})
		})
	})
}

// bruteForce enumerates every teamSize-subset of the pool and counts the ones
// that contain all of seen and violate neither exclusivity rule.
func bruteForce(pool *model.Pool, seen model.Observation) (int, map[model.GlobalID]struct{}) {
	n := len(pool.Sets)
	count := 0
	union := make(map[model.GlobalID]struct{})

	var walk func(start int, team []model.Set)
	walk = func(start int, team []model.Set) {
		if len(team) == pool.TeamSize {
			for _, id := range seen {
				found := false
				for _, s := range team {
					if s.ID == id {
						found = true
						break
					}
				}
				if !found {
					return
				}
			}
			species := make(map[string]bool)
			items := make(map[string]bool)
			for _, s := range team {
				if species[s.Species] {
					return
				}
				species[s.Species] = true
				if s.Item != "" {
					if items[s.Item] {
						return
					}
					items[s.Item] = true
				}
			}
			count++
			for _, s := range team {
				if !seen.Has(s.ID) {
					union[s.ID] = struct{}{}
				}
			}
			return
		}
		for i := start; i < n; i++ {
			walk(i+1, append(team, pool.Sets[i]))
		}
	}
	walk(0, nil)
	return count, union
}

func TestSolveAgainstBruteForce(t *testing.T) {
	Convey("Given randomized pools", t, func() {
		rng := rand.New(rand.NewSource(7))
		species := []string{"sp-a", "sp-b", "sp-c", "sp-d", "sp-e", "sp-f"}
		items := []string{"", "it-1", "it-2", "it-3", "it-4"}

		for trial := 0; trial < 20; trial++ {
			pool := &model.Pool{
				PoolID:   fmt.Sprintf("pool_rand_%d", trial),
				TeamSize: 3 + rng.Intn(2),
			}
			numSets := 6 + rng.Intn(7)
			for i := 0; i < numSets; i++ {
				pool.Sets = append(pool.Sets, model.Set{
					ID:      model.GlobalID(100 + i),
					Species: species[rng.Intn(len(species))],
					Item:    items[rng.Intn(len(items))],
				})
			}

			// Build a valid observation: up to two sets of distinct species.
			var seen model.Observation
			usedSpecies := make(map[string]bool)
			for _, s := range pool.Sets {
				if len(seen) == 2 || rng.Intn(3) != 0 {
					continue
				}
				if usedSpecies[s.Species] {
					continue
				}
				usedSpecies[s.Species] = true
				seen = append(seen, s.ID)
			}

			res, err := solve(pool, seen...)
			So(err, ShouldBeNil)

			wantCount, wantUnion := bruteForce(pool, seen)
			So(res.CompletionCount, ShouldEqual, wantCount)
			So(len(res.PossibleRemaining), ShouldEqual, len(wantUnion))
			for _, id := range res.PossibleRemaining {
				_, ok := wantUnion[id]
				So(ok, ShouldBeTrue)
			}
		}
	})
}

func TestSolveMonotonicShrink(t *testing.T) {
	Convey("Given a pool and a growing observation", t, func() {
		pool := &model.Pool{
			PoolID:   "pool_shrink",
			TeamSize: 3,
			Sets: []model.Set{
				{ID: 1, Species: "sp-a", Item: "it-1"},
				{ID: 2, Species: "sp-a", Item: "it-2"},
				{ID: 3, Species: "sp-b", Item: "it-1"},
				{ID: 4, Species: "sp-b", Item: ""},
				{ID: 5, Species: "sp-c", Item: "it-3"},
				{ID: 6, Species: "sp-d", Item: "it-2"},
				{ID: 7, Species: "sp-e", Item: ""},
			},
		}

		Convey("When ids are confirmed one at a time", func() {
			base, err := solve(pool)
			So(err, ShouldBeNil)

			prevCount := base.CompletionCount
			prevRemaining := base.PossibleRemaining

			// Each confirmation must shrink (or hold) both the count and
			// the reachable frontier.
			chain := model.Observation{5, 4}
			for i := range chain {
				res, err := solve(pool, chain[:i+1]...)
				So(err, ShouldBeNil)
				So(res.CompletionCount, ShouldBeLessThanOrEqualTo, prevCount)
				So(len(res.PossibleRemaining), ShouldBeLessThanOrEqualTo, len(prevRemaining))

				prevCount = res.CompletionCount
				prevRemaining = res.PossibleRemaining
			}
		})
	})
}
