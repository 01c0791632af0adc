package probe

import (
	"math/rand"

	"github.com/imarro/subwaydex/internal/domain/model"
)

// randomObservation draws a valid partial observation from the pool: between
// zero and teamSize members with distinct species and distinct held items.
// Validity matters here; invalid observations are covered separately.
func randomObservation(rng *rand.Rand, pool *model.Pool) model.Observation {
	target := rng.Intn(pool.TeamSize + 1)

	order := rng.Perm(len(pool.Sets))
	species := make(map[string]struct{}, target)
	items := make(map[string]struct{}, target)

	obs := make(model.Observation, 0, target)
	for _, i := range order {
		if len(obs) == target {
			break
		}
		set := pool.Sets[i]
		if _, dup := species[set.Species]; dup {
			continue
		}
		if set.Item != "" {
			if _, dup := items[set.Item]; dup {
				continue
			}
		}
		species[set.Species] = struct{}{}
		if set.Item != "" {
			items[set.Item] = struct{}{}
		}
		obs = append(obs, set.ID)
	}
	return obs
}

// shrinkChain produces successive prefixes of an observation, longest first,
// for checking that adding a confirmed member never grows the answer set.
func shrinkChain(obs model.Observation) []model.Observation {
	chain := make([]model.Observation, 0, len(obs)+1)
	for n := len(obs); n >= 0; n-- {
		chain = append(chain, obs[:n])
	}
	return chain
}
