package probe

import (
	"slices"

	"github.com/imarro/subwaydex/internal/domain/model"
)

// reference is a direct enumeration of every legal team completion. It is
// deliberately naive so the engine has something independent to disagree with.
type reference struct {
	Count    int
	Frontier []model.GlobalID
}

// enumerate walks every subset of the unseen pool members of the required
// size and keeps those that, together with the observation, form a team with
// distinct species and distinct held items. Sets without an item never
// collide on it.
func enumerate(pool *model.Pool, seen model.Observation) reference {
	need := pool.TeamSize - len(seen)
	if need < 0 {
		return reference{}
	}

	species := make(map[string]struct{}, pool.TeamSize)
	items := make(map[string]struct{}, pool.TeamSize)
	for _, id := range seen {
		set, ok := pool.SetByID(id)
		if !ok {
			return reference{}
		}
		if _, dup := species[set.Species]; dup {
			return reference{}
		}
		species[set.Species] = struct{}{}
		if set.Item != "" {
			if _, dup := items[set.Item]; dup {
				return reference{}
			}
			items[set.Item] = struct{}{}
		}
	}

	candidates := make([]model.Set, 0, len(pool.Sets))
	for _, set := range pool.Sets {
		if !seen.Has(set.ID) {
			candidates = append(candidates, set)
		}
	}

	ref := reference{}
	frontier := make(map[model.GlobalID]struct{})
	team := make([]model.Set, 0, need)

	var walk func(from int)
	walk = func(from int) {
		if len(team) == need {
			ref.Count++
			for _, set := range team {
				frontier[set.ID] = struct{}{}
			}
			return
		}
		for i := from; i < len(candidates); i++ {
			set := candidates[i]
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
			team = append(team, set)

			walk(i + 1)

			team = team[:len(team)-1]
			delete(species, set.Species)
			if set.Item != "" {
				delete(items, set.Item)
			}
		}
	}
	walk(0)

	ref.Frontier = make([]model.GlobalID, 0, len(frontier))
	for id := range frontier {
		ref.Frontier = append(ref.Frontier, id)
	}
	slices.Sort(ref.Frontier)
	return ref
}
