// Package deduce implements the completion search: given a pool, its conflict
// model, and the sets confirmed so far, it enumerates every legal way to fill
// the remaining team slots.
//
// The search is a pure, synchronous function of its inputs. It holds no state
// between calls, so the caller always supplies the complete current
// observation and the answer is independent of confirmation order.
package deduce

import (
	"context"
	"fmt"
	"slices"

	"github.com/imarro/subwaydex/internal/domain/conflict"
	"github.com/imarro/subwaydex/internal/domain/model"
)

// Result is the outcome of a successful search. A CompletionCount of zero is
// a valid answer: no legal team is consistent with the observation.
type Result struct {
	// CompletionCount is the exact number of distinct legal full teams
	// containing every confirmed set.
	CompletionCount int

	// PossibleRemaining holds every non-confirmed id that appears in at
	// least one legal completion, in ascending order.
	PossibleRemaining []model.GlobalID

	// BranchesExplored counts expanded search branches, for diagnostics.
	BranchesExplored int
}

// Solve computes all legal completions of the observation.
//
// It fails with ErrUnknownSet or ErrConflictingObservation when the
// observation violates the caller contract, and with ErrCancelled when ctx
// expires mid-search; it never returns a partial result. Confirmed sets whose
// items collide are not a contract violation: that observation is simply
// unsatisfiable and yields a zero count.
func Solve(ctx context.Context, pool *model.Pool, cm *conflict.Model, seen model.Observation) (Result, error) {
	if err := validate(pool, cm, seen); err != nil {
		return Result{}, err
	}

	excludedSpecies := make(map[string]struct{}, len(seen))
	excludedItems := make(map[string]struct{}, len(seen))
	for _, id := range seen {
		sp, _ := cm.SpeciesOf(id)
		excludedSpecies[sp] = struct{}{}

		it, _ := cm.ItemOf(id)
		if it == "" {
			continue
		}
		if _, dup := excludedItems[it]; dup {
			// Two confirmed holders of one item: legal input, no completion.
			return Result{}, nil
		}
		excludedItems[it] = struct{}{}
	}

	// Candidate groups are the species not yet consumed by the observation.
	// Branching over groups instead of raw sets keeps the branching factor at
	// "number of species", and lets the shortfall prune below cut whole
	// subtrees the moment too few groups remain for the open slots.
	var groups []conflict.Group
	for _, g := range cm.SpeciesGroups() {
		if _, ok := excludedSpecies[g.Key]; !ok {
			groups = append(groups, g)
		}
	}

	s := &searcher{
		cm:       cm,
		groups:   groups,
		items:    excludedItems,
		chosen:   make([]model.GlobalID, 0, pool.TeamSize),
		possible: make(map[model.GlobalID]struct{}),
	}
	if err := s.dfs(ctx, 0, pool.TeamSize-len(seen)); err != nil {
		return Result{}, err
	}

	remaining := make([]model.GlobalID, 0, len(s.possible))
	for id := range s.possible {
		remaining = append(remaining, id)
	}
	slices.Sort(remaining)

	return Result{
		CompletionCount:   s.count,
		PossibleRemaining: remaining,
		BranchesExplored:  s.branches,
	}, nil
}

// validate enforces the observation contract before any counting happens, so
// a violated precondition can never surface as a misleading zero.
func validate(pool *model.Pool, cm *conflict.Model, seen model.Observation) error {
	if len(seen) > pool.TeamSize {
		return fmt.Errorf("%w: %d sets confirmed for %d team slots",
			ErrConflictingObservation, len(seen), pool.TeamSize)
	}

	speciesSeen := make(map[string]model.GlobalID, len(seen))
	for _, id := range seen {
		sp, ok := cm.SpeciesOf(id)
		if !ok {
			return fmt.Errorf("%w: %d not in pool %s", ErrUnknownSet, id, pool.PoolID)
		}
		if prev, dup := speciesSeen[sp]; dup {
			return fmt.Errorf("%w: sets %d and %d share species %q",
				ErrConflictingObservation, prev, id, sp)
		}
		speciesSeen[sp] = id
	}
	return nil
}

// searcher carries the mutable depth-first state for one Solve call.
type searcher struct {
	cm     *conflict.Model
	groups []conflict.Group

	items  map[string]struct{} // items consumed on the current branch
	chosen []model.GlobalID    // picks on the current branch

	count    int
	possible map[model.GlobalID]struct{}
	branches int
}

// dfs walks the species groups from index gi, needing `need` more picks.
// Each group is either skipped or contributes exactly one item-compatible
// member; a branch closes as soon as the team is full.
func (s *searcher) dfs(ctx context.Context, gi, need int) error {
	if need == 0 {
		s.count++
		for _, id := range s.chosen {
			s.possible[id] = struct{}{}
		}
		return nil
	}

	// Shortfall prune: fewer unvisited groups than open slots.
	if len(s.groups)-gi < need {
		return nil
	}

	s.branches++
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	// The real team need not cover every species in the pool, so skipping
	// the group entirely is always a legal move.
	if err := s.dfs(ctx, gi+1, need); err != nil {
		return err
	}

	for _, id := range s.groups[gi].IDs {
		item, _ := s.cm.ItemOf(id)
		if item != "" {
			if _, taken := s.items[item]; taken {
				continue
			}
			s.items[item] = struct{}{}
		}
		s.chosen = append(s.chosen, id)

		err := s.dfs(ctx, gi+1, need-1)

		s.chosen = s.chosen[:len(s.chosen)-1]
		if item != "" {
			delete(s.items, item)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
