// Package conflict derives the mutual-exclusion grouping for a pool.
//
// A team may field at most one set per species and at most one holder per
// non-empty item. Grouping the pool by those keys up front lets the search
// branch over species groups instead of raw sets and prune early.
package conflict

import (
	"github.com/imarro/subwaydex/internal/domain/model"
)

// Group is an ordered list of set ids sharing one exclusion key.
type Group struct {
	Key string
	IDs []model.GlobalID
}

// Model is the pure, immutable exclusion view of a single pool.
// It performs no search; it only answers key lookups in constant time.
type Model struct {
	speciesByID map[model.GlobalID]string
	itemByID    map[model.GlobalID]string

	speciesGroups []Group
	itemGroups    []Group

	speciesIndex map[string]int // species key -> index into speciesGroups
	itemIndex    map[string]int // item key -> index into itemGroups
}

// Build derives the model for a pool. It is deterministic: groups appear in
// first-encounter order over the pool's sets. An empty pool yields empty
// groups, which is not an error.
func Build(pool *model.Pool) *Model {
	m := &Model{
		speciesByID:  make(map[model.GlobalID]string, len(pool.Sets)),
		itemByID:     make(map[model.GlobalID]string, len(pool.Sets)),
		speciesIndex: make(map[string]int),
		itemIndex:    make(map[string]int),
	}

	for _, s := range pool.Sets {
		m.speciesByID[s.ID] = s.Species
		m.itemByID[s.ID] = s.Item

		if idx, ok := m.speciesIndex[s.Species]; ok {
			m.speciesGroups[idx].IDs = append(m.speciesGroups[idx].IDs, s.ID)
		} else {
			m.speciesIndex[s.Species] = len(m.speciesGroups)
			m.speciesGroups = append(m.speciesGroups, Group{Key: s.Species, IDs: []model.GlobalID{s.ID}})
		}

		// An empty item means "holds nothing" and never conflicts.
		if s.Item == "" {
			continue
		}
		if idx, ok := m.itemIndex[s.Item]; ok {
			m.itemGroups[idx].IDs = append(m.itemGroups[idx].IDs, s.ID)
		} else {
			m.itemIndex[s.Item] = len(m.itemGroups)
			m.itemGroups = append(m.itemGroups, Group{Key: s.Item, IDs: []model.GlobalID{s.ID}})
		}
	}

	return m
}

// SpeciesOf returns the species key for id and whether id belongs to the pool.
func (m *Model) SpeciesOf(id model.GlobalID) (string, bool) {
	sp, ok := m.speciesByID[id]
	return sp, ok
}

// ItemOf returns the item key for id (possibly empty) and whether id belongs
// to the pool.
func (m *Model) ItemOf(id model.GlobalID) (string, bool) {
	it, ok := m.itemByID[id]
	return it, ok
}

// SpeciesGroups returns the species groups in first-encounter order.
// Callers must not mutate the returned slice.
func (m *Model) SpeciesGroups() []Group {
	return m.speciesGroups
}

// ItemGroups returns the non-empty item groups in first-encounter order.
// Callers must not mutate the returned slice.
func (m *Model) ItemGroups() []Group {
	return m.itemGroups
}

// SpeciesCount returns the number of distinct species in the pool.
func (m *Model) SpeciesCount() int {
	return len(m.speciesGroups)
}

// Size returns the number of sets the model covers.
func (m *Model) Size() int {
	return len(m.speciesByID)
}
