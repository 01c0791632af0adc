// Package model contains domain records passed between layers.
package model

import "encoding/json"

// GlobalID identifies a set across the whole catalog. IDs are stable and
// opaque; the engine never derives meaning from their numeric value.
type GlobalID int

// Set is a single candidate team-member configuration.
// Species and Item are the only fields the deduction engine inspects;
// everything else (stats, moves, sprites) rides along in Payload untouched.
type Set struct {
	ID      GlobalID
	Species string // grouping key: one variant per species on a team
	Item    string // grouping key: one holder per item; empty means holds nothing
	Payload json.RawMessage
}

// Pool is the full candidate roster for one battle context. Pools are
// immutable once loaded; several trainers may share one pool.
type Pool struct {
	PoolID   string
	TeamSize int
	Sets     []Set
}

// SetByID returns the set with the given id and whether it exists.
func (p *Pool) SetByID(id GlobalID) (Set, bool) {
	for _, s := range p.Sets {
		if s.ID == id {
			return s, true
		}
	}
	return Set{}, false
}

// DistinctSpecies counts the distinct species keys in the pool.
func (p *Pool) DistinctSpecies() int {
	seen := make(map[string]struct{}, len(p.Sets))
	for _, s := range p.Sets {
		seen[s.Species] = struct{}{}
	}
	return len(seen)
}

// Observation is the set of ids the caller has confirmed as real team
// members. It is a value; the engine holds no state between calls.
type Observation []GlobalID

// Has reports whether id is part of the observation.
func (o Observation) Has(id GlobalID) bool {
	for _, v := range o {
		if v == id {
			return true
		}
	}
	return false
}
