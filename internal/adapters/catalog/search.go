package catalog

import (
	"context"
	"strings"

	"github.com/imarro/subwaydex/internal/domain/model"
	"github.com/imarro/subwaydex/pkg/metrics"
)

// TrainerMatch is one autocomplete result.
type TrainerMatch struct {
	TrainerID   string
	NameEN      string
	NameES      string
	DisplayName string
	Section     string
}

// searchRow is a trainer's precomputed, normalized alias list.
type searchRow struct {
	trainerID string
	aliases   []string
}

// buildSearchRow collects every searchable alias of a trainer: full EN/ES
// names, per-language bare names, and per-language class strings.
func buildSearchRow(t *model.Trainer) searchRow {
	seen := make(map[string]struct{})
	var aliases []string
	add := func(raw string) {
		a := Normalize(raw)
		if a == "" {
			return
		}
		if _, dup := seen[a]; dup {
			return
		}
		seen[a] = struct{}{}
		aliases = append(aliases, a)
	}

	add(t.NameEN)
	add(t.NameES)
	for _, v := range t.Names {
		add(v)
	}
	for _, v := range t.Classes {
		add(v)
	}

	return searchRow{trainerID: t.TrainerID, aliases: aliases}
}

// SearchTrainers matches the normalized query against trainer aliases.
// Prefix matches rank before substring matches; within each tier rows keep
// catalog order. An empty query matches nothing.
func (s *MemStore) SearchTrainers(ctx context.Context, query string, limit int) []TrainerMatch {
	nq := Normalize(query)
	if nq == "" || limit < 1 {
		metrics.RecordTrainerSearch(0)
		return nil
	}

	var prefix, contains []string
	for _, row := range s.rows {
		tier := 0
		for _, a := range row.aliases {
			if strings.HasPrefix(a, nq) {
				tier = 2
				break
			}
			if strings.Contains(a, nq) {
				tier = 1
			}
		}
		switch tier {
		case 2:
			prefix = append(prefix, row.trainerID)
		case 1:
			contains = append(contains, row.trainerID)
		}
	}

	ids := append(prefix, contains...)
	if len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]TrainerMatch, 0, len(ids))
	for _, id := range ids {
		t := s.trainers[id]
		out = append(out, TrainerMatch{
			TrainerID:   t.TrainerID,
			NameEN:      t.NameEN,
			NameES:      t.NameES,
			DisplayName: t.DisplayName(),
			Section:     t.Section,
		})
	}
	metrics.RecordTrainerSearch(len(out))
	return out
}
