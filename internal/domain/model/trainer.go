package model

import "strings"

// Trainer is an external trainer record pointing at a shared pool.
// Name fields mirror the catalog files: full EN/ES display names plus
// optional per-language name and class maps.
type Trainer struct {
	TrainerID     string
	NameEN        string
	NameES        string
	Names         map[string]string
	Classes       map[string]string
	Section       string
	PoolGlobalIDs []GlobalID
}

// DisplayName prefers the Spanish full name when present, falling back
// to the English one.
func (t *Trainer) DisplayName() string {
	if es := strings.TrimSpace(t.NameES); es != "" {
		return es
	}
	return strings.TrimSpace(t.NameEN)
}
