package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrPoolNotFound    = errors.New("pool not found")
	ErrTrainerNotFound = errors.New("trainer not found")
	ErrSetNotFound     = errors.New("set not found")
	ErrInvalidData     = errors.New("invalid catalog data")
)
