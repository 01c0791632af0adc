// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults come from New; Load layers a YAML file and env vars on top.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir is the root of the subway dataset.
	DataDir string `koanf:"data_dir"`

	// TrainersFile, PoolsFile, and PoolsIndexFile name the catalog files
	// inside DataDir. SetsDir names the per-set JSON directory.
	TrainersFile   string `koanf:"trainers_file"`
	PoolsFile      string `koanf:"pools_file"`
	PoolsIndexFile string `koanf:"pools_index_file"`
	SetsDir        string `koanf:"sets_dir"`

	// TeamSize is the number of team members every pool's trainer fields.
	TeamSize int `koanf:"team_size"`

	// SearchLimitDefault and SearchLimitMax bound GET /trainers/search?limit.
	SearchLimitDefault int `koanf:"search_limit_default"`
	SearchLimitMax     int `koanf:"search_limit_max"`

	// WarmupWorkers bounds the startup conflict-model warmup fan-out.
	WarmupWorkers int `koanf:"warmup_workers"`

	// CORSOrigins lists browser origins allowed to call the API.
	CORSOrigins []string `koanf:"cors_origins"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		DataDir:            "data",
		TrainersFile:       "subway_trainers_set45.json",
		PoolsFile:          "subway_pools_set45.json",
		PoolsIndexFile:     "subway_pools_index_set45.json",
		SetsDir:            "subway_pokemon",
		TeamSize:           4,
		SearchLimitDefault: 20,
		SearchLimitMax:     50,
		WarmupWorkers:      runtime.NumCPU(),
	}
}
