package catalog

import "github.com/imarro/subwaydex/pkg/logger"

// loadConfig collects the file layout options for NewFromDir. Defaults match
// the filenames the data pipeline emits.
type loadConfig struct {
	dataDir        string
	trainersFile   string
	poolsFile      string
	poolsIndexFile string
	setsDir        string
	teamSize       int
	log            logger.Logger
}

// Option applies a configuration option to the catalog loader.
type Option func(*loadConfig)

// WithDataDir sets the base data directory.
func WithDataDir(dir string) Option {
	return func(c *loadConfig) {
		if dir != "" {
			c.dataDir = dir
		}
	}
}

// WithTrainersFile overrides the trainers file name, relative to the data dir.
func WithTrainersFile(name string) Option {
	return func(c *loadConfig) {
		if name != "" {
			c.trainersFile = name
		}
	}
}

// WithPoolsFile overrides the pools file name, relative to the data dir.
func WithPoolsFile(name string) Option {
	return func(c *loadConfig) {
		if name != "" {
			c.poolsFile = name
		}
	}
}

// WithPoolsIndexFile overrides the pools index file name, relative to the
// data dir.
func WithPoolsIndexFile(name string) Option {
	return func(c *loadConfig) {
		if name != "" {
			c.poolsIndexFile = name
		}
	}
}

// WithSetsDir overrides the per-set JSON directory, relative to the data dir.
func WithSetsDir(name string) Option {
	return func(c *loadConfig) {
		if name != "" {
			c.setsDir = name
		}
	}
}

// WithTeamSize sets the team size applied to every pool.
func WithTeamSize(n int) Option {
	return func(c *loadConfig) {
		if n > 0 {
			c.teamSize = n
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(c *loadConfig) {
		if l != nil {
			c.log = l
		}
	}
}
