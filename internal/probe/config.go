// Package probe exercises the deduction engine against a reference
// enumeration, either directly over a loaded dataset or through a running
// HTTP server. It is a verification tool, not part of the serving path.
package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL  string        // Base URL of a running server; empty means offline mode
	DataDir  string        // Root of the subway dataset
	Pools    []string      // Pool ids to probe; empty means all
	Trials   int           // Random observations per pool
	Seed     int64         // PRNG seed for reproducible runs
	TeamSize int           // Team size applied to every pool
	Timeout  time.Duration // HTTP request timeout (remote mode)
	Verbose  bool          // Log every trial
}

// Stats holds probe statistics.
type Stats struct {
	PoolsProbed       int
	TrialsRun         int
	CountMismatches   int
	FrontierMismatch  int
	ShrinkViolations  int
	TerminalFailures  int
	RemoteMismatches  int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
