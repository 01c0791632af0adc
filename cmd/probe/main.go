package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/imarro/subwaydex/internal/probe"
	"github.com/imarro/subwaydex/pkg/logger"
)

// Default probe settings.
const (
	defaultTrials   = 200
	defaultSeed     = 1
	defaultTeamSize = 4
	defaultTimeout  = 30 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &probe.Config{}
	var seed int64

	rootCmd := &cobra.Command{
		Use:           "probe",
		Short:         "Cross-check the deduction engine against a reference enumeration",
		Long:          "probe loads a subway dataset, draws random valid observations per pool, and verifies the engine's completion counts and frontiers against a naive enumeration. With --url it also replays each observation against a running server.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return err
			}
			cfg.Seed = seed

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return probe.Run(ctx, cfg)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&cfg.DataDir, "data-dir", "data", "Root of the subway dataset")
	flags.StringVar(&cfg.BaseURL, "url", "", "Base URL of a running server; empty runs offline")
	flags.StringSliceVar(&cfg.Pools, "pools", nil, "Pool ids to probe (default: all)")
	flags.IntVar(&cfg.Trials, "trials", defaultTrials, "Random observations per pool")
	flags.Int64Var(&seed, "seed", defaultSeed, "PRNG seed for reproducible runs")
	flags.IntVar(&cfg.TeamSize, "team-size", defaultTeamSize, "Team size applied to every pool")
	flags.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	flags.BoolVar(&cfg.Verbose, "verbose", false, "Log every trial")

	return rootCmd
}
