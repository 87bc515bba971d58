package inmaputil

import (
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/spatialmodel/grts"
	"github.com/spatialmodel/grts/grtslog"
)

// Version is the grts tool's version string, printed by the version
// command. Set at build time via -ldflags, the same mechanism the
// teacher uses for inmap.Version.
var Version = "dev"

// Cmds holds the command tree returned by NewRootCmd, mirroring the
// teacher's Cfg.Root/versionCmd/runCmd grouping (trimmed to what a
// sampling-core CLI needs: no preprocessing, steady-state solver,
// source-receptor, or cloud-launcher subcommands).
type Cmds struct {
	Root, Version, Run *cobra.Command
}

// NewRootCmd builds the grts command tree: a root command carrying the
// shared --config flag and every grts.Job option as a persistent flag,
// a version subcommand, and a run subcommand that loads a Job (from
// flags, environment variables, and/or a config file, in that priority
// order per viper's usual precedence) and executes it.
func NewRootCmd() *Cmds {
	root := &cobra.Command{
		Use:   "grts",
		Short: "A generalized random-tessellation stratified spatial sampler.",
		Long: `grts draws a spatially balanced probability sample of locations from a
shapefile, a desired sample size, and one or more per-record weight
columns. Configuration can be supplied as command-line flags, as
GRTS_-prefixed environment variables, or via a YAML job file named by
--config. Refer to https://github.com/spf13/viper for precedence rules.`,
		DisableAutoGenTag: true,
	}
	root.PersistentFlags().String("config", "", "path to a YAML job configuration file")

	cfg := InitializeConfig(root.PersistentFlags())
	if err := cfg.BindPFlag("config", root.PersistentFlags().Lookup("config")); err != nil {
		panic(err)
	}
	root.PersistentPreRunE = func(*cobra.Command, []string) error {
		return setConfig(cfg)
	}

	versionCmd := &cobra.Command{
		Use:               "version",
		Short:             "Print the version number",
		DisableAutoGenTag: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("grts v%s\n", Version)
		},
	}

	runCmd := &cobra.Command{
		Use:               "run",
		Short:             "Draw a GRTS sample.",
		Long:              `run unions the configured input shapefile(s), draws one GRTS sample per weight column, and writes each panel to its own output shapefile/dBASE pair.`,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := JobFromConfig(cfg)
			if err != nil {
				return err
			}
			logger := grtslog.New(cmd.OutOrStdout())
			sink := grtslog.Sink(logger, job.InputShapefiles)
			results, err := grts.Run(job, sink)
			if err != nil {
				return err
			}
			for _, panel := range results {
				cmd.Printf("panel %q: %d points written to %s_%s\n", panel.Column, len(panel.Points), job.OutputPrefix, panel.Column)
			}
			return nil
		},
	}

	root.AddCommand(versionCmd, runCmd)
	return &Cmds{Root: root, Version: versionCmd, Run: runCmd}
}

// NewRand returns a job's seeded RNG, matching spec.md §5's determinism
// requirement (same seed, same draws) for ShiftGrid=false runs. Exposed
// for hosts that want to drive RunPanel/UnionShapefiles themselves
// instead of going through grts.Run.
func NewRand(job *grts.Job) *rand.Rand {
	return rand.New(rand.NewSource(job.Seed))
}
