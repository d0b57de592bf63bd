package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"meshforge/internal/config"
	"meshforge/internal/logging"
)

var (
	// Global flags
	cfgFile  string
	verbose  bool
	workers  int
	minAngle float64

	// Loaded configuration, available to all subcommands.
	cfg *config.Config
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "meshforge",
	Short: "meshforge - concurrent Delaunay mesh refinement",
	Long: `meshforge refines triangulated planar meshes: triangles below the
quality threshold are removed by carving a cavity around them and
retriangulating it about a new vertex, in parallel, under optimistic
per-node locking.

Mesh files use the Triangle format: <base>.node, <base>.ele and an
optional <base>.poly with boundary segments.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Flags override file and environment.
		if cmd.Flags().Changed("workers") {
			cfg.Refine.Workers = workers
		}
		if cmd.Flags().Changed("min-angle") {
			cfg.Refine.MinAngle = minAngle
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return logging.Initialize(cfg.Logging.Level, cfg.Logging.File)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "meshforge.yaml", "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "parallel workers (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().Float64Var(&minAngle, "min-angle", 0, "quality threshold in degrees")

	rootCmd.AddCommand(refineCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(generateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
