// Package cli contains the cobra commands of probeacc.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/probeacc/internal/version"
	"github.com/example/probeacc/internal/wire"
)

// RootCmd returns the probeacc root command with all subcommands attached.
func RootCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	rootCmd := &cobra.Command{
		Use:     "probeacc",
		Short:   "Measure the accuracy and repeatability of a Klipper Z probe",
		Version: version.String(),
		Long: `probeacc drives a Klipper printer through Moonraker to characterize its Z probe.

It runs three tests: a corner test across the bed mesh, a repeatability
test with random moves between trials, and a drift test of one long burst.
Runs are stored locally and can be summarized or exported as CSV later.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			wire.Configure(wire.Options{ConfigPath: configPath, Verbose: verbose})
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.probeacc/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(RunCmd())
	rootCmd.AddCommand(RunsCmd())
	rootCmd.AddCommand(DoctorCmd())
	rootCmd.AddCommand(ConfigCmd())

	return rootCmd
}
