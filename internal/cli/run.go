package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/example/probeacc/internal/config"
	"github.com/example/probeacc/internal/ports/primary"
	"github.com/example/probeacc/internal/wire"
)

// useDefault is the value a test flag takes when given without =N.
const useDefault = -1

// testSelection holds the test flags of the run command.
type testSelection struct {
	Corner, Repeatability, Drift          int
	CornerSet, RepeatabilitySet, DriftSet bool
}

// resolve turns the flags into sample counts. Flags given without a value
// take the configured default, and no test flag at all selects every test.
func (s testSelection) resolve(defaults config.Defaults) (corner, repeatability, drift int) {
	if !s.CornerSet && !s.RepeatabilitySet && !s.DriftSet {
		return defaults.Corner, defaults.Repeatability, defaults.Drift
	}
	pick := func(set bool, n, def int) int {
		switch {
		case !set:
			return 0
		case n == useDefault:
			return def
		default:
			return n
		}
	}
	return pick(s.CornerSet, s.Corner, defaults.Corner),
		pick(s.RepeatabilitySet, s.Repeatability, defaults.Repeatability),
		pick(s.DriftSet, s.Drift, defaults.Drift)
}

// RunCmd returns the run command.
func RunCmd() *cobra.Command {
	var (
		sel       testSelection
		exportCSV bool
		forceDock bool
		noSave    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Prepare the printer and run probe accuracy tests",
		Long: `Home, level and move to safe Z, then run the selected tests in the
order corners, repeatability, drift.

Each test flag takes an optional sample count (use --flag=N). Without a
count the configured default is used. With no test flag all three run.

Examples:
  probeacc run                          # all tests with default counts
  probeacc run --drift=200              # drift only, 200 samples
  probeacc run --corner --export-csv    # corners with default count, write CSV
  probeacc run --repeatability --force-dock`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := wire.Config()
			if err != nil {
				return err
			}
			sel.CornerSet = cmd.Flags().Changed("corner")
			sel.RepeatabilitySet = cmd.Flags().Changed("repeatability")
			sel.DriftSet = cmd.Flags().Changed("drift")
			corner, repeatability, drift := sel.resolve(cfg.Defaults)

			adapter, err := wire.SuiteAdapter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, err = adapter.Run(cmd.Context(), primary.SuiteRequest{
				Corner:        corner,
				Repeatability: repeatability,
				Drift:         drift,
				ForceDock:     forceDock,
				ExportCSV:     exportCSV,
				NoSave:        noSave,
			})
			return err
		},
	}

	cmd.Flags().IntVar(&sel.Corner, "corner", 0, "Run the corner test with N samples per corner")
	cmd.Flags().IntVar(&sel.Repeatability, "repeatability", 0, "Run the repeatability test with N trials")
	cmd.Flags().IntVar(&sel.Drift, "drift", 0, "Run the drift test with N samples")
	for _, name := range []string{"corner", "repeatability", "drift"} {
		cmd.Flags().Lookup(name).NoOptDefVal = strconv.Itoa(useDefault)
	}
	cmd.Flags().BoolVar(&exportCSV, "export-csv", false, "Write samples and summary as CSV to the data directory")
	cmd.Flags().BoolVar(&forceDock, "force-dock", false, "Dock the probe between every burst")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not store the run in the history database")

	return cmd
}
