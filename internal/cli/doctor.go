package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/example/probeacc/internal/ports/primary"
	"github.com/example/probeacc/internal/wire"
)

// DoctorCmd returns the doctor command for printer readiness checks.
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the printer is ready for probe testing",
		Long: `Query the printer through Moonraker and validate what the tests rely on.

Validates:
- Moonraker connectivity
- Homed axes and axis limits
- Leveling method (z_tilt or quad_gantry_level) and bed mesh bounds
- Probe offsets
- Safe Z variable

Examples:
  probeacc doctor              # Run full check
  probeacc doctor --quiet      # Exit code only (0=ready, 1=issues)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := wire.DoctorService()
			if err != nil {
				return err
			}

			results := service.Check(cmd.Context())
			out := cmd.OutOrStdout()
			if quiet {
				out = io.Discard
			}
			if !writeChecks(out, results) {
				return fmt.Errorf("printer is not ready for probe testing")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode - exit code only")

	return cmd
}

// writeChecks prints the results table and the details of non-passing
// checks. It reports whether no check failed.
func writeChecks(out io.Writer, results []*primary.CheckResult) bool {
	ok := true
	for _, r := range results {
		if r.Status == primary.CheckFail {
			ok = false
			break
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Check              Status")
	fmt.Fprintln(out, "─────────────────────────")
	for _, r := range results {
		fmt.Fprintf(out, "%-18s %s\n", r.Name, r.Status)
	}
	fmt.Fprintln(out)

	hasDetails := false
	for _, r := range results {
		if r.Status != primary.CheckPass && r.Details != "" {
			if !hasDetails {
				fmt.Fprintln(out, "Details:")
				hasDetails = true
			}
			fmt.Fprintf(out, "\n%s:\n  %s\n", r.Name, r.Details)
		}
	}

	if ok {
		fmt.Fprintln(out, "All checks passed.")
	} else {
		fmt.Fprintln(out, "\n⚠ Issues found. Fix them before running probe tests.")
	}
	return ok
}
