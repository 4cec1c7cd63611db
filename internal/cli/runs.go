package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/probeacc/internal/ports/primary"
	"github.com/example/probeacc/internal/wire"
)

// RunsCmd returns the runs command for stored run history.
func RunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored test runs",
	}
	cmd.AddCommand(runsListCmd())
	cmd.AddCommand(runsShowCmd())
	cmd.AddCommand(runsExportCmd())
	return cmd
}

func runsListCmd() *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.RunAdapter(cmd.OutOrStdout(), "")
			if err != nil {
				return err
			}
			return adapter.List(cmd.Context(), status, limit)
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (running, complete, failed, aborted)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most N runs")
	return cmd
}

func runsShowCmd() *cobra.Command {
	var groupBy string

	cmd := &cobra.Command{
		Use:   "show RUN-ID",
		Short: "Show a run and its summary statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.RunAdapter(cmd.OutOrStdout(), "")
			if err != nil {
				return err
			}
			return adapter.Show(cmd.Context(), args[0], groupBy)
		},
	}

	cmd.Flags().StringVar(&groupBy, "by", primary.GroupByTest, "Group samples by test or measurement")
	return cmd
}

func runsExportCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export RUN-ID",
		Short: "Write a run's samples and summary as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.RunAdapter(cmd.OutOrStdout(), dir)
			if err != nil {
				return err
			}
			return adapter.Export(cmd.Context(), args[0])
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Output directory (default the data directory)")
	return cmd
}
