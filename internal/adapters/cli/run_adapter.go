package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/example/probeacc/internal/ports/primary"
)

// RunAdapter translates the runs subcommands to RunService calls.
type RunAdapter struct {
	service primary.RunService
	out     io.Writer
}

// NewRunAdapter creates a new RunAdapter with the given service.
func NewRunAdapter(service primary.RunService, out io.Writer) *RunAdapter {
	return &RunAdapter{
		service: service,
		out:     out,
	}
}

// List lists stored runs with optional filters.
func (a *RunAdapter) List(ctx context.Context, status string, limit int) error {
	runs, err := a.service.ListRuns(ctx, primary.RunFilters{Status: status, Limit: limit})
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(a.out, "No runs found")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTESTS\tSAMPLES\tCREATED")
	fmt.Fprintln(w, "--\t------\t-----\t-------\t-------")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", r.ID, r.Status, strings.Join(r.Tests, ","), r.SampleCount, r.CreatedAt)
	}
	w.Flush()
	return nil
}

// Show displays a run and its recomputed summary.
func (a *RunAdapter) Show(ctx context.Context, runID, groupBy string) error {
	run, err := a.service.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	summary, err := a.service.GetRunSummary(ctx, primary.RunSummaryRequest{RunID: runID, GroupBy: groupBy})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\nRun:     %s\n", run.ID)
	fmt.Fprintf(a.out, "Status:  %s\n", run.Status)
	fmt.Fprintf(a.out, "Tests:   %s\n", strings.Join(run.Tests, ", "))
	fmt.Fprintf(a.out, "Samples: %d\n", run.SampleCount)
	if run.ForceDock {
		fmt.Fprintln(a.out, "Docked:  between every burst")
	}
	fmt.Fprintf(a.out, "Created: %s\n", run.CreatedAt)
	if run.CompletedAt != "" {
		fmt.Fprintf(a.out, "Completed: %s\n", run.CompletedAt)
	}
	fmt.Fprintln(a.out)

	writeSummary(a.out, summary)
	return nil
}

// Export writes a stored run as CSV.
func (a *RunAdapter) Export(ctx context.Context, runID string) error {
	paths, err := a.service.ExportRun(ctx, runID)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(a.out, "%s Exported %s\n", okMark, p)
	}
	return nil
}
