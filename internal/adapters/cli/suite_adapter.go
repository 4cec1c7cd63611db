package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/probeacc/internal/ports/primary"
)

// SuiteAdapter translates the run command to ProbeTestService calls.
type SuiteAdapter struct {
	service primary.ProbeTestService
	out     io.Writer
}

// NewSuiteAdapter creates a new SuiteAdapter with the given service.
func NewSuiteAdapter(service primary.ProbeTestService, out io.Writer) *SuiteAdapter {
	return &SuiteAdapter{
		service: service,
		out:     out,
	}
}

// Run executes the selected tests, printing each test's summary as it
// completes and the combined summary at the end.
func (a *SuiteAdapter) Run(ctx context.Context, req primary.SuiteRequest) (*primary.SuiteResult, error) {
	req.OnTestComplete = a.printTest

	result, err := a.service.RunSuite(ctx, req)
	if err != nil {
		if result != nil && result.RunID != "" {
			fmt.Fprintf(a.out, "%s Run %s stopped; partial samples were saved\n", warnMark, result.RunID)
		}
		return result, err
	}

	fmt.Fprintf(a.out, "\n=== Summary (%d samples) ===\n", result.SampleCount)
	writeSummary(a.out, result.Summary)

	if result.RunID != "" {
		fmt.Fprintf(a.out, "\n%s Saved run %s\n", okMark, result.RunID)
	}
	for _, p := range result.ExportPaths {
		fmt.Fprintf(a.out, "%s Exported %s\n", okMark, p)
	}
	return result, nil
}

func (a *SuiteAdapter) printTest(tr *primary.TestResult) {
	fmt.Fprintf(a.out, "\n--- %s ---\n", tr.Title)
	writeSummary(a.out, tr.Summary)
	if len(tr.Warnings) > 0 {
		fmt.Fprintf(a.out, "%s %d warning(s) during %s test\n", warnMark, len(tr.Warnings), tr.Kind)
	}
}
