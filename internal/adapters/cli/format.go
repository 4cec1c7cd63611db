// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle output formatting but delegate
// business logic to services.
package cli

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/example/probeacc/internal/ports/primary"
)

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	warnMark = color.New(color.FgYellow).Sprint("!")
)

// writeSummary renders summary records as an aligned table.
func writeSummary(out io.Writer, summary []*primary.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tMIN\tMAX\tFIRST\tLAST\tMEAN\tSTD\tCOUNT\tRANGE\tDRIFT")
	fmt.Fprintln(w, "-----\t---\t---\t-----\t----\t----\t---\t-----\t-----\t-----")
	for _, s := range summary {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			s.Label,
			formatZ(s.Min), formatZ(s.Max), formatZ(s.First), formatZ(s.Last),
			formatZ(s.Mean), formatZ(s.Std), s.Count, formatZ(s.Range), formatZ(s.Drift))
	}
	w.Flush()
}

// formatZ prints a z statistic in microns precision; NaN prints as "-".
func formatZ(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.6f", v)
}
