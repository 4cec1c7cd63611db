// Package csvexport writes sample and summary tables as CSV files.
package csvexport

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/example/probeacc/internal/ports/secondary"
)

// Column layouts, the single source of truth for exported files.
var (
	SampleColumns  = []string{"test", "index", "x", "y", "z", "measurement"}
	SummaryColumns = []string{"test", "min", "max", "first", "last", "mean", "std", "count", "range", "drift"}
)

// Exporter implements secondary.TableExporter into a directory.
type Exporter struct {
	dir string
}

// NewExporter creates an exporter writing into dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir}
}

// ExportSamples writes one row per sample to <dir>/<name>.csv.
func (e *Exporter) ExportSamples(ctx context.Context, name string, samples []*secondary.SampleRecord) (string, error) {
	rows := make([][]string, len(samples))
	for i, s := range samples {
		rows[i] = []string{
			s.Test,
			strconv.Itoa(s.Index),
			formatFloat(s.X),
			formatFloat(s.Y),
			formatFloat(s.Z),
			s.Measurement,
		}
	}
	return e.write(name, SampleColumns, rows)
}

// ExportSummary writes one row per label to <dir>/<name>.csv.
func (e *Exporter) ExportSummary(ctx context.Context, name string, summary []*secondary.SummaryRow) (string, error) {
	rows := make([][]string, len(summary))
	for i, r := range summary {
		rows[i] = []string{
			r.Test,
			formatFloat(r.Min),
			formatFloat(r.Max),
			formatFloat(r.First),
			formatFloat(r.Last),
			formatFloat(r.Mean),
			formatFloat(r.Std),
			strconv.Itoa(r.Count),
			formatFloat(r.Range),
			formatFloat(r.Drift),
		}
	}
	return e.write(name, SummaryColumns, rows)
}

func (e *Exporter) write(name string, header []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("csv create dir %s: %w", e.dir, err)
	}

	path := filepath.Join(e.dir, name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("csv create %s: %w", path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	cw := csv.NewWriter(bw)
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("csv write header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return "", fmt.Errorf("csv write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return "", fmt.Errorf("csv flush %s: %w", path, err)
	}
	return path, f.Close()
}

// formatFloat renders NaN (std of a single sample) as an empty cell.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Ensure Exporter implements the interface
var _ secondary.TableExporter = (*Exporter)(nil)
