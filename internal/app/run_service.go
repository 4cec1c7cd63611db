package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/probeacc/internal/core/measurement"
	"github.com/example/probeacc/internal/ports/primary"
	"github.com/example/probeacc/internal/ports/secondary"
)

// RunServiceImpl implements the RunService interface.
type RunServiceImpl struct {
	runRepo  secondary.RunRepository
	exporter secondary.TableExporter
}

// NewRunService creates a new RunService with injected dependencies.
func NewRunService(runRepo secondary.RunRepository, exporter secondary.TableExporter) *RunServiceImpl {
	return &RunServiceImpl{
		runRepo:  runRepo,
		exporter: exporter,
	}
}

// ListRuns lists runs with optional filters.
func (s *RunServiceImpl) ListRuns(ctx context.Context, filters primary.RunFilters) ([]*primary.Run, error) {
	records, err := s.runRepo.List(ctx, secondary.RunFilters{
		Status: filters.Status,
		Limit:  filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]*primary.Run, len(records))
	for i, r := range records {
		runs[i] = s.recordToRun(r)
	}
	return runs, nil
}

// GetRun retrieves a run by ID.
func (s *RunServiceImpl) GetRun(ctx context.Context, runID string) (*primary.Run, error) {
	record, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	return s.recordToRun(record), nil
}

// GetRunSummary recomputes the statistics of a stored run.
func (s *RunServiceImpl) GetRunSummary(ctx context.Context, req primary.RunSummaryRequest) ([]*primary.Summary, error) {
	key, err := groupKey(req.GroupBy)
	if err != nil {
		return nil, err
	}
	table, err := s.samples(ctx, req.RunID)
	if err != nil {
		return nil, err
	}
	return toPrimarySummaries(measurement.SummarizeBy(table, key)), nil
}

// ExportRun writes the samples and per-test summary of a stored run.
func (s *RunServiceImpl) ExportRun(ctx context.Context, runID string) ([]string, error) {
	table, err := s.samples(ctx, runID)
	if err != nil {
		return nil, err
	}

	name := "probe_accuracy_test_" + runID
	samplesPath, err := s.exporter.ExportSamples(ctx, name, toSampleRecords(table))
	if err != nil {
		return nil, fmt.Errorf("failed to export samples: %w", err)
	}
	summaryPath, err := s.exporter.ExportSummary(ctx, name+"_summary",
		toSummaryRows(measurement.SummarizeBy(table, measurement.ByTest)))
	if err != nil {
		return []string{samplesPath}, fmt.Errorf("failed to export summary: %w", err)
	}
	return []string{samplesPath, summaryPath}, nil
}

func (s *RunServiceImpl) samples(ctx context.Context, runID string) (measurement.Table, error) {
	if _, err := s.runRepo.GetByID(ctx, runID); err != nil {
		return nil, err
	}
	records, err := s.runRepo.GetSamples(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load samples: %w", err)
	}
	return fromSampleRecords(records), nil
}

func groupKey(groupBy string) (measurement.GroupKey, error) {
	switch groupBy {
	case "", primary.GroupByTest:
		return measurement.ByTest, nil
	case primary.GroupByMeasurement:
		return measurement.ByMeasurement, nil
	default:
		return nil, fmt.Errorf("unknown grouping %q (want %s or %s)", groupBy, primary.GroupByTest, primary.GroupByMeasurement)
	}
}

func (s *RunServiceImpl) recordToRun(r *secondary.RunRecord) *primary.Run {
	var tests []string
	if r.Tests != "" {
		tests = strings.Split(r.Tests, ",")
	}
	return &primary.Run{
		ID:          r.ID,
		Tests:       tests,
		Status:      r.Status,
		ForceDock:   r.ForceDock,
		SampleCount: r.SampleCount,
		CreatedAt:   r.CreatedAt,
		CompletedAt: r.CompletedAt,
	}
}

// Ensure RunServiceImpl implements the interface
var _ primary.RunService = (*RunServiceImpl)(nil)
