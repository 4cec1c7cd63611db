package primary

import "context"

// RunService defines the primary port for stored run history.
type RunService interface {
	// ListRuns lists runs with optional filters.
	ListRuns(ctx context.Context, filters RunFilters) ([]*Run, error)

	// GetRun retrieves a run by ID.
	GetRun(ctx context.Context, runID string) (*Run, error)

	// GetRunSummary recomputes the statistics of a stored run.
	GetRunSummary(ctx context.Context, req RunSummaryRequest) ([]*Summary, error)

	// ExportRun writes the samples and summary of a stored run as CSV.
	ExportRun(ctx context.Context, runID string) ([]string, error)
}

// Run represents a run entity at the port boundary.
type Run struct {
	ID          string
	Tests       []string
	Status      string
	ForceDock   bool
	SampleCount int
	CreatedAt   string
	CompletedAt string
}

// RunFilters contains filter options for listing runs.
type RunFilters struct {
	Status string
	Limit  int
}

// Summary grouping levels.
const (
	GroupByTest        = "test"
	GroupByMeasurement = "measurement"
)

// RunSummaryRequest contains parameters for summarizing a stored run.
type RunSummaryRequest struct {
	RunID   string
	GroupBy string // GroupByTest (default) or GroupByMeasurement
}
