package secondary

import "context"

// RunRepository defines the secondary port for run persistence.
// Only raw samples are stored; summaries are recomputed on every read.
type RunRepository interface {
	// Create persists a new run.
	Create(ctx context.Context, run *RunRecord) error

	// GetByID retrieves a run by its ID.
	GetByID(ctx context.Context, id string) (*RunRecord, error)

	// List retrieves runs matching the given filters, newest first.
	List(ctx context.Context, filters RunFilters) ([]*RunRecord, error)

	// UpdateStatus updates the status and optionally completed_at timestamp.
	UpdateStatus(ctx context.Context, id, status string, setCompleted bool) error

	// AppendSamples stores samples for a run after any already stored.
	AppendSamples(ctx context.Context, runID string, samples []*SampleRecord) error

	// GetSamples returns the samples of a run in insertion order.
	GetSamples(ctx context.Context, runID string) ([]*SampleRecord, error)

	// GetNextID returns the next available run ID.
	GetNextID(ctx context.Context) (string, error)
}

// RunRecord represents a run as stored in persistence.
type RunRecord struct {
	ID          string
	Tests       string // comma separated test kinds, e.g. "corners,drift"
	Status      string // running, complete, failed, aborted
	ForceDock   bool
	SampleCount int
	CreatedAt   string
	CompletedAt string // Empty string means null
}

// RunFilters contains filter options for querying runs.
type RunFilters struct {
	Status string
	Limit  int
}

// SampleRecord represents one stored probe sample.
type SampleRecord struct {
	Test        string
	Measurement string
	Index       int
	X           float64
	Y           float64
	Z           float64
}

// SummaryRow is one exported summary line.
type SummaryRow struct {
	Test  string
	Min   float64
	Max   float64
	First float64
	Last  float64
	Mean  float64
	Std   float64 // NaN for single-sample groups
	Count int
	Range float64
	Drift float64
}

// TableExporter defines the secondary port for flat tabular export.
type TableExporter interface {
	// ExportSamples writes one row per sample and returns the file path.
	ExportSamples(ctx context.Context, name string, samples []*SampleRecord) (string, error)

	// ExportSummary writes one row per label and returns the file path.
	ExportSummary(ctx context.Context, name string, rows []*SummaryRow) (string, error)
}
