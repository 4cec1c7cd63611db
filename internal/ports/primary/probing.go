// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces through which the CLI drives the application.
package primary

import "context"

// ProbeTestService defines the primary port for running probe accuracy tests.
type ProbeTestService interface {
	// Prepare homes, levels if needed and moves to safe Z.
	Prepare(ctx context.Context) (*PrepareResponse, error)

	// RunCorners probes the four mesh corners.
	RunCorners(ctx context.Context, req CornersRequest) (*TestResult, error)

	// RunRepeatability probes the bed center repeatedly with motion between trials.
	RunRepeatability(ctx context.Context, req RepeatabilityRequest) (*TestResult, error)

	// RunDrift takes one long burst at the bed center.
	RunDrift(ctx context.Context, req DriftRequest) (*TestResult, error)

	// RunSuite prepares the printer and runs the selected tests as one persisted run.
	RunSuite(ctx context.Context, req SuiteRequest) (*SuiteResult, error)
}

// CornersRequest contains parameters for the corner test.
type CornersRequest struct {
	SamplesPerCorner int
	ForceDock        bool
}

// RepeatabilityRequest contains parameters for the repeatability test.
type RepeatabilityRequest struct {
	Trials          int
	SamplesPerTrial int
	ForceDock       bool
}

// DriftRequest contains parameters for the drift test.
type DriftRequest struct {
	Samples int
}

// SuiteRequest selects the tests of a run. A zero count skips the test.
type SuiteRequest struct {
	Corner        int
	Repeatability int
	Drift         int
	ForceDock     bool
	ExportCSV     bool
	NoSave        bool

	// OnTestComplete, when set, is called after each test finishes.
	OnTestComplete func(*TestResult)
}

// PrepareResponse contains the outcome of printer preparation.
type PrepareResponse struct {
	Homed    bool
	Leveled  bool
	SafeZ    float64
	Warnings []string
}

// TestResult contains the samples and statistics of one test procedure.
type TestResult struct {
	Kind     string
	Title    string
	Samples  []*Sample
	Summary  []*Summary
	Warnings []*Warning
}

// SuiteResult contains the combined result of a run.
type SuiteResult struct {
	RunID       string // empty when the run was not saved
	Tests       []*TestResult
	Summary     []*Summary
	SampleCount int
	ExportPaths []string
}

// Sample represents one probe sample at the port boundary.
type Sample struct {
	Test        string
	Measurement string
	Index       int
	X           float64
	Y           float64
	Z           float64
}

// Summary represents the statistics of one label group at the port boundary.
type Summary struct {
	Label string
	Min   float64
	Max   float64
	First float64
	Last  float64
	Mean  float64
	Std   float64
	Count int
	Range float64
	Drift float64
}

// Warning is a non-fatal problem attached to a burst.
type Warning struct {
	Label   string
	Message string
}
