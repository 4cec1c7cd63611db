package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/probeacc/internal/core/location"
	"github.com/example/probeacc/internal/core/measurement"
	"github.com/example/probeacc/internal/core/printer"
	"github.com/example/probeacc/internal/core/probetest"
	"github.com/example/probeacc/internal/ctxutil"
	"github.com/example/probeacc/internal/ports/primary"
	"github.com/example/probeacc/internal/ports/secondary"
)

// Run statuses.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
	RunStatusAborted  = "aborted"
)

// runStampLayout names export files, e.g. probe_accuracy_test_20261014_0930.
const runStampLayout = "20060102_1504"

// ProbeSettings holds the printer-specific knobs of the test procedures.
type ProbeSettings struct {
	RandomMargin float64 // keep-out margin for repeatability perturbation moves
	Feedrate     int     // mm/min for XY moves
	LockGcode    string
	UnlockGcode  string
	SafeZObject  string // printer object holding the safe travel height
	SafeZKey     string

	RepeatabilitySamples int // samples per repeatability trial
}

// ProbeTestServiceImpl implements the ProbeTestService interface.
type ProbeTestServiceImpl struct {
	transport secondary.PrinterTransport
	executor  EffectExecutor
	runRepo   secondary.RunRepository
	exporter  secondary.TableExporter
	console   secondary.OperatorConsole
	settings  ProbeSettings
	rng       *rand.Rand
	now       func() time.Time
	logger    *zap.Logger
}

// NewProbeTestService creates a new ProbeTestService with injected dependencies.
func NewProbeTestService(
	transport secondary.PrinterTransport,
	executor EffectExecutor,
	runRepo secondary.RunRepository,
	exporter secondary.TableExporter,
	console secondary.OperatorConsole,
	settings ProbeSettings,
	rng *rand.Rand,
	logger *zap.Logger,
) *ProbeTestServiceImpl {
	return &ProbeTestServiceImpl{
		transport: transport,
		executor:  executor,
		runRepo:   runRepo,
		exporter:  exporter,
		console:   console,
		settings:  settings,
		rng:       rng,
		now:       time.Now,
		logger:    logger,
	}
}

// Prepare homes, levels if not yet applied, and moves to safe Z.
// A missing safe Z is asked from the operator, never guessed.
func (s *ProbeTestServiceImpl) Prepare(ctx context.Context) (*primary.PrepareResponse, error) {
	homed, err := s.transport.QueryObject(ctx, printer.ObjectToolhead, printer.KeyHomedAxes)
	if err != nil {
		return nil, fmt.Errorf("failed to query homed axes: %w", err)
	}
	homedAxes, _ := homed.(string)

	cfg, err := s.printerConfig(ctx)
	if err != nil {
		return nil, err
	}

	input := printer.PreparationInput{HomedAxes: homedAxes}
	if lv, ok := cfg.Leveling(); ok {
		applied, err := s.transport.QueryObject(ctx, lv.Section, printer.KeyApplied)
		if err != nil {
			return nil, fmt.Errorf("failed to query %s state: %w", lv.Section, err)
		}
		input.Leveling = &lv
		input.LevelingApplied = printer.Truthy(applied)
	}

	input.SafeZ, err = s.safeZ(ctx)
	if err != nil {
		return nil, err
	}

	plan := printer.PlanPreparation(input)
	for _, w := range plan.Warnings {
		s.console.Warn("prepare", w)
	}
	if _, err := s.executor.Execute(ctx, plan.Effects); err != nil {
		return nil, fmt.Errorf("failed to prepare printer: %w", err)
	}

	return &primary.PrepareResponse{
		Homed:    printer.NeedsHoming(homedAxes),
		Leveled:  input.Leveling != nil && !input.LevelingApplied,
		SafeZ:    input.SafeZ,
		Warnings: plan.Warnings,
	}, nil
}

// RunCorners forces leveling and probes the four mesh corners.
// On error the result holds the samples gathered before the failure.
func (s *ProbeTestServiceImpl) RunCorners(ctx context.Context, req primary.CornersRequest) (*primary.TestResult, error) {
	cfg, err := s.printerConfig(ctx)
	if err != nil {
		return nil, err
	}
	lv, ok := cfg.Leveling()
	if err := probetest.CanRunCorners(probetest.CornersContext{
		SamplesPerCorner:   req.SamplesPerCorner,
		LevelingConfigured: ok,
	}).Error(); err != nil {
		return nil, err
	}

	mesh, err := cfg.MeshBounds()
	if err != nil {
		return nil, err
	}
	offset, err := cfg.ProbeOffset()
	if err != nil {
		return nil, err
	}

	plan := probetest.PlanCorners(probetest.CornersPlanInput{
		SamplesPerCorner: req.SamplesPerCorner,
		Corners:          location.BedCorners(mesh, offset),
		Leveling:         lv,
		Feedrate:         s.settings.Feedrate,
		Lock:             s.lock(req.ForceDock),
	})
	return s.runPlan(ctx, plan)
}

// RunRepeatability perturbs and re-centers the toolhead before every trial.
// On error the result holds the samples gathered before the failure.
func (s *ProbeTestServiceImpl) RunRepeatability(ctx context.Context, req primary.RepeatabilityRequest) (*primary.TestResult, error) {
	if err := probetest.CanRunRepeatability(probetest.RepeatabilityContext{
		Trials:          req.Trials,
		SamplesPerTrial: req.SamplesPerTrial,
	}).Error(); err != nil {
		return nil, err
	}

	axis, err := s.axisBounds(ctx)
	if err != nil {
		return nil, err
	}
	perturbations := make([]location.Point, req.Trials)
	for i := range perturbations {
		perturbations[i] = location.RandomPoint(axis, s.settings.RandomMargin, s.rng)
	}

	plan, err := probetest.PlanRepeatability(probetest.RepeatabilityPlanInput{
		Trials:          req.Trials,
		SamplesPerTrial: req.SamplesPerTrial,
		Center:          location.BedCenter(axis),
		Perturbations:   perturbations,
		Feedrate:        s.settings.Feedrate,
		Lock:            s.lock(req.ForceDock),
	})
	if err != nil {
		return nil, err
	}
	return s.runPlan(ctx, plan)
}

// RunDrift takes one long burst at the bed center.
// On error the result holds the samples gathered before the failure.
func (s *ProbeTestServiceImpl) RunDrift(ctx context.Context, req primary.DriftRequest) (*primary.TestResult, error) {
	if err := probetest.CanAcquire(probetest.AcquireContext{
		Test:    probetest.DriftLabel(req.Samples),
		Samples: req.Samples,
	}).Error(); err != nil {
		return nil, err
	}

	axis, err := s.axisBounds(ctx)
	if err != nil {
		return nil, err
	}

	plan := probetest.PlanDrift(probetest.DriftPlanInput{
		Samples:  req.Samples,
		Center:   location.BedCenter(axis),
		Feedrate: s.settings.Feedrate,
	})
	return s.runPlan(ctx, plan)
}

// RunSuite prepares the printer and runs the selected tests in the order
// corners, repeatability, drift. The unlock gcode is sent on every exit path.
func (s *ProbeTestServiceImpl) RunSuite(ctx context.Context, req primary.SuiteRequest) (result *primary.SuiteResult, err error) {
	if err := probetest.CanRunSuite(probetest.SuiteContext{
		Corner:        req.Corner,
		Repeatability: req.Repeatability,
		Drift:         req.Drift,
	}).Error(); err != nil {
		return nil, err
	}

	defer func() {
		if unlockErr := s.transport.SendGcode(context.WithoutCancel(ctx), s.settings.UnlockGcode); unlockErr != nil {
			s.logger.Error("failed to release probe at end of run", zap.String("gcode", s.settings.UnlockGcode), zap.Error(unlockErr))
		}
	}()

	result = &primary.SuiteResult{}
	if !req.NoSave {
		runID, err := s.startRun(ctx, req)
		if err != nil {
			return nil, err
		}
		result.RunID = runID
		ctx = ctxutil.WithRunID(ctx, runID)
	}

	var tables []measurement.Table
	finished := false
	defer func() {
		if err != nil && result.RunID != "" && !finished {
			s.finishRun(ctx, result.RunID, measurement.Merge(tables...), failureStatus(ctx))
		}
	}()

	if _, err := s.Prepare(ctx); err != nil {
		return result, err
	}

	steps := []struct {
		enabled bool
		run     func() (*primary.TestResult, error)
	}{
		{req.Corner > 0, func() (*primary.TestResult, error) {
			return s.RunCorners(ctx, primary.CornersRequest{SamplesPerCorner: req.Corner, ForceDock: req.ForceDock})
		}},
		{req.Repeatability > 0, func() (*primary.TestResult, error) {
			return s.RunRepeatability(ctx, primary.RepeatabilityRequest{
				Trials:          req.Repeatability,
				SamplesPerTrial: s.settings.RepeatabilitySamples,
				ForceDock:       req.ForceDock,
			})
		}},
		{req.Drift > 0, func() (*primary.TestResult, error) {
			return s.RunDrift(ctx, primary.DriftRequest{Samples: req.Drift})
		}},
	}

	for _, step := range steps {
		if !step.enabled {
			continue
		}
		tr, err := step.run()
		if tr != nil {
			tables = append(tables, fromPrimarySamples(tr.Samples))
			result.Tests = append(result.Tests, tr)
		}
		if err != nil {
			return result, err
		}
		if req.OnTestComplete != nil {
			req.OnTestComplete(tr)
		}
	}

	all := measurement.Merge(tables...)
	summary := measurement.SummarizeBy(all, measurement.ByTest)
	result.Summary = toPrimarySummaries(summary)
	result.SampleCount = len(all)

	if result.RunID != "" {
		finished = true
		if err := s.finishRun(ctx, result.RunID, all, RunStatusComplete); err != nil {
			return result, err
		}
	}

	if req.ExportCSV {
		paths, err := s.export(ctx, s.now().Format(runStampLayout), all, summary)
		if err != nil {
			return result, err
		}
		result.ExportPaths = paths
	}

	return result, nil
}

func (s *ProbeTestServiceImpl) runPlan(ctx context.Context, plan probetest.Plan) (*primary.TestResult, error) {
	s.console.Progress(plan.Title)
	s.logger.Info("starting test",
		zap.String("run_id", ctxutil.RunIDFromContext(ctx)),
		zap.String("kind", string(plan.Kind)))

	exec, err := s.executor.Execute(ctx, plan.Effects)
	result := &primary.TestResult{Kind: string(plan.Kind), Title: plan.Title}
	if exec != nil {
		result.Samples = toPrimarySamples(exec.Table)
		result.Summary = toPrimarySummaries(measurement.SummarizeBy(exec.Table, measurement.ByTest))
		result.Warnings = exec.Warnings
	}
	if err != nil {
		return result, fmt.Errorf("%s test: %w", plan.Kind, err)
	}
	return result, nil
}

func (s *ProbeTestServiceImpl) startRun(ctx context.Context, req primary.SuiteRequest) (string, error) {
	runID, err := s.runRepo.GetNextID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to generate run ID: %w", err)
	}

	var kinds []string
	if req.Corner > 0 {
		kinds = append(kinds, string(probetest.KindCorners))
	}
	if req.Repeatability > 0 {
		kinds = append(kinds, string(probetest.KindRepeatability))
	}
	if req.Drift > 0 {
		kinds = append(kinds, string(probetest.KindDrift))
	}

	if err := s.runRepo.Create(ctx, &secondary.RunRecord{
		ID:        runID,
		Tests:     strings.Join(kinds, ","),
		Status:    RunStatusRunning,
		ForceDock: req.ForceDock,
	}); err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	return runID, nil
}

// finishRun stores the samples and final status. It runs with a context that
// survives cancellation so an interrupted run is still recorded.
func (s *ProbeTestServiceImpl) finishRun(ctx context.Context, runID string, samples measurement.Table, status string) error {
	ctx = context.WithoutCancel(ctx)
	if len(samples) > 0 {
		if err := s.runRepo.AppendSamples(ctx, runID, toSampleRecords(samples)); err != nil {
			s.logger.Error("failed to store samples", zap.String("run_id", runID), zap.Error(err))
			return fmt.Errorf("failed to store samples: %w", err)
		}
	}
	if err := s.runRepo.UpdateStatus(ctx, runID, status, status != RunStatusRunning); err != nil {
		s.logger.Error("failed to update run status", zap.String("run_id", runID), zap.Error(err))
		return fmt.Errorf("failed to update run status: %w", err)
	}
	return nil
}

func (s *ProbeTestServiceImpl) export(ctx context.Context, stamp string, all measurement.Table, summary []measurement.SummaryRecord) ([]string, error) {
	name := "probe_accuracy_test_" + stamp
	samplesPath, err := s.exporter.ExportSamples(ctx, name, toSampleRecords(all))
	if err != nil {
		return nil, fmt.Errorf("failed to export samples: %w", err)
	}
	summaryPath, err := s.exporter.ExportSummary(ctx, name+"_summary", toSummaryRows(summary))
	if err != nil {
		return []string{samplesPath}, fmt.Errorf("failed to export summary: %w", err)
	}
	return []string{samplesPath, summaryPath}, nil
}

func (s *ProbeTestServiceImpl) lock(forceDock bool) *probetest.Lock {
	if forceDock {
		return nil
	}
	return &probetest.Lock{Acquire: s.settings.LockGcode, Release: s.settings.UnlockGcode}
}

func (s *ProbeTestServiceImpl) printerConfig(ctx context.Context) (printer.Config, error) {
	raw, err := s.transport.QueryObject(ctx, printer.ObjectConfigfile, printer.KeyConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to query printer config: %w", err)
	}
	return printer.ParseConfig(raw)
}

func (s *ProbeTestServiceImpl) axisBounds(ctx context.Context) (location.Bounds, error) {
	lo, err := s.transport.QueryObject(ctx, printer.ObjectToolhead, printer.KeyAxisMinimum)
	if err != nil {
		return location.Bounds{}, fmt.Errorf("failed to query axis minimum: %w", err)
	}
	hi, err := s.transport.QueryObject(ctx, printer.ObjectToolhead, printer.KeyAxisMaximum)
	if err != nil {
		return location.Bounds{}, fmt.Errorf("failed to query axis maximum: %w", err)
	}
	return printer.AxisBounds(lo, hi)
}

func (s *ProbeTestServiceImpl) safeZ(ctx context.Context) (float64, error) {
	raw, err := s.transport.QueryObject(ctx, s.settings.SafeZObject, s.settings.SafeZKey)
	if err != nil {
		return 0, fmt.Errorf("failed to query safe z: %w", err)
	}
	if z, ok := printer.SafeZ(raw); ok {
		return z, nil
	}

	s.console.Warn("prepare", fmt.Sprintf("safe z has not been set in %q", s.settings.SafeZObject))
	answer, err := s.console.Ask(ctx, "Enter safe z height to avoid crash: ")
	if err != nil {
		return 0, fmt.Errorf("failed to read safe z: %w", err)
	}
	z, err := strconv.ParseFloat(strings.TrimSpace(answer), 64)
	if err != nil || z <= 0 {
		return 0, &printer.ConfigurationMissingError{
			Object: s.settings.SafeZObject,
			Key:    s.settings.SafeZKey,
			Hint:   fmt.Sprintf("invalid safe z %q", strings.TrimSpace(answer)),
		}
	}
	return z, nil
}

func failureStatus(ctx context.Context) string {
	if errors.Is(ctx.Err(), context.Canceled) {
		return RunStatusAborted
	}
	return RunStatusFailed
}

func fromPrimarySamples(samples []*primary.Sample) measurement.Table {
	out := make(measurement.Table, len(samples))
	for i, s := range samples {
		out[i] = measurement.Sample{
			Test:        s.Test,
			Measurement: s.Measurement,
			Index:       s.Index,
			X:           s.X,
			Y:           s.Y,
			Z:           s.Z,
		}
	}
	return out
}

// Ensure ProbeTestServiceImpl implements the interface
var _ primary.ProbeTestService = (*ProbeTestServiceImpl)(nil)
