package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/example/probeacc/internal/core/burst"
	"github.com/example/probeacc/internal/core/printer"
	"github.com/example/probeacc/internal/ports/primary"
)

func TestPrepare_AlreadyReady(t *testing.T) {
	f := newProbingFixture()

	resp, err := f.service.Prepare(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Homed || resp.Leveled {
		t.Errorf("expected no homing or leveling, got %+v", resp)
	}
	if diff := cmp.Diff([]string{"G1 Z25"}, f.transport.sent); diff != "" {
		t.Errorf("sent gcode mismatch (-want +got):\n%s", diff)
	}
}

func TestPrepare_HomesAndLevels(t *testing.T) {
	f := newProbingFixture()
	f.transport.objects["toolhead.homed_axes"] = "xy"
	f.transport.objects["z_tilt.applied"] = false

	resp, err := f.service.Prepare(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !resp.Homed || !resp.Leveled {
		t.Errorf("expected homing and leveling, got %+v", resp)
	}
	if diff := cmp.Diff([]string{"G28", "Z_TILT_ADJUST", "G1 Z25"}, f.transport.sent); diff != "" {
		t.Errorf("sent gcode mismatch (-want +got):\n%s", diff)
	}
}

func TestPrepare_NoLevelingWarns(t *testing.T) {
	f := newProbingFixture()
	cfg := f.transport.objects["configfile.config"].(map[string]any)
	delete(cfg, "z_tilt")

	if _, err := f.service.Prepare(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(f.console.warnings) != 1 || !strings.Contains(f.console.warnings[0], "skipping leveling") {
		t.Errorf("expected leveling warning, got %v", f.console.warnings)
	}
}

func TestPrepare_SafeZPrompt(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		wantZ   float64
		wantErr bool
	}{
		{name: "valid answer", answer: " 12.5\n", wantZ: 12.5},
		{name: "not a number", answer: "abc", wantErr: true},
		{name: "zero", answer: "0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProbingFixture()
			delete(f.transport.objects, "gcode_macro _User_Variables.safe_z")
			f.console.answers = []string{tt.answer}

			resp, err := f.service.Prepare(context.Background())
			if len(f.console.asked) != 1 {
				t.Fatalf("expected operator prompt, got %v", f.console.asked)
			}

			if tt.wantErr {
				var missing *printer.ConfigurationMissingError
				if !errors.As(err, &missing) {
					t.Fatalf("expected ConfigurationMissingError, got %v", err)
				}
				if len(f.transport.sent) != 0 {
					t.Errorf("expected no motion, got %v", f.transport.sent)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.SafeZ != tt.wantZ {
				t.Errorf("expected safe z %v, got %v", tt.wantZ, resp.SafeZ)
			}
		})
	}
}

func TestRunDrift(t *testing.T) {
	f := newProbingFixture()

	result, err := f.service.RunDrift(context.Background(), primary.DriftRequest{Samples: 5})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []string{"G90", "G0 X150.000 Y150.000 F99999", "PROBE_ACCURACY SAMPLES=5"}
	if diff := cmp.Diff(want, f.transport.sent); diff != "" {
		t.Errorf("sent gcode mismatch (-want +got):\n%s", diff)
	}
	if len(result.Samples) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(result.Samples))
	}
	if result.Samples[0].Test != "center 5 samples" || result.Samples[0].Measurement != "center" {
		t.Errorf("unexpected labels %+v", result.Samples[0])
	}
	if len(result.Summary) != 1 || result.Summary[0].Count != 4 {
		t.Errorf("expected one summary of 4 samples, got %+v", result.Summary)
	}
}

func TestRunDrift_RejectsSingleSample(t *testing.T) {
	f := newProbingFixture()

	if _, err := f.service.RunDrift(context.Background(), primary.DriftRequest{Samples: 1}); err == nil {
		t.Fatal("expected error")
	}
	if len(f.transport.sent) != 0 {
		t.Errorf("expected nothing sent, got %v", f.transport.sent)
	}
}

func TestRunRepeatability(t *testing.T) {
	f := newProbingFixture()

	result, err := f.service.RunRepeatability(context.Background(), primary.RepeatabilityRequest{
		Trials:          2,
		SamplesPerTrial: 3,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	sent := f.transport.sent
	// lock + 2 * (G90, G0, G90, G0, M117, PROBE_ACCURACY) + unlock
	if len(sent) != 14 {
		t.Fatalf("expected 14 gcode scripts, got %d: %v", len(sent), sent)
	}
	if sent[0] != "ATTACH_PROBE_LOCK" || sent[len(sent)-1] != "DOCK_PROBE_UNLOCK" {
		t.Errorf("expected lock bracket, got %q ... %q", sent[0], sent[len(sent)-1])
	}
	if sent[4] != "G0 X150.000 Y150.000 F99999" {
		t.Errorf("expected return to center before probing, got %q", sent[4])
	}
	if sent[5] != "M117 repeatability test 1/2" {
		t.Errorf("expected display message, got %q", sent[5])
	}

	if len(result.Samples) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(result.Samples))
	}
	if result.Samples[0].Measurement != "Test #01" || result.Samples[3].Measurement != "Test #02" {
		t.Errorf("unexpected measurements %q, %q", result.Samples[0].Measurement, result.Samples[3].Measurement)
	}
	if len(result.Summary) != 2 {
		t.Errorf("expected a summary per trial, got %d", len(result.Summary))
	}
}

func TestRunRepeatability_ForceDockSkipsLock(t *testing.T) {
	f := newProbingFixture()

	_, err := f.service.RunRepeatability(context.Background(), primary.RepeatabilityRequest{
		Trials:          1,
		SamplesPerTrial: 2,
		ForceDock:       true,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := f.transport.sentWithPrefix("ATTACH_PROBE_LOCK"); len(got) != 0 {
		t.Errorf("expected no lock with force dock, got %v", got)
	}
}

func TestRunCorners(t *testing.T) {
	f := newProbingFixture()

	result, err := f.service.RunCorners(context.Background(), primary.CornersRequest{SamplesPerCorner: 3})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	sent := f.transport.sent
	if sent[0] != "Z_TILT_ADJUST" {
		t.Errorf("expected forced leveling first, got %q", sent[0])
	}
	if sent[1] != "ATTACH_PROBE_LOCK" {
		t.Errorf("expected lock after leveling, got %q", sent[1])
	}
	if sent[3] != "G0 X25.000 Y255.000 F99999" {
		t.Errorf("expected offset-corrected back-left corner, got %q", sent[3])
	}
	if got := f.transport.sentWithPrefix("PROBE_ACCURACY"); len(got) != 4 {
		t.Errorf("expected 4 bursts, got %d", len(got))
	}

	if len(result.Samples) != 8 {
		t.Fatalf("expected 8 samples, got %d", len(result.Samples))
	}
	if result.Samples[0].Test != "corner 1: 3 samples (25, 255)" {
		t.Errorf("unexpected label %q", result.Samples[0].Test)
	}
	if result.Samples[7].Measurement != "4: (275, 5)" {
		t.Errorf("unexpected measurement %q", result.Samples[7].Measurement)
	}
}

func TestRunCorners_RequiresLeveling(t *testing.T) {
	f := newProbingFixture()
	cfg := f.transport.objects["configfile.config"].(map[string]any)
	delete(cfg, "z_tilt")

	_, err := f.service.RunCorners(context.Background(), primary.CornersRequest{SamplesPerCorner: 3})
	if err == nil || !strings.Contains(err.Error(), "z_tilt") {
		t.Fatalf("expected leveling error, got %v", err)
	}
	if len(f.transport.sent) != 0 {
		t.Errorf("expected nothing sent, got %v", f.transport.sent)
	}
}

func TestRunCorners_MissingMesh(t *testing.T) {
	f := newProbingFixture()
	cfg := f.transport.objects["configfile.config"].(map[string]any)
	delete(cfg, "bed_mesh")

	_, err := f.service.RunCorners(context.Background(), primary.CornersRequest{SamplesPerCorner: 3})
	var missing *printer.ConfigurationMissingError
	if !errors.As(err, &missing) || missing.Object != "bed_mesh" {
		t.Fatalf("expected bed_mesh ConfigurationMissingError, got %v", err)
	}
}

func TestRunSuite_PersistsAndUnlocks(t *testing.T) {
	f := newProbingFixture()
	var completed []string

	result, err := f.service.RunSuite(context.Background(), primary.SuiteRequest{
		Repeatability: 2,
		Drift:         4,
		OnTestComplete: func(tr *primary.TestResult) {
			completed = append(completed, tr.Kind)
		},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result.RunID != "RUN-001" {
		t.Errorf("expected RUN-001, got %q", result.RunID)
	}
	if diff := cmp.Diff([]string{"repeatability", "drift"}, completed); diff != "" {
		t.Errorf("test order mismatch (-want +got):\n%s", diff)
	}
	// repeatability: 2 trials * 2 samples; drift: 3 samples
	if result.SampleCount != 7 {
		t.Errorf("expected 7 samples, got %d", result.SampleCount)
	}
	if len(result.Summary) != 3 {
		t.Errorf("expected 3 summary rows, got %d", len(result.Summary))
	}

	run := f.repo.runs["RUN-001"]
	if run.Status != RunStatusComplete || run.CompletedAt == "" {
		t.Errorf("expected completed run, got %+v", run)
	}
	if run.Tests != "repeatability,drift" {
		t.Errorf("expected tests 'repeatability,drift', got %q", run.Tests)
	}
	if len(f.repo.samples["RUN-001"]) != 7 {
		t.Errorf("expected 7 stored samples, got %d", len(f.repo.samples["RUN-001"]))
	}

	sent := f.transport.sent
	if sent[len(sent)-1] != "DOCK_PROBE_UNLOCK" {
		t.Errorf("expected unlock last, got %q", sent[len(sent)-1])
	}
}

func TestRunSuite_NoSamplesFailsRun(t *testing.T) {
	f := newProbingFixture()
	f.transport.respond = faultResponder

	result, err := f.service.RunSuite(context.Background(), primary.SuiteRequest{Corner: 3, Drift: 5})

	var noSamples *burst.NoSamplesError
	if !errors.As(err, &noSamples) {
		t.Fatalf("expected NoSamplesError, got %v", err)
	}
	if !strings.HasPrefix(noSamples.Label, "corner 1") {
		t.Errorf("expected first corner to fail, got %q", noSamples.Label)
	}
	if got := f.transport.sentWithPrefix("PROBE_ACCURACY"); len(got) != 1 {
		t.Errorf("expected the run to stop after the first burst, got %v", got)
	}
	if f.repo.runs[result.RunID].Status != RunStatusFailed {
		t.Errorf("expected failed status, got %q", f.repo.runs[result.RunID].Status)
	}
	sent := f.transport.sent
	if sent[len(sent)-1] != "DOCK_PROBE_UNLOCK" {
		t.Errorf("expected unlock last, got %q", sent[len(sent)-1])
	}
}

func TestRunSuite_InterruptAborts(t *testing.T) {
	f := newProbingFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	base := f.transport.respond
	f.transport.respond = func(script string) []string {
		if script == "G90" {
			cancel()
		}
		return base(script)
	}

	result, err := f.service.RunSuite(ctx, primary.SuiteRequest{Drift: 4})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if f.repo.runs[result.RunID].Status != RunStatusAborted {
		t.Errorf("expected aborted status, got %q", f.repo.runs[result.RunID].Status)
	}
	sent := f.transport.sent
	if sent[len(sent)-1] != "DOCK_PROBE_UNLOCK" {
		t.Errorf("expected unlock after interrupt, got %v", sent)
	}
}

func TestRunSuite_NoSaveAndExport(t *testing.T) {
	f := newProbingFixture()
	f.service.now = func() time.Time { return time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC) }

	result, err := f.service.RunSuite(context.Background(), primary.SuiteRequest{
		Drift:     3,
		NoSave:    true,
		ExportCSV: true,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.RunID != "" || len(f.repo.runs) != 0 {
		t.Errorf("expected nothing persisted, got run %q", result.RunID)
	}

	want := []string{"/tmp/probe_accuracy_test_20261014_0930.csv", "/tmp/probe_accuracy_test_20261014_0930_summary.csv"}
	if diff := cmp.Diff(want, result.ExportPaths); diff != "" {
		t.Errorf("export paths mismatch (-want +got):\n%s", diff)
	}
	if len(f.exporter.samples["probe_accuracy_test_20261014_0930"]) != 2 {
		t.Errorf("expected 2 exported samples")
	}
}

func TestRunSuite_RejectsEmptySelection(t *testing.T) {
	f := newProbingFixture()

	if _, err := f.service.RunSuite(context.Background(), primary.SuiteRequest{}); err == nil {
		t.Fatal("expected error for empty selection")
	}
	if len(f.transport.sent) != 0 {
		t.Errorf("expected nothing sent, got %v", f.transport.sent)
	}
}
