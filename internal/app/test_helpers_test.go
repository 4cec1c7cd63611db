package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"go.uber.org/zap"

	"github.com/example/probeacc/internal/core/burst"
	"github.com/example/probeacc/internal/ports/secondary"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// Ensure mocks implement the interfaces
var (
	_ secondary.PrinterTransport = (*mockTransport)(nil)
	_ secondary.OperatorConsole  = (*mockConsole)(nil)
	_ secondary.RunRepository    = (*mockRunRepository)(nil)
	_ secondary.TableExporter    = (*mockExporter)(nil)
)

// mockTransport simulates a printer host: every sent script is echoed into
// the gcode store followed by whatever respond returns for it.
type mockTransport struct {
	objects  map[string]any // "object.key" -> value
	sent     []string
	log      []*secondary.LogEntryRecord
	now      float64
	respond  func(script string) []string
	sendErrs map[string]error
	queryErr error
	storeErr error
}

func newMockTransport() *mockTransport {
	m := &mockTransport{
		objects: map[string]any{
			"toolhead.homed_axes":   "xyz",
			"toolhead.axis_minimum": []any{0.0, 0.0, -5.0, 0.0},
			"toolhead.axis_maximum": []any{300.0, 300.0, 250.0, 0.0},
			"configfile.config": map[string]any{
				"probe":    map[string]any{"x_offset": "0", "y_offset": "25"},
				"bed_mesh": map[string]any{"mesh_min": "25, 30", "mesh_max": "275, 280"},
				"z_tilt":   map[string]any{"z_positions": "-50,18\n150,348\n350,18"},
			},
			"z_tilt.applied":                    true,
			"gcode_macro _User_Variables.safe_z": 25.0,
		},
		respond:  probeResponder(1.0),
		sendErrs: make(map[string]error),
	}
	m.emit("response", "// Klipper state: Ready")
	return m
}

func (m *mockTransport) emit(typ string, lines ...string) {
	for _, l := range lines {
		m.now += 0.25
		m.log = append(m.log, &secondary.LogEntryRecord{Time: m.now, Message: l, Type: typ})
	}
}

func (m *mockTransport) SendGcode(ctx context.Context, script string) error {
	if err := ctx.Err(); err != nil {
		return &secondary.TransportError{Op: "gcode", Err: err}
	}
	m.sent = append(m.sent, script)
	m.emit("command", script)
	if m.respond != nil {
		m.emit("response", m.respond(script)...)
	}
	return m.sendErrs[script]
}

func (m *mockTransport) QueryObject(ctx context.Context, object, key string) (any, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.objects[object+"."+key], nil
}

func (m *mockTransport) GcodeStore(ctx context.Context, count int) ([]*secondary.LogEntryRecord, error) {
	if m.storeErr != nil {
		return nil, m.storeErr
	}
	start := len(m.log) - count
	if start < 0 {
		start = 0
	}
	out := make([]*secondary.LogEntryRecord, len(m.log)-start)
	copy(out, m.log[start:])
	return out, nil
}

// sentWithPrefix returns the sent scripts starting with prefix.
func (m *mockTransport) sentWithPrefix(prefix string) []string {
	var out []string
	for _, s := range m.sent {
		if strings.HasPrefix(s, prefix) {
			out = append(out, s)
		}
	}
	return out
}

// probeResponder answers PROBE_ACCURACY the way Klipper does: a header, one
// "probe at" line per sample with z rising by 0.001, then a results line.
func probeResponder(baseZ float64) func(string) []string {
	return func(script string) []string {
		var n int
		if _, err := fmt.Sscanf(script, "PROBE_ACCURACY SAMPLES=%d", &n); err != nil {
			return nil
		}
		lines := []string{fmt.Sprintf("// PROBE_ACCURACY at X:150.000 Y:150.000 Z:10.000 (samples=%d retract=2.000 speed=5.0 lift_speed=5.0)", n)}
		for i := 0; i < n; i++ {
			lines = append(lines, fmt.Sprintf("// probe at 150.000,150.000 is z=%.6f", baseZ+float64(i)*0.001))
		}
		return append(lines, "// probe accuracy results: maximum 1.009000, minimum 1.000000, range 0.009000")
	}
}

// faultResponder answers PROBE_ACCURACY with a sensor error only.
func faultResponder(script string) []string {
	if strings.HasPrefix(script, "PROBE_ACCURACY") {
		return []string{"!! Probe triggered prior to movement"}
	}
	return nil
}

// mockConsole implements secondary.OperatorConsole for testing.
type mockConsole struct {
	answers  []string
	asked    []string
	progress []string
	warnings []string
	askErr   error
}

func (m *mockConsole) Ask(ctx context.Context, prompt string) (string, error) {
	m.asked = append(m.asked, prompt)
	if m.askErr != nil {
		return "", m.askErr
	}
	if len(m.answers) == 0 {
		return "", errors.New("no answer scripted")
	}
	a := m.answers[0]
	m.answers = m.answers[1:]
	return a, nil
}

func (m *mockConsole) Progress(message string) {
	m.progress = append(m.progress, message)
}

func (m *mockConsole) Warn(label, message string) {
	m.warnings = append(m.warnings, label+": "+message)
}

// mockRunRepository implements secondary.RunRepository for testing.
type mockRunRepository struct {
	runs      map[string]*secondary.RunRecord
	samples   map[string][]*secondary.SampleRecord
	nextID    int
	createErr error
	appendErr error
}

func newMockRunRepository() *mockRunRepository {
	return &mockRunRepository{
		runs:    make(map[string]*secondary.RunRecord),
		samples: make(map[string][]*secondary.SampleRecord),
		nextID:  1,
	}
}

func (m *mockRunRepository) Create(ctx context.Context, run *secondary.RunRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.runs[run.ID] = run
	return nil
}

func (m *mockRunRepository) GetByID(ctx context.Context, id string) (*secondary.RunRecord, error) {
	if run, ok := m.runs[id]; ok {
		run.SampleCount = len(m.samples[id])
		return run, nil
	}
	return nil, fmt.Errorf("run %s not found", id)
}

func (m *mockRunRepository) List(ctx context.Context, filters secondary.RunFilters) ([]*secondary.RunRecord, error) {
	var result []*secondary.RunRecord
	for _, run := range m.runs {
		if filters.Status != "" && run.Status != filters.Status {
			continue
		}
		result = append(result, run)
	}
	return result, nil
}

func (m *mockRunRepository) UpdateStatus(ctx context.Context, id, status string, setCompleted bool) error {
	run, ok := m.runs[id]
	if !ok {
		return fmt.Errorf("run %s not found", id)
	}
	run.Status = status
	if setCompleted {
		run.CompletedAt = "2026-10-14 09:30:00"
	}
	return nil
}

func (m *mockRunRepository) AppendSamples(ctx context.Context, runID string, samples []*secondary.SampleRecord) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.samples[runID] = append(m.samples[runID], samples...)
	return nil
}

func (m *mockRunRepository) GetSamples(ctx context.Context, runID string) ([]*secondary.SampleRecord, error) {
	return m.samples[runID], nil
}

func (m *mockRunRepository) GetNextID(ctx context.Context) (string, error) {
	id := fmt.Sprintf("RUN-%03d", m.nextID)
	m.nextID++
	return id, nil
}

// mockExporter implements secondary.TableExporter for testing.
type mockExporter struct {
	samples map[string][]*secondary.SampleRecord
	summary map[string][]*secondary.SummaryRow
	err     error
}

func newMockExporter() *mockExporter {
	return &mockExporter{
		samples: make(map[string][]*secondary.SampleRecord),
		summary: make(map[string][]*secondary.SummaryRow),
	}
}

func (m *mockExporter) ExportSamples(ctx context.Context, name string, samples []*secondary.SampleRecord) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.samples[name] = samples
	return "/tmp/" + name + ".csv", nil
}

func (m *mockExporter) ExportSummary(ctx context.Context, name string, rows []*secondary.SummaryRow) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.summary[name] = rows
	return "/tmp/" + name + ".csv", nil
}

// ============================================================================
// Fixtures
// ============================================================================

func testSettings() ProbeSettings {
	return ProbeSettings{
		RandomMargin:         50,
		Feedrate:             99999,
		LockGcode:            "ATTACH_PROBE_LOCK",
		UnlockGcode:          "DOCK_PROBE_UNLOCK",
		SafeZObject:          "gcode_macro _User_Variables",
		SafeZKey:             "safe_z",
		RepeatabilitySamples: 3,
	}
}

type probingFixture struct {
	transport *mockTransport
	console   *mockConsole
	repo      *mockRunRepository
	exporter  *mockExporter
	service   *ProbeTestServiceImpl
}

func newProbingFixture() *probingFixture {
	f := &probingFixture{
		transport: newMockTransport(),
		console:   &mockConsole{},
		repo:      newMockRunRepository(),
		exporter:  newMockExporter(),
	}
	logger := zap.NewNop()
	acquisition := NewAcquisitionService(f.transport, DefaultLookback, burst.DefaultPolicy(), logger)
	executor := NewEffectExecutor(f.transport, acquisition, f.console, logger)
	f.service = NewProbeTestService(
		f.transport, executor, f.repo, f.exporter, f.console,
		testSettings(), rand.New(rand.NewSource(1)), logger,
	)
	return f
}
