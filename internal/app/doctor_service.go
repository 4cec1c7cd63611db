package app

import (
	"context"
	"fmt"

	"github.com/example/probeacc/internal/core/location"
	"github.com/example/probeacc/internal/core/printer"
	"github.com/example/probeacc/internal/ports/primary"
	"github.com/example/probeacc/internal/ports/secondary"
)

// DoctorServiceImpl implements the DoctorService interface.
type DoctorServiceImpl struct {
	transport secondary.PrinterTransport
	settings  ProbeSettings
}

// NewDoctorService creates a new DoctorService with injected dependencies.
func NewDoctorService(transport secondary.PrinterTransport, settings ProbeSettings) *DoctorServiceImpl {
	return &DoctorServiceImpl{transport: transport, settings: settings}
}

// Check queries the printer for everything the test procedures need.
// When the host is unreachable only the connectivity result is returned.
func (s *DoctorServiceImpl) Check(ctx context.Context) []*primary.CheckResult {
	homed, err := s.transport.QueryObject(ctx, printer.ObjectToolhead, printer.KeyHomedAxes)
	if err != nil {
		return []*primary.CheckResult{fail("Connectivity", err.Error())}
	}
	results := []*primary.CheckResult{pass("Connectivity")}

	homedAxes, _ := homed.(string)
	if printer.NeedsHoming(homedAxes) {
		results = append(results, warn("Homed axes", fmt.Sprintf("homed_axes is %q; the run will home first", homedAxes)))
	} else {
		results = append(results, pass("Homed axes"))
	}

	results = append(results, s.checkAxes(ctx))

	raw, err := s.transport.QueryObject(ctx, printer.ObjectConfigfile, printer.KeyConfig)
	if err != nil {
		return append(results, fail("Printer config", err.Error()))
	}
	cfg, err := printer.ParseConfig(raw)
	if err != nil {
		return append(results, fail("Printer config", err.Error()))
	}

	if lv, ok := cfg.Leveling(); ok {
		results = append(results, passWith("Leveling", lv.Gcode))
	} else {
		results = append(results, warn("Leveling", "no [z_tilt] or [quad_gantry_level]; the corner test cannot run"))
	}

	if offset, err := cfg.ProbeOffset(); err != nil {
		results = append(results, fail("Probe offsets", err.Error()))
	} else {
		results = append(results, passWith("Probe offsets", fmt.Sprintf("x=%g y=%g", offset.X, offset.Y)))
	}

	if mesh, err := cfg.MeshBounds(); err != nil {
		results = append(results, fail("Mesh bounds", err.Error()))
	} else {
		results = append(results, passWith("Mesh bounds", fmt.Sprintf("%s to %s",
			location.Point{X: mesh.XMin, Y: mesh.YMin}, location.Point{X: mesh.XMax, Y: mesh.YMax})))
	}

	return append(results, s.checkSafeZ(ctx))
}

func (s *DoctorServiceImpl) checkAxes(ctx context.Context) *primary.CheckResult {
	lo, err := s.transport.QueryObject(ctx, printer.ObjectToolhead, printer.KeyAxisMinimum)
	if err != nil {
		return fail("Axis limits", err.Error())
	}
	hi, err := s.transport.QueryObject(ctx, printer.ObjectToolhead, printer.KeyAxisMaximum)
	if err != nil {
		return fail("Axis limits", err.Error())
	}
	axis, err := printer.AxisBounds(lo, hi)
	if err != nil {
		return fail("Axis limits", err.Error())
	}
	if axis.XMax-axis.XMin <= 2*s.settings.RandomMargin || axis.YMax-axis.YMin <= 2*s.settings.RandomMargin {
		return warn("Axis limits", fmt.Sprintf("random_margin %g leaves no room to move; perturbation collapses to the center", s.settings.RandomMargin))
	}
	return passWith("Axis limits", fmt.Sprintf("center %s", location.BedCenter(axis)))
}

func (s *DoctorServiceImpl) checkSafeZ(ctx context.Context) *primary.CheckResult {
	raw, err := s.transport.QueryObject(ctx, s.settings.SafeZObject, s.settings.SafeZKey)
	if err != nil {
		return fail("Safe Z", err.Error())
	}
	z, ok := printer.SafeZ(raw)
	if !ok {
		return warn("Safe Z", fmt.Sprintf("%s.%s is not set; the run will ask for it", s.settings.SafeZObject, s.settings.SafeZKey))
	}
	return passWith("Safe Z", fmt.Sprintf("%g", z))
}

func pass(name string) *primary.CheckResult {
	return &primary.CheckResult{Name: name, Status: primary.CheckPass}
}

func passWith(name, details string) *primary.CheckResult {
	return &primary.CheckResult{Name: name, Status: primary.CheckPass, Details: details}
}

func warn(name, details string) *primary.CheckResult {
	return &primary.CheckResult{Name: name, Status: primary.CheckWarn, Details: details}
}

func fail(name, details string) *primary.CheckResult {
	return &primary.CheckResult{Name: name, Status: primary.CheckFail, Details: details}
}

// Ensure DoctorServiceImpl implements the interface
var _ primary.DoctorService = (*DoctorServiceImpl)(nil)
