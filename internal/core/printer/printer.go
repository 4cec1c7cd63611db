// Package printer interprets printer state queried from the host into typed
// values. Functions here are pure: the caller fetches the raw values.
package printer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/example/probeacc/internal/core/location"
)

// Queried objects and keys.
const (
	ObjectToolhead   = "toolhead"
	ObjectConfigfile = "configfile"

	KeyAxisMinimum = "axis_minimum"
	KeyAxisMaximum = "axis_maximum"
	KeyHomedAxes   = "homed_axes"
	KeyConfig      = "config"
	KeyApplied     = "applied"
)

// ConfigurationMissingError reports printer state that must exist for a test
// to run. It is surfaced to the operator, never guessed.
type ConfigurationMissingError struct {
	Object string
	Key    string
	Hint   string
}

func (e *ConfigurationMissingError) Error() string {
	msg := fmt.Sprintf("printer configuration missing: %s", e.Object)
	if e.Key != "" {
		msg += "." + e.Key
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// Leveling describes the gantry leveling method configured on the printer.
type Leveling struct {
	Section string // config section and queryable object, e.g. "z_tilt"
	Gcode   string // command that applies it
}

var levelingMethods = []Leveling{
	{Section: "z_tilt", Gcode: "Z_TILT_ADJUST"},
	{Section: "quad_gantry_level", Gcode: "QUAD_GANTRY_LEVEL"},
}

// Config is the printer's parsed configfile.config object: section -> option -> raw value.
type Config map[string]map[string]string

// ParseConfig converts the decoded configfile.config value into a Config.
func ParseConfig(raw any) (Config, error) {
	sections, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config: expected object, got %T", raw)
	}
	cfg := make(Config, len(sections))
	for name, body := range sections {
		opts, ok := body.(map[string]any)
		if !ok {
			continue
		}
		section := make(map[string]string, len(opts))
		for k, v := range opts {
			section[k] = fmt.Sprint(v)
		}
		cfg[name] = section
	}
	return cfg, nil
}

// Leveling returns the configured leveling method, z_tilt taking precedence.
func (c Config) Leveling() (Leveling, bool) {
	for _, m := range levelingMethods {
		if _, ok := c[m.Section]; ok {
			return m, true
		}
	}
	return Leveling{}, false
}

// ProbeOffset returns the [probe] x_offset/y_offset.
func (c Config) ProbeOffset() (location.Offset, error) {
	section, ok := c["probe"]
	if !ok {
		return location.Offset{}, &ConfigurationMissingError{Object: "probe", Hint: "add a [probe] section"}
	}
	x, err := optionFloat(section, "probe", "x_offset")
	if err != nil {
		return location.Offset{}, err
	}
	y, err := optionFloat(section, "probe", "y_offset")
	if err != nil {
		return location.Offset{}, err
	}
	return location.Offset{X: x, Y: y}, nil
}

// MeshBounds returns the [bed_mesh] mesh_min/mesh_max rectangle.
func (c Config) MeshBounds() (location.Bounds, error) {
	section, ok := c["bed_mesh"]
	if !ok {
		return location.Bounds{}, &ConfigurationMissingError{Object: "bed_mesh", Hint: "add a [bed_mesh] section"}
	}
	minRaw, ok := section["mesh_min"]
	if !ok {
		return location.Bounds{}, &ConfigurationMissingError{Object: "bed_mesh", Key: "mesh_min"}
	}
	maxRaw, ok := section["mesh_max"]
	if !ok {
		return location.Bounds{}, &ConfigurationMissingError{Object: "bed_mesh", Key: "mesh_max"}
	}
	lo, err := ParsePair(minRaw)
	if err != nil {
		return location.Bounds{}, fmt.Errorf("bed_mesh.mesh_min: %w", err)
	}
	hi, err := ParsePair(maxRaw)
	if err != nil {
		return location.Bounds{}, fmt.Errorf("bed_mesh.mesh_max: %w", err)
	}
	return location.Bounds{XMin: lo.X, YMin: lo.Y, XMax: hi.X, YMax: hi.Y}, nil
}

var pairRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ParsePair parses a config coordinate such as "25, 25".
func ParsePair(s string) (location.Point, error) {
	nums := pairRe.FindAllString(s, -1)
	if len(nums) != 2 {
		return location.Point{}, fmt.Errorf("expected two numbers in %q", s)
	}
	x, _ := strconv.ParseFloat(nums[0], 64)
	y, _ := strconv.ParseFloat(nums[1], 64)
	return location.Point{X: x, Y: y}, nil
}

// AxisBounds converts toolhead axis_minimum/axis_maximum ([x, y, z, e]) to XY bounds.
func AxisBounds(minRaw, maxRaw any) (location.Bounds, error) {
	lo, err := floatList(minRaw)
	if err != nil {
		return location.Bounds{}, fmt.Errorf("axis_minimum: %w", err)
	}
	hi, err := floatList(maxRaw)
	if err != nil {
		return location.Bounds{}, fmt.Errorf("axis_maximum: %w", err)
	}
	return location.Bounds{XMin: lo[0], YMin: lo[1], XMax: hi[0], YMax: hi[1]}, nil
}

// NeedsHoming reports whether any of x, y, z is missing from homed_axes.
func NeedsHoming(homedAxes string) bool {
	axes := strings.ToLower(homedAxes)
	return !strings.Contains(axes, "x") || !strings.Contains(axes, "y") || !strings.Contains(axes, "z")
}

// SafeZ interprets a macro variable holding the safe travel height.
// Absent, zero or non-numeric values are reported as not set.
func SafeZ(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, v > 0
	case int:
		return float64(v), v > 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, f > 0
	default:
		return 0, false
	}
}

// Truthy interprets a queried flag such as z_tilt.applied.
func Truthy(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	case float64:
		return v != 0
	default:
		return false
	}
}

func optionFloat(section map[string]string, object, key string) (float64, error) {
	raw, ok := section[key]
	if !ok {
		return 0, &ConfigurationMissingError{Object: object, Key: key}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%s.%s: %w", object, key, err)
	}
	return v, nil
}

func floatList(raw any) ([]float64, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("expected list, got %T", raw)
	}
	if len(items) < 2 {
		return nil, fmt.Errorf("expected at least 2 values, got %d", len(items))
	}
	out := make([]float64, len(items))
	for i, it := range items {
		f, ok := it.(float64)
		if !ok {
			return nil, fmt.Errorf("value %d: expected number, got %T", i, it)
		}
		out[i] = f
	}
	return out, nil
}
