// Package burst parses the correlated response lines of one probe acquisition
// into measurement samples.
//
// The first measurement of every burst is discarded unconditionally: a
// just-engaged probe reports a settling value that is not comparable with the
// rest. The rule is the same for every test type so their summaries can be
// compared.
package burst

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/example/probeacc/internal/core/measurement"
)

// DiscardFirst is the transient discard rule. It is not configurable per call.
const DiscardFirst = true

// Default line prefixes as emitted by Klipper's PROBE_ACCURACY.
const (
	DefaultMeasurementPrefix = "probe at"
	DefaultErrorPrefix       = "!!"
)

// commentMarker is prepended by the host to informational responses.
const commentMarker = "//"

var numberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ParsePolicy selects which response lines are measurements and which are faults.
type ParsePolicy struct {
	MeasurementPrefix string
	ErrorPrefix       string
}

// DefaultPolicy returns the policy matching stock Klipper output.
func DefaultPolicy() ParsePolicy {
	return ParsePolicy{
		MeasurementPrefix: DefaultMeasurementPrefix,
		ErrorPrefix:       DefaultErrorPrefix,
	}
}

// SensorFault is an error line reported by the printer during a burst.
// Faults are warnings: parsing continues with the remaining lines.
type SensorFault struct {
	Message string
}

func (f SensorFault) Error() string {
	return fmt.Sprintf("sensor fault: %s", f.Message)
}

// NoSamplesError is returned when a burst yields no usable samples after the
// transient discard. It is fatal for the whole run.
type NoSamplesError struct {
	Label    string
	RawCount int
}

func (e *NoSamplesError) Error() string {
	return fmt.Sprintf("no measurements collected for %q (%d raw measurement lines)", e.Label, e.RawCount)
}

// Burst is the parsed result of one command/response correlation cycle.
type Burst struct {
	Label     string
	Samples   measurement.Table
	Faults    []SensorFault
	Malformed []string // measurement-prefixed lines without exactly three numbers
	RawCount  int      // measurement lines before discard
}

// Parse extracts samples labeled label from lines.
func Parse(lines []string, label string, policy ParsePolicy) (*Burst, error) {
	b := &Burst{Label: label}

	var raw measurement.Table
	for _, line := range lines {
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), commentMarker))

		if policy.ErrorPrefix != "" && strings.HasPrefix(strings.TrimSpace(line), policy.ErrorPrefix) {
			b.Faults = appendFault(b.Faults, strings.TrimSpace(line))
			continue
		}
		if !strings.HasPrefix(text, policy.MeasurementPrefix) {
			continue
		}

		x, y, z, ok := parseCoordinates(strings.TrimPrefix(text, policy.MeasurementPrefix))
		if !ok {
			b.Malformed = append(b.Malformed, line)
			continue
		}
		raw = append(raw, measurement.Sample{Test: label, Index: len(raw), X: x, Y: y, Z: z})
	}

	b.RawCount = len(raw)
	if DiscardFirst && len(raw) > 0 {
		raw = raw[1:]
	}
	if len(raw) == 0 {
		return b, &NoSamplesError{Label: label, RawCount: b.RawCount}
	}

	b.Samples = make(measurement.Table, len(raw))
	for i, s := range raw {
		s.Index = i
		b.Samples[i] = s
	}
	return b, nil
}

// Warnings returns the operator-facing warnings of the burst for a request of
// requested samples: every distinct fault, malformed lines, and a short-burst
// notice when the count differs from requested-1.
func (b *Burst) Warnings(requested int) []string {
	var out []string
	for _, f := range b.Faults {
		out = append(out, f.Error())
	}
	for _, m := range b.Malformed {
		out = append(out, fmt.Sprintf("unparseable measurement line: %q", m))
	}
	if want := requested - 1; requested > 0 && len(b.Samples) != want {
		out = append(out, fmt.Sprintf("expected %d samples after discard, got %d (response log lookback may be too small)", want, len(b.Samples)))
	}
	return out
}

func appendFault(faults []SensorFault, msg string) []SensorFault {
	for _, f := range faults {
		if f.Message == msg {
			return faults
		}
	}
	return append(faults, SensorFault{Message: msg})
}

func parseCoordinates(s string) (x, y, z float64, ok bool) {
	nums := numberRe.FindAllString(s, -1)
	if len(nums) != 3 {
		return 0, 0, 0, false
	}
	vals := make([]float64, 3)
	for i, n := range nums {
		v, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, 0, 0, false
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], true
}
