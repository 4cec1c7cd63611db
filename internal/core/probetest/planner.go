package probetest

import (
	"fmt"

	"github.com/example/probeacc/internal/core/effects"
	"github.com/example/probeacc/internal/core/location"
	"github.com/example/probeacc/internal/core/printer"
)

// Kind identifies one of the three test procedures.
type Kind string

const (
	KindCorners       Kind = "corners"
	KindRepeatability Kind = "repeatability"
	KindDrift         Kind = "drift"
)

// DriftMeasurement is the measurement label of the drift test.
const DriftMeasurement = "center"

// Lock is the gcode pair that holds the probe engaged across a procedure.
type Lock struct {
	Acquire string
	Release string
}

// RepeatabilityPlanInput contains pre-fetched data for a repeatability test.
type RepeatabilityPlanInput struct {
	Trials          int
	SamplesPerTrial int
	Center          location.Point
	Perturbations   []location.Point // one random point per trial
	Feedrate        int
	Lock            *Lock // nil when docking between tests is forced
}

// DriftPlanInput contains pre-fetched data for a drift test.
type DriftPlanInput struct {
	Samples  int
	Center   location.Point
	Feedrate int
}

// CornersPlanInput contains pre-fetched data for a corner test.
type CornersPlanInput struct {
	SamplesPerCorner int
	Corners          [4]location.Point
	Leveling         printer.Leveling
	Feedrate         int
	Lock             *Lock
}

// Plan represents the planned effects of one test procedure.
type Plan struct {
	Kind    Kind
	Title   string
	Effects []effects.Effect
}

// RepeatabilityLabel is the burst label of trial i (1-based).
func RepeatabilityLabel(trial, samples int) string {
	return fmt.Sprintf("trial %02d: center %d samples", trial, samples)
}

// RepeatabilityMeasurement is the measurement label of trial i (1-based).
func RepeatabilityMeasurement(trial int) string {
	return fmt.Sprintf("Test #%02d", trial)
}

// DriftLabel is the burst label of the drift test.
func DriftLabel(samples int) string {
	return fmt.Sprintf("center %d samples", samples)
}

// CornerLabel is the burst label of corner i (1-based).
func CornerLabel(corner, samples int, p location.Point) string {
	return fmt.Sprintf("corner %d: %d samples %s", corner, samples, p)
}

// CornerMeasurement is the measurement label of corner i (1-based).
func CornerMeasurement(corner int, p location.Point) string {
	return fmt.Sprintf("%d: %s", corner, p)
}

// PlanRepeatability perturbs the toolhead to a random point and returns it to
// the bed center before every trial, so motion repeatability shows up in the
// results alongside probe noise.
// This is a pure function - perturbation points must be pre-computed.
func PlanRepeatability(input RepeatabilityPlanInput) (Plan, error) {
	if len(input.Perturbations) != input.Trials {
		return Plan{}, fmt.Errorf("need %d perturbation points, got %d", input.Trials, len(input.Perturbations))
	}

	var body []effects.Effect
	for i := 1; i <= input.Trials; i++ {
		body = append(body,
			effects.MoveEffect{Target: input.Perturbations[i-1], Feedrate: input.Feedrate, Reason: "perturb"},
			effects.MoveEffect{Target: input.Center, Feedrate: input.Feedrate, Reason: "center"},
			effects.DisplayEffect{Message: fmt.Sprintf("repeatability test %d/%d", i, input.Trials)},
			effects.AcquireEffect{
				Samples:     input.SamplesPerTrial,
				Test:        RepeatabilityLabel(i, input.SamplesPerTrial),
				Measurement: RepeatabilityMeasurement(i),
			},
		)
	}

	return Plan{
		Kind:    KindRepeatability,
		Title:   fmt.Sprintf("Take %d probe_accuracy tests to check for repeatability", input.Trials),
		Effects: withLock(input.Lock, body),
	}, nil
}

// PlanDrift takes one long burst at the bed center with no intermediate motion.
func PlanDrift(input DriftPlanInput) Plan {
	return Plan{
		Kind:  KindDrift,
		Title: fmt.Sprintf("Take %d samples in a row to check for drift", input.Samples),
		Effects: []effects.Effect{
			effects.MoveEffect{Target: input.Center, Feedrate: input.Feedrate, Reason: "center"},
			effects.AcquireEffect{
				Samples:     input.Samples,
				Test:        DriftLabel(input.Samples),
				Measurement: DriftMeasurement,
			},
		},
	}
}

// PlanCorners forces leveling, then probes each mesh corner in order while the
// probe stays locked.
func PlanCorners(input CornersPlanInput) Plan {
	var body []effects.Effect
	for i, p := range input.Corners {
		n := i + 1
		body = append(body,
			effects.MoveEffect{Target: p, Feedrate: input.Feedrate, Reason: "corner"},
			effects.DisplayEffect{Message: fmt.Sprintf("corner test %d/%d", n, len(input.Corners))},
			effects.AcquireEffect{
				Samples:     input.SamplesPerCorner,
				Test:        CornerLabel(n, input.SamplesPerCorner, p),
				Measurement: CornerMeasurement(n, p),
			},
		)
	}

	level, _ := printer.LevelEffects(&input.Leveling, true, true)

	return Plan{
		Kind:    KindCorners,
		Title:   "Test probe around the bed to see if there are issues with individual drives",
		Effects: append(level, withLock(input.Lock, body)...),
	}
}

func withLock(lock *Lock, body []effects.Effect) []effects.Effect {
	if lock == nil {
		return body
	}
	return []effects.Effect{effects.LockEffect{Acquire: lock.Acquire, Release: lock.Release, Body: body}}
}
