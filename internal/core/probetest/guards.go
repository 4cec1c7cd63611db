// Package probetest contains the pure business logic for the probe accuracy tests.
// Guards are pure functions that evaluate preconditions without side effects.
// Planners turn pre-fetched printer geometry into effect sequences.
package probetest

import (
	"fmt"
	"strings"
)

// MinSamples is the smallest burst that still yields a sample after the
// transient discard.
const MinSamples = 2

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// AcquireContext provides context for a single burst request.
type AcquireContext struct {
	Test    string
	Samples int
}

// RepeatabilityContext provides context for repeatability test guards.
type RepeatabilityContext struct {
	Trials          int
	SamplesPerTrial int
}

// CornersContext provides context for corner test guards.
type CornersContext struct {
	SamplesPerCorner   int
	LevelingConfigured bool
}

// SuiteContext provides context for a full run.
type SuiteContext struct {
	Corner        int
	Repeatability int
	Drift         int
}

// CanAcquire evaluates whether a burst can be requested.
// Rules:
// - Sample count must leave at least one sample after the discard
func CanAcquire(ctx AcquireContext) GuardResult {
	if ctx.Samples < MinSamples {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("%s: %d samples requested, at least %d needed (the first sample of each burst is discarded)", ctx.Test, ctx.Samples, MinSamples),
		}
	}
	return GuardResult{Allowed: true}
}

// CanRunRepeatability evaluates whether a repeatability test can start.
// Rules:
// - At least one trial
// - Each trial burst must pass CanAcquire
func CanRunRepeatability(ctx RepeatabilityContext) GuardResult {
	if ctx.Trials < 1 {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("repeatability test needs at least 1 trial (got %d)", ctx.Trials),
		}
	}
	return CanAcquire(AcquireContext{Test: "repeatability", Samples: ctx.SamplesPerTrial})
}

// CanRunCorners evaluates whether a corner test can start.
// Rules:
// - Leveling must be configured (it is forced before the test)
// - Each corner burst must pass CanAcquire
func CanRunCorners(ctx CornersContext) GuardResult {
	if !ctx.LevelingConfigured {
		return GuardResult{
			Allowed: false,
			Reason:  "corner test requires [z_tilt] or [quad_gantry_level] in printer.cfg",
		}
	}
	return CanAcquire(AcquireContext{Test: "corner", Samples: ctx.SamplesPerCorner})
}

// CanRunSuite evaluates whether a run has a valid test selection.
// Rules:
// - No negative counts
// - At least one test selected
func CanRunSuite(ctx SuiteContext) GuardResult {
	var negative []string
	if ctx.Corner < 0 {
		negative = append(negative, "corner")
	}
	if ctx.Repeatability < 0 {
		negative = append(negative, "repeatability")
	}
	if ctx.Drift < 0 {
		negative = append(negative, "drift")
	}
	if len(negative) > 0 {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("negative count for %s", strings.Join(negative, ", ")),
		}
	}
	if ctx.Corner == 0 && ctx.Repeatability == 0 && ctx.Drift == 0 {
		return GuardResult{
			Allowed: false,
			Reason:  "no test selected",
		}
	}
	return GuardResult{Allowed: true}
}
