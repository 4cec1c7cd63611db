package printer

import (
	"fmt"
	"strconv"

	"github.com/example/probeacc/internal/core/effects"
)

// PreparationInput contains pre-fetched printer state for run preparation.
type PreparationInput struct {
	HomedAxes       string
	Leveling        *Leveling // nil when no leveling section is configured
	LevelingApplied bool
	SafeZ           float64
}

// PreparationPlan represents the planned effects that bring the printer into a
// known state before testing.
type PreparationPlan struct {
	Effects  []effects.Effect
	Warnings []string
}

// PlanPreparation homes if needed, levels if not yet applied, and moves to safe Z.
// This is a pure function - all input data must be pre-fetched.
func PlanPreparation(input PreparationInput) PreparationPlan {
	var plan PreparationPlan

	if NeedsHoming(input.HomedAxes) {
		plan.Effects = append(plan.Effects,
			effects.LogEffect{Level: "info", Message: "Homing"},
			effects.GcodeEffect{Script: "G28"},
		)
	}

	plan.Effects = append(plan.Effects, levelEffects(input.Leveling, input.LevelingApplied, false, &plan.Warnings)...)

	plan.Effects = append(plan.Effects, effects.GcodeEffect{Script: SafeZGcode(input.SafeZ)})
	return plan
}

// LevelEffects returns the effects that apply gantry leveling. With force the
// leveling runs even when the printer reports it as applied.
func LevelEffects(lv *Leveling, applied, force bool) ([]effects.Effect, []string) {
	var warnings []string
	effs := levelEffects(lv, applied, force, &warnings)
	return effs, warnings
}

func levelEffects(lv *Leveling, applied, force bool, warnings *[]string) []effects.Effect {
	if lv == nil {
		*warnings = append(*warnings, "no leveling gcode configured; check printer.cfg [z_tilt] or [quad_gantry_level]; skipping leveling")
		return nil
	}
	if applied && !force {
		return nil
	}
	return []effects.Effect{
		effects.LogEffect{Level: "info", Message: fmt.Sprintf("Leveling (%s)", lv.Gcode)},
		effects.GcodeEffect{Script: lv.Gcode},
	}
}

// SafeZGcode returns the move to the safe travel height.
func SafeZGcode(z float64) string {
	return "G1 Z" + strconv.FormatFloat(z, 'f', -1, 64)
}
