// Package effects defines effect types as data structures representing printer I/O.
// This is the foundation of the Functional Core / Imperative Shell pattern.
// Effects are pure data - they describe what should happen, not how.
package effects

import "github.com/example/probeacc/internal/core/location"

// Effect is the base interface for all effects.
// Effects represent I/O operations as data that can be interpreted by the shell.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// LogEffect represents a logging operation.
type LogEffect struct {
	Level   string
	Message string
	Fields  map[string]any
}

func (e LogEffect) EffectType() string { return "log" }

// GcodeEffect sends a raw gcode script to the printer.
type GcodeEffect struct {
	Script string
}

func (e GcodeEffect) EffectType() string { return "gcode" }

// MoveEffect moves the toolhead to an absolute XY position.
type MoveEffect struct {
	Target   location.Point
	Feedrate int // mm/min
	Reason   string
}

func (e MoveEffect) EffectType() string { return "move" }

// DisplayEffect shows a status message on the printer display (M117).
type DisplayEffect struct {
	Message string
}

func (e DisplayEffect) EffectType() string { return "display" }

// AcquireEffect runs one probe burst and collects its samples.
type AcquireEffect struct {
	Samples     int    // requested PROBE_ACCURACY samples, including the discarded one
	Test        string // burst label
	Measurement string // trial or corner label
}

func (e AcquireEffect) EffectType() string { return "acquire" }

// LockEffect holds the probe engaged for the duration of Body.
// Release must run even when Body fails or is interrupted.
type LockEffect struct {
	Acquire string // gcode that attaches and locks the probe
	Release string // gcode that docks and unlocks the probe
	Body    []Effect
}

func (e LockEffect) EffectType() string { return "lock" }

// CompositeEffect holds multiple effects to be executed in sequence.
type CompositeEffect struct {
	Effects []Effect
}

func (e CompositeEffect) EffectType() string { return "composite" }

// NoEffect represents an operation that produces no side effects.
type NoEffect struct{}

func (e NoEffect) EffectType() string { return "none" }

// Count returns the number of effects of the given type in effs, descending
// into lock bodies and composites.
func Count(effs []Effect, effectType string) int {
	n := 0
	for _, e := range effs {
		if e.EffectType() == effectType {
			n++
		}
		switch typed := e.(type) {
		case LockEffect:
			n += Count(typed.Body, effectType)
		case CompositeEffect:
			n += Count(typed.Effects, effectType)
		}
	}
	return n
}
