// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/probeacc/internal/core/effects"
	"github.com/example/probeacc/internal/core/measurement"
	"github.com/example/probeacc/internal/ports/primary"
	"github.com/example/probeacc/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place printer I/O happens.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) (*Execution, error)
}

// Execution collects what the acquire effects of a plan produced.
// On error it holds everything gathered before the failure.
type Execution struct {
	Table    measurement.Table
	Warnings []*primary.Warning
}

// PrinterEffectExecutor implements EffectExecutor against a printer transport.
type PrinterEffectExecutor struct {
	transport   secondary.PrinterTransport
	acquisition *AcquisitionService
	console     secondary.OperatorConsole
	logger      *zap.Logger
}

// NewEffectExecutor creates a new PrinterEffectExecutor.
func NewEffectExecutor(
	transport secondary.PrinterTransport,
	acquisition *AcquisitionService,
	console secondary.OperatorConsole,
	logger *zap.Logger,
) *PrinterEffectExecutor {
	return &PrinterEffectExecutor{
		transport:   transport,
		acquisition: acquisition,
		console:     console,
		logger:      logger,
	}
}

// Execute processes a slice of effects strictly in sequence.
func (e *PrinterEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) (*Execution, error) {
	out := &Execution{}
	err := e.execute(ctx, effs, out)
	return out, err
}

func (e *PrinterEffectExecutor) execute(ctx context.Context, effs []effects.Effect, out *Execution) error {
	for _, eff := range effs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.executeOne(ctx, eff, out); err != nil {
			return fmt.Errorf("failed to execute %s effect: %w", eff.EffectType(), err)
		}
	}
	return nil
}

func (e *PrinterEffectExecutor) executeOne(ctx context.Context, eff effects.Effect, out *Execution) error {
	switch typed := eff.(type) {
	case effects.GcodeEffect:
		return e.transport.SendGcode(ctx, typed.Script)
	case effects.MoveEffect:
		return e.executeMove(ctx, typed)
	case effects.DisplayEffect:
		return e.transport.SendGcode(ctx, "M117 "+typed.Message)
	case effects.AcquireEffect:
		return e.executeAcquire(ctx, typed, out)
	case effects.LockEffect:
		return e.executeLock(ctx, typed, out)
	case effects.CompositeEffect:
		return e.execute(ctx, typed.Effects, out)
	case effects.NoEffect:
		return nil
	case effects.LogEffect:
		e.executeLog(typed)
		return nil
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

func (e *PrinterEffectExecutor) executeMove(ctx context.Context, eff effects.MoveEffect) error {
	if err := e.transport.SendGcode(ctx, "G90"); err != nil {
		return err
	}
	return e.transport.SendGcode(ctx, MoveGcode(eff))
}

// MoveGcode renders an absolute rapid move.
func MoveGcode(eff effects.MoveEffect) string {
	if eff.Feedrate > 0 {
		return fmt.Sprintf("G0 X%.3f Y%.3f F%d", eff.Target.X, eff.Target.Y, eff.Feedrate)
	}
	return fmt.Sprintf("G0 X%.3f Y%.3f", eff.Target.X, eff.Target.Y)
}

func (e *PrinterEffectExecutor) executeAcquire(ctx context.Context, eff effects.AcquireEffect, out *Execution) error {
	e.console.Progress(eff.Test)

	b, err := e.acquisition.Acquire(ctx, eff)
	if b != nil {
		for _, msg := range b.Warnings(eff.Samples) {
			e.console.Warn(eff.Test, msg)
			out.Warnings = append(out.Warnings, &primary.Warning{Label: eff.Test, Message: msg})
		}
	}
	if err != nil {
		return err
	}

	out.Table = measurement.Merge(out.Table, b.Samples)
	return nil
}

// executeLock runs the body with the probe locked. The release gcode is sent
// on every exit path, with a context that survives cancellation of ctx.
func (e *PrinterEffectExecutor) executeLock(ctx context.Context, eff effects.LockEffect, out *Execution) (err error) {
	if err := e.transport.SendGcode(ctx, eff.Acquire); err != nil {
		return err
	}

	defer func() {
		releaseErr := e.transport.SendGcode(context.WithoutCancel(ctx), eff.Release)
		if releaseErr == nil {
			return
		}
		if err != nil {
			e.logger.Error("failed to release probe lock", zap.String("gcode", eff.Release), zap.Error(releaseErr))
			return
		}
		err = releaseErr
	}()

	return e.execute(ctx, eff.Body, out)
}

func (e *PrinterEffectExecutor) executeLog(eff effects.LogEffect) {
	fields := make([]zap.Field, 0, len(eff.Fields))
	for k, v := range eff.Fields {
		fields = append(fields, zap.Any(k, v))
	}
	switch eff.Level {
	case "debug":
		e.logger.Debug(eff.Message, fields...)
	case "warn":
		e.logger.Warn(eff.Message, fields...)
	case "error":
		e.logger.Error(eff.Message, fields...)
	default:
		e.logger.Info(eff.Message, fields...)
	}
	if eff.Level == "info" {
		e.console.Progress(eff.Message)
	}
}

// Ensure PrinterEffectExecutor implements the interface
var _ EffectExecutor = (*PrinterEffectExecutor)(nil)
