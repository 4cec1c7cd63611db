// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"fmt"
)

// PrinterTransport defines the secondary port for the printer host's
// command/query service.
//
// Calls are single attempt and carry no timeout of their own: a hung host
// hangs the caller until ctx is cancelled.
type PrinterTransport interface {
	// SendGcode submits a gcode script and waits for the host to accept it.
	SendGcode(ctx context.Context, script string) error

	// QueryObject reads a printer object. With a non-empty key only that
	// field is returned; a missing field yields (nil, nil).
	QueryObject(ctx context.Context, object, key string) (any, error)

	// GcodeStore reads up to count most recent entries of the gcode response
	// log, oldest first.
	GcodeStore(ctx context.Context, count int) ([]*LogEntryRecord, error)
}

// LogEntryRecord represents one entry of the host's gcode response log.
type LogEntryRecord struct {
	Time    float64
	Message string
	Type    string
}

// TransportError reports that the underlying command, query or log call failed.
// It is never retried.
type TransportError struct {
	Op  string // "gcode", "query" or "gcode_store"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("printer transport %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// GcodeError reports that the host accepted the request but the gcode itself
// raised an error.
type GcodeError struct {
	Script  string
	Message string
}

func (e *GcodeError) Error() string {
	return fmt.Sprintf("gcode %q failed: %s", e.Script, e.Message)
}

// OperatorConsole defines the secondary port for talking to the person at the printer.
type OperatorConsole interface {
	// Ask prompts for a line of input.
	Ask(ctx context.Context, prompt string) (string, error)

	// Progress reports a step of the running procedure.
	Progress(message string)

	// Warn reports a non-fatal problem; the run continues.
	Warn(label, message string)
}
